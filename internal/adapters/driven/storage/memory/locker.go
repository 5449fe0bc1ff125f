package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/coupon/internal/core/domain"
	"github.com/custodia-labs/coupon/internal/core/ports/driven"
)

// Ensure Locker implements the interface.
var _ driven.Locker = (*Locker)(nil)

// Locker is an in-process implementation of driven.Locker.
//
// Each name maps to a one-slot channel. A holder that outlives its lease
// loses the lock to the next waiter; its own release is then ignored.
type Locker struct {
	mu         sync.Mutex
	locks      map[string]*lease
	nextHolder uint64
}

type lease struct {
	slot    chan struct{}
	holder  uint64
	expires time.Time
}

// NewLocker creates an in-process locker.
func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*lease)}
}

// Execute runs fn while holding the lock called name.
func (l *Locker) Execute(
	ctx context.Context,
	name string,
	wait, leaseFor time.Duration,
	fn func(ctx context.Context) error,
) error {
	holder, err := l.acquire(ctx, name, wait, leaseFor)
	if err != nil {
		return err
	}
	defer l.release(name, holder)
	return fn(ctx)
}

func (l *Locker) entry(name string) *lease {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.locks[name]
	if !ok {
		e = &lease{slot: make(chan struct{}, 1)}
		l.locks[name] = e
	}
	return e
}

func (l *Locker) acquire(ctx context.Context, name string, wait, leaseFor time.Duration) (uint64, error) {
	e := l.entry(name)
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	poll := time.NewTicker(pollInterval(leaseFor))
	defer poll.Stop()

	for {
		select {
		case e.slot <- struct{}{}:
			return l.take(e, leaseFor), nil
		default:
		}

		if l.stealExpired(e, leaseFor) {
			l.mu.Lock()
			h := e.holder
			l.mu.Unlock()
			return h, nil
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-deadline.C:
			return 0, fmt.Errorf("%w: [%s]", domain.ErrLockNotAcquired, name)
		case e.slot <- struct{}{}:
			return l.take(e, leaseFor), nil
		case <-poll.C:
		}
	}
}

// take records a new holder after the slot was filled.
func (l *Locker) take(e *lease, leaseFor time.Duration) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.nextHolder++
	e.holder = l.nextHolder
	e.expires = time.Now().Add(leaseFor)
	return e.holder
}

// stealExpired hands an expired lease to a new holder without emptying the slot.
func (l *Locker) stealExpired(e *lease, leaseFor time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if e.holder == 0 || leaseFor <= 0 || time.Now().Before(e.expires) {
		return false
	}
	l.nextHolder++
	e.holder = l.nextHolder
	e.expires = time.Now().Add(leaseFor)
	return true
}

func (l *Locker) release(name string, holder uint64) {
	l.mu.Lock()
	e := l.locks[name]
	if e == nil || e.holder != holder {
		l.mu.Unlock()
		return
	}
	e.holder = 0
	l.mu.Unlock()
	<-e.slot
}

// pollInterval is how often a waiter re-checks for an expired lease.
func pollInterval(leaseFor time.Duration) time.Duration {
	switch {
	case leaseFor <= 0 || leaseFor > 100*time.Millisecond:
		return 10 * time.Millisecond
	case leaseFor < 10*time.Millisecond:
		return time.Millisecond
	default:
		return leaseFor / 10
	}
}
