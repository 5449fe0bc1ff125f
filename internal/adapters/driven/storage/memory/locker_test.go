package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/coupon/internal/core/domain"
)

func TestLocker_ExecuteRunsFn(t *testing.T) {
	locker := NewLocker()
	ran := false

	err := locker.Execute(context.Background(), "lock_1", time.Second, time.Second, func(context.Context) error {
		ran = true
		return nil
	})

	require.NoError(t, err)
	assert.True(t, ran)
}

func TestLocker_PropagatesFnError(t *testing.T) {
	locker := NewLocker()
	boom := errors.New("boom")

	err := locker.Execute(context.Background(), "lock_1", time.Second, time.Second, func(context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// The lock is released after a failing fn
	err = locker.Execute(context.Background(), "lock_1", 50*time.Millisecond, time.Second, func(context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestLocker_MutualExclusion(t *testing.T) {
	locker := NewLocker()
	var inside, maxInside atomic.Int32

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.Execute(context.Background(), "lock_1", 5*time.Second, 5*time.Second, func(context.Context) error {
				n := inside.Add(1)
				for {
					cur := maxInside.Load()
					if n <= cur || maxInside.CompareAndSwap(cur, n) {
						break
					}
				}
				time.Sleep(time.Millisecond)
				inside.Add(-1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside.Load())
}

func TestLocker_IndependentNames(t *testing.T) {
	locker := NewLocker()
	held := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = locker.Execute(context.Background(), "lock_1", time.Second, 5*time.Second, func(context.Context) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	err := locker.Execute(context.Background(), "lock_2", 50*time.Millisecond, time.Second, func(context.Context) error {
		return nil
	})
	close(done)
	assert.NoError(t, err)
}

func TestLocker_WaitTimeout(t *testing.T) {
	locker := NewLocker()
	held := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = locker.Execute(context.Background(), "lock_1", time.Second, 5*time.Second, func(context.Context) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held
	defer close(done)

	err := locker.Execute(context.Background(), "lock_1", 30*time.Millisecond, time.Second, func(context.Context) error {
		t.Fatal("fn must not run without the lock")
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrLockNotAcquired)
}

func TestLocker_ExpiredLeaseIsTaken(t *testing.T) {
	locker := NewLocker()
	held := make(chan struct{})
	done := make(chan struct{})
	finished := make(chan struct{})

	go func() {
		defer close(finished)
		_ = locker.Execute(context.Background(), "lock_1", time.Second, 20*time.Millisecond, func(context.Context) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held

	ran := false
	err := locker.Execute(context.Background(), "lock_1", time.Second, time.Second, func(context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)

	// The stale holder's release must not break the lock for others
	close(done)
	<-finished
	err = locker.Execute(context.Background(), "lock_1", 100*time.Millisecond, time.Second, func(context.Context) error {
		return nil
	})
	assert.NoError(t, err)
}

func TestLocker_ContextCancelled(t *testing.T) {
	locker := NewLocker()
	held := make(chan struct{})
	done := make(chan struct{})

	go func() {
		_ = locker.Execute(context.Background(), "lock_1", time.Second, 5*time.Second, func(context.Context) error {
			close(held)
			<-done
			return nil
		})
	}()
	<-held
	defer close(done)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := locker.Execute(ctx, "lock_1", time.Second, time.Second, func(context.Context) error {
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
