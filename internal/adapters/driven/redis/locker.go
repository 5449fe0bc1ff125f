package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/coupon/internal/core/domain"
	"github.com/custodia-labs/coupon/internal/core/ports/driven"
	"github.com/custodia-labs/coupon/internal/logger"
)

// Ensure Locker implements the interface.
var _ driven.Locker = (*Locker)(nil)

// defaultRetryInterval is the delay between acquisition attempts.
const defaultRetryInterval = 20 * time.Millisecond

// releaseScript deletes the lock only if it still carries our token.
var releaseScript = goredis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

// Locker is a driven.Locker shared by every process using the same Redis.
type Locker struct {
	client goredis.UniversalClient
	retry  time.Duration
}

// NewLocker creates a distributed locker backed by client.
func NewLocker(client goredis.UniversalClient) *Locker {
	return &Locker{client: client, retry: defaultRetryInterval}
}

// Execute runs fn while holding the lock called name.
func (l *Locker) Execute(
	ctx context.Context,
	name string,
	wait, lease time.Duration,
	fn func(ctx context.Context) error,
) error {
	token := uuid.NewString()
	if err := l.acquire(ctx, name, token, wait, lease); err != nil {
		return err
	}
	defer l.release(context.WithoutCancel(ctx), name, token)
	return fn(ctx)
}

func (l *Locker) acquire(ctx context.Context, name, token string, wait, lease time.Duration) error {
	deadline := time.NewTimer(wait)
	defer deadline.Stop()
	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, name, token, lease).Result()
		if err != nil {
			return fmt.Errorf("acquiring lock [%s]: %w", name, err)
		}
		if ok {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w: [%s]", domain.ErrLockNotAcquired, name)
		case <-ticker.C:
		}
	}
}

func (l *Locker) release(ctx context.Context, name, token string) {
	err := releaseScript.Run(ctx, l.client, []string{name}, token).Err()
	if err != nil && !errors.Is(err, goredis.Nil) {
		logger.Warn("releasing lock [%s]: %v", name, err)
	}
}
