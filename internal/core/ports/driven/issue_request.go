package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/coupon/internal/core/domain"
)

// IssueRequestRepository admits issue requests and queues them for the consumer.
//
// Per coupon it keeps the set of users with an admitted request. A single
// FIFO queue holds the admitted requests of every coupon.
type IssueRequestRepository interface {
	// RequestedCount returns the number of users with an admitted request for couponID.
	RequestedCount(ctx context.Context, couponID int64) (int64, error)

	// IsRequested reports whether userID already has an admitted request for couponID.
	IsRequested(ctx context.Context, couponID, userID int64) (bool, error)

	// Enqueue adds the user to the coupon's request set and appends the
	// request to the queue. Callers serialise Enqueue with their own checks.
	Enqueue(ctx context.Context, req domain.IssueRequest) error

	// EnqueueAtomic performs the duplicate check, the quantity check against
	// totalQuantity and Enqueue as one atomic step.
	EnqueueAtomic(ctx context.Context, req domain.IssueRequest, totalQuantity int) (domain.IssueRequestCode, error)

	// QueueSize returns the number of queued requests.
	QueueSize(ctx context.Context) (int64, error)

	// Peek returns the request at the head of the queue without removing it.
	// Returns domain.ErrQueueEmpty if the queue is empty.
	Peek(ctx context.Context) (domain.IssueRequest, error)

	// Pop removes the request at the head of the queue.
	Pop(ctx context.Context) error
}

// Locker runs work while holding a named lock.
type Locker interface {
	// Execute acquires the lock called name, waiting at most wait, runs fn and
	// releases the lock. A held lock expires after lease even if never released.
	// Returns domain.ErrLockNotAcquired if the wait elapses.
	Execute(ctx context.Context, name string, wait, lease time.Duration, fn func(ctx context.Context) error) error
}
