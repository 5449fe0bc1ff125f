package memory

import (
	"context"
	"sync"

	"github.com/custodia-labs/coupon/internal/core/domain"
	"github.com/custodia-labs/coupon/internal/core/ports/driven"
)

// Ensure IssueRequestRepository implements the interface.
var _ driven.IssueRequestRepository = (*IssueRequestRepository)(nil)

// IssueRequestRepository is an in-memory implementation of
// driven.IssueRequestRepository. A single mutex makes every call atomic.
type IssueRequestRepository struct {
	mu        sync.Mutex
	requested map[int64]map[int64]struct{}
	queue     []domain.IssueRequest
}

// NewIssueRequestRepository creates an empty request repository.
func NewIssueRequestRepository() *IssueRequestRepository {
	return &IssueRequestRepository{
		requested: make(map[int64]map[int64]struct{}),
	}
}

// RequestedCount returns the number of users with a request for couponID.
func (r *IssueRequestRepository) RequestedCount(_ context.Context, couponID int64) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.requested[couponID])), nil
}

// IsRequested reports whether userID has a request for couponID.
func (r *IssueRequestRepository) IsRequested(_ context.Context, couponID, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.requested[couponID][userID]
	return ok, nil
}

// Enqueue records the request and appends it to the queue.
func (r *IssueRequestRepository) Enqueue(_ context.Context, req domain.IssueRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enqueueLocked(req)
	return nil
}

// EnqueueAtomic checks for a duplicate, then the quantity, then enqueues.
func (r *IssueRequestRepository) EnqueueAtomic(
	_ context.Context,
	req domain.IssueRequest,
	totalQuantity int,
) (domain.IssueRequestCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := r.requested[req.CouponID]
	if _, ok := users[req.UserID]; ok {
		return domain.IssueRequestDuplicated, nil
	}
	if int64(totalQuantity) <= int64(len(users)) {
		return domain.IssueRequestQuantityExceeded, nil
	}
	r.enqueueLocked(req)
	return domain.IssueRequestSuccess, nil
}

// enqueueLocked adds the request (caller must hold lock).
func (r *IssueRequestRepository) enqueueLocked(req domain.IssueRequest) {
	users, ok := r.requested[req.CouponID]
	if !ok {
		users = make(map[int64]struct{})
		r.requested[req.CouponID] = users
	}
	users[req.UserID] = struct{}{}
	r.queue = append(r.queue, req)
}

// QueueSize returns the number of queued requests.
func (r *IssueRequestRepository) QueueSize(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.queue)), nil
}

// Peek returns the head of the queue.
func (r *IssueRequestRepository) Peek(_ context.Context) (domain.IssueRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return domain.IssueRequest{}, domain.ErrQueueEmpty
	}
	return r.queue[0], nil
}

// Pop removes the head of the queue. Popping an empty queue is a no-op.
func (r *IssueRequestRepository) Pop(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.queue) == 0 {
		return nil
	}
	r.queue[0] = domain.IssueRequest{}
	r.queue = r.queue[1:]
	return nil
}
