package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/custodia-labs/coupon/internal/core/domain"
	"github.com/custodia-labs/coupon/internal/core/ports/driven"
)

// Ensure IssueRequestRepository implements the interface.
var _ driven.IssueRequestRepository = (*IssueRequestRepository)(nil)

const issueRequestQueueKey = "issue.request"

// enqueueScript admits a request in one step.
// KEYS[1] request set, KEYS[2] queue; ARGV[1] user id, ARGV[2] payload, ARGV[3] total quantity.
var enqueueScript = goredis.NewScript(`
if redis.call('SISMEMBER', KEYS[1], ARGV[1]) == 1 then
	return '2'
end
if tonumber(ARGV[3]) > redis.call('SCARD', KEYS[1]) then
	redis.call('SADD', KEYS[1], ARGV[1])
	redis.call('RPUSH', KEYS[2], ARGV[2])
	return '1'
end
return '3'
`)

// IssueRequestRepository keeps request sets and the request queue in Redis.
type IssueRequestRepository struct {
	client goredis.UniversalClient
}

// NewIssueRequestRepository creates a repository backed by client.
func NewIssueRequestRepository(client goredis.UniversalClient) *IssueRequestRepository {
	return &IssueRequestRepository{client: client}
}

// issueRequestKey returns the key of the request set for couponID.
func issueRequestKey(couponID int64) string {
	return fmt.Sprintf("issue.request.couponId=%d", couponID)
}

// RequestedCount returns the cardinality of the coupon's request set.
func (r *IssueRequestRepository) RequestedCount(ctx context.Context, couponID int64) (int64, error) {
	n, err := r.client.SCard(ctx, issueRequestKey(couponID)).Result()
	if err != nil {
		return 0, fmt.Errorf("scard %s: %w", issueRequestKey(couponID), err)
	}
	return n, nil
}

// IsRequested reports whether userID is in the coupon's request set.
func (r *IssueRequestRepository) IsRequested(ctx context.Context, couponID, userID int64) (bool, error) {
	ok, err := r.client.SIsMember(ctx, issueRequestKey(couponID), strconv.FormatInt(userID, 10)).Result()
	if err != nil {
		return false, fmt.Errorf("sismember %s: %w", issueRequestKey(couponID), err)
	}
	return ok, nil
}

// Enqueue adds the user to the request set and pushes the payload in one
// MULTI/EXEC block.
func (r *IssueRequestRepository) Enqueue(ctx context.Context, req domain.IssueRequest) error {
	payload, err := req.Encode()
	if err != nil {
		return fmt.Errorf("encoding %s: %w", req, err)
	}
	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.SAdd(ctx, issueRequestKey(req.CouponID), strconv.FormatInt(req.UserID, 10))
		pipe.RPush(ctx, issueRequestQueueKey, payload)
		return nil
	})
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", req, err)
	}
	return nil
}

// EnqueueAtomic runs the admission script.
func (r *IssueRequestRepository) EnqueueAtomic(
	ctx context.Context,
	req domain.IssueRequest,
	totalQuantity int,
) (domain.IssueRequestCode, error) {
	payload, err := req.Encode()
	if err != nil {
		return 0, fmt.Errorf("encoding %s: %w", req, err)
	}

	keys := []string{issueRequestKey(req.CouponID), issueRequestQueueKey}
	result, err := enqueueScript.Run(ctx, r.client, keys,
		strconv.FormatInt(req.UserID, 10), payload, strconv.Itoa(totalQuantity)).Text()
	if err != nil {
		return 0, fmt.Errorf("admission script for %s: %w", req, err)
	}
	return domain.ParseIssueRequestCode(result)
}

// QueueSize returns the length of the queue.
func (r *IssueRequestRepository) QueueSize(ctx context.Context) (int64, error) {
	n, err := r.client.LLen(ctx, issueRequestQueueKey).Result()
	if err != nil {
		return 0, fmt.Errorf("llen %s: %w", issueRequestQueueKey, err)
	}
	return n, nil
}

// Peek decodes the payload at the head of the queue.
func (r *IssueRequestRepository) Peek(ctx context.Context) (domain.IssueRequest, error) {
	payload, err := r.client.LIndex(ctx, issueRequestQueueKey, 0).Result()
	if errors.Is(err, goredis.Nil) {
		return domain.IssueRequest{}, domain.ErrQueueEmpty
	}
	if err != nil {
		return domain.IssueRequest{}, fmt.Errorf("lindex %s: %w", issueRequestQueueKey, err)
	}
	return domain.DecodeIssueRequest(payload)
}

// Pop removes the head of the queue. Popping an empty queue is a no-op.
func (r *IssueRequestRepository) Pop(ctx context.Context) error {
	err := r.client.LPop(ctx, issueRequestQueueKey).Err()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("lpop %s: %w", issueRequestQueueKey, err)
	}
	return nil
}
