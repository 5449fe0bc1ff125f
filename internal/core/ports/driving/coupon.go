package driving

import (
	"context"

	"github.com/custodia-labs/coupon/internal/core/domain"
)

// CouponService manages coupon policies.
type CouponService interface {
	// Create validates and stores a new coupon, returning it with its ID.
	Create(ctx context.Context, coupon domain.Coupon) (*domain.Coupon, error)

	// Get retrieves a coupon.
	// Returns a COUPON_NOT_EXIST CouponIssueError if it does not exist.
	Get(ctx context.Context, id int64) (*domain.Coupon, error)

	// List returns all coupons.
	List(ctx context.Context) ([]domain.Coupon, error)
}

// CouponIssuer issues a coupon to a user immediately.
type CouponIssuer interface {
	// Issue records the issue and increments the coupon's issued quantity.
	Issue(ctx context.Context, couponID, userID int64) error
}

// AsyncCouponIssuer admits an issue request for later fulfilment by the
// IssueListener.
type AsyncCouponIssuer interface {
	// Issue admits and queues the request.
	Issue(ctx context.Context, couponID, userID int64) error
}

// IssueListener fulfils queued issue requests.
type IssueListener interface {
	// Consume drains the queue in order and returns how many requests were handled.
	Consume(ctx context.Context) (int, error)
}
