package driven

import (
	"context"

	"github.com/custodia-labs/coupon/internal/core/domain"
)

// CouponStore persists coupon policies.
type CouponStore interface {
	// Save inserts a coupon when its ID is zero, assigning the new ID,
	// and updates it otherwise.
	Save(ctx context.Context, coupon *domain.Coupon) error

	// Get retrieves a coupon by ID.
	// Returns domain.ErrNotFound if the coupon does not exist.
	Get(ctx context.Context, id int64) (*domain.Coupon, error)

	// List returns all coupons ordered by ID.
	List(ctx context.Context) ([]domain.Coupon, error)
}

// CouponIssueStore persists issued coupons.
type CouponIssueStore interface {
	// Save inserts an issue, assigning its ID.
	// Returns domain.ErrAlreadyExists if the user already holds the coupon.
	Save(ctx context.Context, issue *domain.CouponIssue) error

	// FindFirst returns the issue of couponID held by userID.
	// Returns nil and no error if there is none.
	FindFirst(ctx context.Context, couponID, userID int64) (*domain.CouponIssue, error)

	// CountByCoupon returns how many issues exist for a coupon.
	CountByCoupon(ctx context.Context, couponID int64) (int, error)
}

// TxStores are the stores bound to a single transaction.
type TxStores struct {
	Coupons CouponStore
	Issues  CouponIssueStore
}

// Transactor runs a unit of work atomically.
type Transactor interface {
	// InTx runs fn with stores bound to one transaction. The transaction
	// commits if fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, stores TxStores) error) error
}
