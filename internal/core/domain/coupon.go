package domain

import (
	"fmt"
	"strings"
	"time"
)

// CouponType identifies the issuance policy of a coupon.
type CouponType string

// Available coupon types.
const (
	// CouponTypeFirstComeFirstServed issues coupons in request order until the
	// total quantity is exhausted.
	CouponTypeFirstComeFirstServed CouponType = "FIRST_COME_FIRST_SERVED"
)

// IsValid returns true if the coupon type is recognised.
func (t CouponType) IsValid() bool {
	return t == CouponTypeFirstComeFirstServed
}

// String returns the string representation.
func (t CouponType) String() string {
	return string(t)
}

// Coupon is a coupon policy: what is discounted and how many may be issued
// within which window.
type Coupon struct {
	// ID is assigned by the store on first save.
	ID int64

	// Title is the display name of the coupon.
	Title string

	// CouponType is the issuance policy.
	CouponType CouponType

	// TotalQuantity caps the number of issues. Nil means unlimited.
	TotalQuantity *int

	// IssuedQuantity is the number of coupons issued so far.
	IssuedQuantity int

	// DiscountAmount is the amount taken off an order.
	DiscountAmount int

	// MinAvailableAmount is the minimum order amount the coupon applies to.
	MinAvailableAmount int

	// DateIssueStart and DateIssueEnd bound the issue window (both exclusive).
	DateIssueStart time.Time
	DateIssueEnd   time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AvailableIssueQuantity reports whether another coupon may be issued.
func (c *Coupon) AvailableIssueQuantity() bool {
	if c.TotalQuantity == nil {
		return true
	}
	return *c.TotalQuantity > c.IssuedQuantity
}

// AvailableIssueDate reports whether now lies strictly inside the issue window.
func (c *Coupon) AvailableIssueDate(now time.Time) bool {
	return c.DateIssueStart.Before(now) && c.DateIssueEnd.After(now)
}

// IsIssueComplete reports whether no more coupons will ever be issued:
// the window has closed or the quantity is exhausted.
func (c *Coupon) IsIssueComplete(now time.Time) bool {
	return c.DateIssueEnd.Before(now) || !c.AvailableIssueQuantity()
}

// Issue records one issue against the coupon. Quantity is checked before the
// issue window.
func (c *Coupon) Issue(now time.Time) error {
	if !c.AvailableIssueQuantity() {
		return NewCouponIssueError(ErrorCodeInvalidIssueQuantity,
			"issue quantity exceeded. total: %s, issued: %d", formatQuantity(c.TotalQuantity), c.IssuedQuantity)
	}
	if !c.AvailableIssueDate(now) {
		return NewCouponIssueError(ErrorCodeInvalidIssueDate,
			"outside the issue window. request: %s, issueStart: %s, issueEnd: %s",
			now.Format(time.RFC3339), c.DateIssueStart.Format(time.RFC3339), c.DateIssueEnd.Format(time.RFC3339))
	}
	c.IssuedQuantity++
	return nil
}

// Validate checks that a coupon policy is well-formed before it is stored.
func (c *Coupon) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if !c.CouponType.IsValid() {
		return fmt.Errorf("%w: coupon type %q", ErrUnsupportedType, c.CouponType)
	}
	if c.TotalQuantity != nil && *c.TotalQuantity < 0 {
		return fmt.Errorf("%w: total quantity must not be negative", ErrInvalidInput)
	}
	if c.IssuedQuantity < 0 {
		return fmt.Errorf("%w: issued quantity must not be negative", ErrInvalidInput)
	}
	if c.DiscountAmount < 0 || c.MinAvailableAmount < 0 {
		return fmt.Errorf("%w: amounts must not be negative", ErrInvalidInput)
	}
	if c.DateIssueStart.IsZero() || c.DateIssueEnd.IsZero() {
		return fmt.Errorf("%w: issue window is required", ErrInvalidInput)
	}
	if !c.DateIssueStart.Before(c.DateIssueEnd) {
		return fmt.Errorf("%w: issue start must be before issue end", ErrInvalidInput)
	}
	return nil
}

// Snapshot returns the cacheable view used by the asynchronous issue paths.
func (c *Coupon) Snapshot() CouponSnapshot {
	var total *int
	if c.TotalQuantity != nil {
		v := *c.TotalQuantity
		total = &v
	}
	return CouponSnapshot{
		ID:                     c.ID,
		CouponType:             c.CouponType,
		TotalQuantity:          total,
		AvailableIssueQuantity: c.AvailableIssueQuantity(),
		DateIssueStart:         c.DateIssueStart,
		DateIssueEnd:           c.DateIssueEnd,
	}
}

// CouponSnapshot is a point-in-time copy of the fields needed to admit an
// issue request without touching the coupon store.
type CouponSnapshot struct {
	ID                     int64      `json:"id"`
	CouponType             CouponType `json:"couponType"`
	TotalQuantity          *int       `json:"totalQuantity"`
	AvailableIssueQuantity bool       `json:"availableIssueQuantity"`
	DateIssueStart         time.Time  `json:"dateIssueStart"`
	DateIssueEnd           time.Time  `json:"dateIssueEnd"`
}

// AvailableIssueDate reports whether now lies strictly inside the issue window.
func (s CouponSnapshot) AvailableIssueDate(now time.Time) bool {
	return s.DateIssueStart.Before(now) && s.DateIssueEnd.After(now)
}

// CheckIssuable rejects requests for a coupon that is sold out or outside
// its issue window.
func (s CouponSnapshot) CheckIssuable(now time.Time) error {
	if !s.AvailableIssueQuantity {
		return NewCouponIssueError(ErrorCodeInvalidIssueQuantity,
			"issue quantity exhausted. couponId: %d", s.ID)
	}
	if !s.AvailableIssueDate(now) {
		return NewCouponIssueError(ErrorCodeInvalidIssueDate,
			"outside the issue window. couponId: %d, request: %s, issueStart: %s, issueEnd: %s",
			s.ID, now.Format(time.RFC3339), s.DateIssueStart.Format(time.RFC3339), s.DateIssueEnd.Format(time.RFC3339))
	}
	return nil
}

func formatQuantity(q *int) string {
	if q == nil {
		return "unlimited"
	}
	return fmt.Sprintf("%d", *q)
}

// IntPtr returns a pointer to v. Handy for TotalQuantity literals.
func IntPtr(v int) *int {
	return &v
}
