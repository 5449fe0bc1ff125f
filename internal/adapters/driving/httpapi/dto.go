package httpapi

import (
	"time"

	"github.com/custodia-labs/coupon/internal/core/domain"
)

// CouponIssueRequest is the body of the issue endpoints.
type CouponIssueRequest struct {
	UserID   int64 `json:"userId"`
	CouponID int64 `json:"couponId"`
}

// CouponIssueResponse is the body returned by the issue endpoints.
type CouponIssueResponse struct {
	IsSuccess bool    `json:"isSuccess"`
	Comment   *string `json:"comment"`
}

func success() CouponIssueResponse {
	return CouponIssueResponse{IsSuccess: true}
}

func failure(comment string) CouponIssueResponse {
	return CouponIssueResponse{IsSuccess: false, Comment: &comment}
}

// CreateCouponRequest is the body of POST /v1/coupons.
type CreateCouponRequest struct {
	Title              string            `json:"title"`
	CouponType         domain.CouponType `json:"couponType"`
	TotalQuantity      *int              `json:"totalQuantity"`
	DiscountAmount     int               `json:"discountAmount"`
	MinAvailableAmount int               `json:"minAvailableAmount"`
	DateIssueStart     time.Time         `json:"dateIssueStart"`
	DateIssueEnd       time.Time         `json:"dateIssueEnd"`
}

func (r CreateCouponRequest) toDomain() domain.Coupon {
	return domain.Coupon{
		Title:              r.Title,
		CouponType:         r.CouponType,
		TotalQuantity:      r.TotalQuantity,
		DiscountAmount:     r.DiscountAmount,
		MinAvailableAmount: r.MinAvailableAmount,
		DateIssueStart:     r.DateIssueStart,
		DateIssueEnd:       r.DateIssueEnd,
	}
}

// CouponResponse describes a stored coupon policy.
type CouponResponse struct {
	ID                 int64             `json:"id"`
	Title              string            `json:"title"`
	CouponType         domain.CouponType `json:"couponType"`
	TotalQuantity      *int              `json:"totalQuantity"`
	IssuedQuantity     int               `json:"issuedQuantity"`
	DiscountAmount     int               `json:"discountAmount"`
	MinAvailableAmount int               `json:"minAvailableAmount"`
	DateIssueStart     time.Time         `json:"dateIssueStart"`
	DateIssueEnd       time.Time         `json:"dateIssueEnd"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

// NewCouponResponse converts a coupon to its JSON representation.
func NewCouponResponse(c *domain.Coupon) CouponResponse {
	return CouponResponse{
		ID:                 c.ID,
		Title:              c.Title,
		CouponType:         c.CouponType,
		TotalQuantity:      c.TotalQuantity,
		IssuedQuantity:     c.IssuedQuantity,
		DiscountAmount:     c.DiscountAmount,
		MinAvailableAmount: c.MinAvailableAmount,
		DateIssueStart:     c.DateIssueStart,
		DateIssueEnd:       c.DateIssueEnd,
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

// errorResponse is returned by the admin endpoints on failure.
type errorResponse struct {
	Error string `json:"error"`
}
