package services

import (
	"context"
	"fmt"

	"github.com/custodia-labs/coupon/internal/core/domain"
	"github.com/custodia-labs/coupon/internal/core/ports/driven"
	"github.com/custodia-labs/coupon/internal/core/ports/driving"
	"github.com/custodia-labs/coupon/internal/logger"
)

// Ensure CouponService implements the interface.
var _ driving.CouponService = (*CouponService)(nil)

// CouponService manages coupon policies.
type CouponService struct {
	store driven.CouponStore
}

// NewCouponService creates a new coupon service.
func NewCouponService(store driven.CouponStore) *CouponService {
	return &CouponService{store: store}
}

// Create validates and stores a new coupon.
func (s *CouponService) Create(ctx context.Context, coupon domain.Coupon) (*domain.Coupon, error) {
	if coupon.ID != 0 {
		return nil, fmt.Errorf("%w: new coupon must not carry an id", domain.ErrInvalidInput)
	}
	if coupon.CouponType == "" {
		coupon.CouponType = domain.CouponTypeFirstComeFirstServed
	}
	if err := coupon.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, &coupon); err != nil {
		return nil, fmt.Errorf("saving coupon: %w", err)
	}
	logger.Info("created coupon %d %q", coupon.ID, coupon.Title)
	return &coupon, nil
}

// Get retrieves a coupon.
func (s *CouponService) Get(ctx context.Context, id int64) (*domain.Coupon, error) {
	return findCoupon(ctx, s.store, id)
}

// List returns all coupons.
func (s *CouponService) List(ctx context.Context) ([]domain.Coupon, error) {
	coupons, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing coupons: %w", err)
	}
	return coupons, nil
}
