package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/custodia-labs/coupon/internal/core/domain"
	"github.com/custodia-labs/coupon/internal/core/ports/driven"
	"github.com/custodia-labs/coupon/internal/logger"
)

// CouponCacheService caches coupon snapshots so the asynchronous issue paths
// can admit requests without reading the coupon store.
type CouponCacheService struct {
	store driven.CouponStore
	lru   *expirable.LRU[int64, domain.CouponSnapshot]
}

// NewCouponCacheService creates a snapshot cache holding at most size
// entries, each living for ttl.
func NewCouponCacheService(store driven.CouponStore, cfg domain.CacheSettings) *CouponCacheService {
	size := cfg.Size
	if size <= 0 {
		size = domain.DefaultAppSettings().Cache.Size
	}
	return &CouponCacheService{
		store: store,
		lru:   expirable.NewLRU[int64, domain.CouponSnapshot](size, nil, cfg.TTL),
	}
}

// Get returns the snapshot for couponID, loading it from the store on a miss.
// Returns a COUPON_NOT_EXIST CouponIssueError if the coupon does not exist.
func (c *CouponCacheService) Get(ctx context.Context, couponID int64) (domain.CouponSnapshot, error) {
	if snap, ok := c.lru.Get(couponID); ok {
		return snap, nil
	}

	coupon, err := findCoupon(ctx, c.store, couponID)
	if err != nil {
		return domain.CouponSnapshot{}, err
	}

	snap := coupon.Snapshot()
	c.lru.Add(couponID, snap)
	logger.Debug("cached coupon snapshot %d", couponID)
	return snap, nil
}

// Put replaces the cached snapshot.
func (c *CouponCacheService) Put(snap domain.CouponSnapshot) {
	c.lru.Add(snap.ID, snap)
}

// Evict drops the cached snapshot for couponID.
func (c *CouponCacheService) Evict(couponID int64) {
	c.lru.Remove(couponID)
}

// Len returns the number of cached snapshots.
func (c *CouponCacheService) Len() int {
	return c.lru.Len()
}

// findCoupon loads a coupon, translating a miss into COUPON_NOT_EXIST.
func findCoupon(ctx context.Context, store driven.CouponStore, couponID int64) (*domain.Coupon, error) {
	coupon, err := store.Get(ctx, couponID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewCouponIssueError(domain.ErrorCodeCouponNotExist,
				"coupon policy does not exist. couponId: %d", couponID)
		}
		return nil, fmt.Errorf("loading coupon %d: %w", couponID, err)
	}
	return coupon, nil
}

// systemClock is the default time source of the services.
func systemClock() time.Time {
	return time.Now()
}
