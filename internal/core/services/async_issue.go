package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/custodia-labs/coupon/internal/core/domain"
	"github.com/custodia-labs/coupon/internal/core/ports/driven"
	"github.com/custodia-labs/coupon/internal/core/ports/driving"
	"github.com/custodia-labs/coupon/internal/logger"
)

// Ensure the asynchronous issuers implement the interface.
var (
	_ driving.AsyncCouponIssuer = (*AsyncCouponIssueServiceV1)(nil)
	_ driving.AsyncCouponIssuer = (*AsyncCouponIssueServiceV2)(nil)
)

// AsyncCouponIssueServiceV1 admits issue requests under a per-coupon lock.
// The quantity and duplicate checks read the request set, then the request
// is enqueued; the lock makes the check-then-enqueue sequence atomic.
type AsyncCouponIssueServiceV1 struct {
	cache    *CouponCacheService
	requests driven.IssueRequestRepository
	locker   driven.Locker
	lock     domain.LockSettings
	now      func() time.Time
}

// NewAsyncCouponIssueServiceV1 creates a lock-based asynchronous issuer.
func NewAsyncCouponIssueServiceV1(
	cache *CouponCacheService,
	requests driven.IssueRequestRepository,
	locker driven.Locker,
	lock domain.LockSettings,
) *AsyncCouponIssueServiceV1 {
	return &AsyncCouponIssueServiceV1{
		cache:    cache,
		requests: requests,
		locker:   locker,
		lock:     lock,
		now:      systemClock,
	}
}

// Issue admits and queues a request for couponID on behalf of userID.
func (s *AsyncCouponIssueServiceV1) Issue(ctx context.Context, couponID, userID int64) error {
	coupon, err := s.cache.Get(ctx, couponID)
	if err != nil {
		return err
	}
	if err := coupon.CheckIssuable(s.now()); err != nil {
		return err
	}

	return s.locker.Execute(ctx, requestLockName(couponID), s.lock.Wait, s.lock.Lease,
		func(ctx context.Context) error {
			if err := s.checkIssueQuantity(ctx, coupon, userID); err != nil {
				return err
			}
			return s.enqueue(ctx, domain.IssueRequest{CouponID: couponID, UserID: userID})
		})
}

// checkIssueQuantity rejects the request if the coupon is fully requested or
// the user already has a request.
func (s *AsyncCouponIssueServiceV1) checkIssueQuantity(ctx context.Context, coupon domain.CouponSnapshot, userID int64) error {
	if coupon.TotalQuantity != nil {
		count, err := s.requests.RequestedCount(ctx, coupon.ID)
		if err != nil {
			return fmt.Errorf("counting issue requests: %w", err)
		}
		if int64(*coupon.TotalQuantity) <= count {
			return domain.NewCouponIssueError(domain.ErrorCodeInvalidIssueQuantity,
				"issue quantity exceeded. couponId: %d userId: %d", coupon.ID, userID)
		}
	}

	requested, err := s.requests.IsRequested(ctx, coupon.ID, userID)
	if err != nil {
		return fmt.Errorf("checking issue request: %w", err)
	}
	if requested {
		return domain.NewCouponIssueError(domain.ErrorCodeDuplicatedIssue,
			"issue already requested. couponId: %d userId: %d", coupon.ID, userID)
	}
	return nil
}

func (s *AsyncCouponIssueServiceV1) enqueue(ctx context.Context, req domain.IssueRequest) error {
	if err := s.requests.Enqueue(ctx, req); err != nil {
		logger.Error("enqueue failed for %s: %v", req, err)
		return domain.NewCouponIssueError(domain.ErrorCodeFailIssueRequest, "input: %s", req)
	}
	logger.Debug("issue request queued: %s", req)
	return nil
}

// AsyncCouponIssueServiceV2 admits issue requests with a single atomic
// repository call instead of a lock.
type AsyncCouponIssueServiceV2 struct {
	cache    *CouponCacheService
	requests driven.IssueRequestRepository
	now      func() time.Time
}

// NewAsyncCouponIssueServiceV2 creates a lock-free asynchronous issuer.
func NewAsyncCouponIssueServiceV2(cache *CouponCacheService, requests driven.IssueRequestRepository) *AsyncCouponIssueServiceV2 {
	return &AsyncCouponIssueServiceV2{
		cache:    cache,
		requests: requests,
		now:      systemClock,
	}
}

// Issue admits and queues a request for couponID on behalf of userID.
func (s *AsyncCouponIssueServiceV2) Issue(ctx context.Context, couponID, userID int64) error {
	coupon, err := s.cache.Get(ctx, couponID)
	if err != nil {
		return err
	}
	if err := coupon.CheckIssuable(s.now()); err != nil {
		return err
	}

	req := domain.IssueRequest{CouponID: couponID, UserID: userID}
	code, err := s.requests.EnqueueAtomic(ctx, req, totalQuantityLimit(coupon.TotalQuantity))
	if err != nil {
		logger.Error("atomic enqueue failed for %s: %v", req, err)
		return domain.NewCouponIssueError(domain.ErrorCodeFailIssueRequest, "input: %s", req)
	}
	if err := code.Check(req); err != nil {
		return err
	}
	logger.Debug("issue request queued: %s", req)
	return nil
}

// totalQuantityLimit maps an unlimited coupon to the largest quantity the
// admission script compares against.
func totalQuantityLimit(total *int) int {
	if total == nil {
		return math.MaxInt32
	}
	return *total
}

// requestLockName names the lock serialising request admission for one coupon.
func requestLockName(couponID int64) string {
	return fmt.Sprintf("lock_%d", couponID)
}
