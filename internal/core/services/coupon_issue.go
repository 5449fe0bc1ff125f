package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/custodia-labs/coupon/internal/core/domain"
	"github.com/custodia-labs/coupon/internal/core/ports/driven"
	"github.com/custodia-labs/coupon/internal/core/ports/driving"
	"github.com/custodia-labs/coupon/internal/logger"
)

// Ensure CouponIssueService implements the interface.
var _ driving.CouponIssuer = (*CouponIssueService)(nil)

// CouponIssueService issues coupons synchronously against the coupon store.
//
// The per-coupon lock is taken before the transaction begins and released
// after it commits, so a second issuer never reads the issued quantity of an
// uncommitted transaction.
type CouponIssueService struct {
	tx     driven.Transactor
	locker driven.Locker
	cache  *CouponCacheService
	lock   domain.LockSettings
	now    func() time.Time
}

// NewCouponIssueService creates a synchronous issuer.
// cache may be nil; when set, the snapshot of a coupon that becomes
// issue-complete is refreshed so the asynchronous paths stop admitting it.
func NewCouponIssueService(
	tx driven.Transactor,
	locker driven.Locker,
	cache *CouponCacheService,
	lock domain.LockSettings,
) *CouponIssueService {
	return &CouponIssueService{
		tx:     tx,
		locker: locker,
		cache:  cache,
		lock:   lock,
		now:    systemClock,
	}
}

// Issue issues couponID to userID.
func (s *CouponIssueService) Issue(ctx context.Context, couponID, userID int64) error {
	return s.locker.Execute(ctx, issueLockName(couponID), s.lock.Wait, s.lock.Lease,
		func(ctx context.Context) error {
			return s.issue(ctx, couponID, userID)
		})
}

func (s *CouponIssueService) issue(ctx context.Context, couponID, userID int64) error {
	now := s.now()
	var completed *domain.Coupon

	err := s.tx.InTx(ctx, func(ctx context.Context, stores driven.TxStores) error {
		coupon, err := findCoupon(ctx, stores.Coupons, couponID)
		if err != nil {
			return err
		}
		if err := coupon.Issue(now); err != nil {
			return err
		}
		if _, err := s.saveCouponIssue(ctx, stores.Issues, couponID, userID, now); err != nil {
			return err
		}
		if err := stores.Coupons.Save(ctx, coupon); err != nil {
			return fmt.Errorf("updating coupon %d: %w", couponID, err)
		}
		if coupon.IsIssueComplete(now) {
			completed = coupon
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("coupon issued. couponId: %d userId: %d", couponID, userID)
	if completed != nil && s.cache != nil {
		s.cache.Put(completed.Snapshot())
		logger.Debug("coupon %d issue complete, snapshot refreshed", couponID)
	}
	return nil
}

// saveCouponIssue records the issue, rejecting a second issue to the same user.
func (s *CouponIssueService) saveCouponIssue(
	ctx context.Context,
	issues driven.CouponIssueStore,
	couponID, userID int64,
	now time.Time,
) (*domain.CouponIssue, error) {
	existing, err := issues.FindFirst(ctx, couponID, userID)
	if err != nil {
		return nil, fmt.Errorf("checking existing issue: %w", err)
	}
	if existing != nil {
		return nil, duplicatedIssue(couponID, userID)
	}

	issue := &domain.CouponIssue{
		CouponID:   couponID,
		UserID:     userID,
		DateIssued: now,
	}
	if err := issues.Save(ctx, issue); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, duplicatedIssue(couponID, userID)
		}
		return nil, fmt.Errorf("saving coupon issue: %w", err)
	}
	return issue, nil
}

func duplicatedIssue(couponID, userID int64) error {
	return domain.NewCouponIssueError(domain.ErrorCodeDuplicatedIssue,
		"coupon already issued. userId: %d, couponId: %d", userID, couponID)
}

// issueLockName names the lock serialising synchronous issues of one coupon.
func issueLockName(couponID int64) string {
	return fmt.Sprintf("lock_issue_%d", couponID)
}
