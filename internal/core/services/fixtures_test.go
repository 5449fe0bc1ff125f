package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/coupon/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/coupon/internal/core/domain"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

var testLock = domain.LockSettings{Wait: time.Second, Lease: time.Second}

// issueFixture wires the issue services over in-memory adapters with a fixed clock.
type issueFixture struct {
	coupons  *memory.CouponStore
	issues   *memory.CouponIssueStore
	requests *memory.IssueRequestRepository
	locker   *memory.Locker
	cache    *CouponCacheService
	issuer   *CouponIssueService
	asyncV1  *AsyncCouponIssueServiceV1
	asyncV2  *AsyncCouponIssueServiceV2
	listener *CouponIssueListener
}

func newIssueFixture(t *testing.T) *issueFixture {
	t.Helper()
	f := &issueFixture{
		coupons:  memory.NewCouponStore(),
		issues:   memory.NewCouponIssueStore(),
		requests: memory.NewIssueRequestRepository(),
		locker:   memory.NewLocker(),
	}
	f.cache = NewCouponCacheService(f.coupons, domain.CacheSettings{Size: 16, TTL: time.Hour})
	f.issuer = NewCouponIssueService(memory.NewTransactor(f.coupons, f.issues), f.locker, f.cache, testLock)
	f.issuer.now = func() time.Time { return testNow }
	f.asyncV1 = NewAsyncCouponIssueServiceV1(f.cache, f.requests, f.locker, testLock)
	f.asyncV1.now = func() time.Time { return testNow }
	f.asyncV2 = NewAsyncCouponIssueServiceV2(f.cache, f.requests)
	f.asyncV2.now = func() time.Time { return testNow }
	f.listener = NewCouponIssueListener(f.requests, f.issuer)
	return f
}

// addCoupon stores a coupon whose issue window is open at testNow.
func (f *issueFixture) addCoupon(t *testing.T, total *int) *domain.Coupon {
	t.Helper()
	coupon := &domain.Coupon{
		Title:              "Opening sale",
		CouponType:         domain.CouponTypeFirstComeFirstServed,
		TotalQuantity:      total,
		DiscountAmount:     100000,
		MinAvailableAmount: 110000,
		DateIssueStart:     testNow.Add(-24 * time.Hour),
		DateIssueEnd:       testNow.Add(24 * time.Hour),
	}
	require.NoError(t, f.coupons.Save(context.Background(), coupon))
	return coupon
}

// requireIssueCode asserts err is a CouponIssueError with code.
func requireIssueCode(t *testing.T, err error, code domain.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	got, ok := domain.IssueErrorCode(err)
	require.True(t, ok, "expected CouponIssueError, got %v", err)
	require.Equal(t, code, got)
}
