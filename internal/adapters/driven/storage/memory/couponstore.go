package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/coupon/internal/core/domain"
	"github.com/custodia-labs/coupon/internal/core/ports/driven"
)

// Ensure the stores implement the interfaces.
var (
	_ driven.CouponStore      = (*CouponStore)(nil)
	_ driven.CouponIssueStore = (*CouponIssueStore)(nil)
	_ driven.Transactor       = (*Transactor)(nil)
)

// CouponStore is an in-memory implementation of driven.CouponStore.
type CouponStore struct {
	mu      sync.RWMutex
	nextID  int64
	coupons map[int64]domain.Coupon
}

// NewCouponStore creates a new in-memory coupon store.
func NewCouponStore() *CouponStore {
	return &CouponStore{
		coupons: make(map[int64]domain.Coupon),
	}
}

// Save stores or updates a coupon.
func (s *CouponStore) Save(_ context.Context, coupon *domain.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	if coupon.ID == 0 {
		s.nextID++
		coupon.ID = s.nextID
		coupon.CreatedAt = now
	} else if coupon.ID > s.nextID {
		s.nextID = coupon.ID
	}
	coupon.UpdatedAt = now

	s.coupons[coupon.ID] = copyCoupon(*coupon)
	return nil
}

// Get retrieves a coupon by ID.
func (s *CouponStore) Get(_ context.Context, id int64) (*domain.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	coupon, ok := s.coupons[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	c := copyCoupon(coupon)
	return &c, nil
}

// List returns all coupons ordered by ID.
func (s *CouponStore) List(_ context.Context) ([]domain.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Coupon, 0, len(s.coupons))
	for _, coupon := range s.coupons {
		result = append(result, copyCoupon(coupon))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// copyCoupon detaches the TotalQuantity pointer from the caller's value.
func copyCoupon(c domain.Coupon) domain.Coupon {
	if c.TotalQuantity != nil {
		v := *c.TotalQuantity
		c.TotalQuantity = &v
	}
	return c
}

type issueKey struct {
	couponID int64
	userID   int64
}

// CouponIssueStore is an in-memory implementation of driven.CouponIssueStore.
type CouponIssueStore struct {
	mu     sync.RWMutex
	nextID int64
	issues map[issueKey]domain.CouponIssue
}

// NewCouponIssueStore creates a new in-memory coupon issue store.
func NewCouponIssueStore() *CouponIssueStore {
	return &CouponIssueStore{
		issues: make(map[issueKey]domain.CouponIssue),
	}
}

// Save inserts an issue.
func (s *CouponIssueStore) Save(_ context.Context, issue *domain.CouponIssue) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := issueKey{couponID: issue.CouponID, userID: issue.UserID}
	if _, exists := s.issues[key]; exists {
		return domain.ErrAlreadyExists
	}

	now := time.Now().UTC()
	s.nextID++
	issue.ID = s.nextID
	issue.CreatedAt = now
	issue.UpdatedAt = now
	if issue.DateIssued.IsZero() {
		issue.DateIssued = now
	}
	s.issues[key] = *issue
	return nil
}

// FindFirst returns the issue of couponID held by userID, or nil.
func (s *CouponIssueStore) FindFirst(_ context.Context, couponID, userID int64) (*domain.CouponIssue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	issue, ok := s.issues[issueKey{couponID: couponID, userID: userID}]
	if !ok {
		return nil, nil
	}
	return &issue, nil
}

// CountByCoupon returns how many issues exist for a coupon.
func (s *CouponIssueStore) CountByCoupon(_ context.Context, couponID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for key := range s.issues {
		if key.couponID == couponID {
			count++
		}
	}
	return count, nil
}

// Transactor serialises units of work over the in-memory stores.
// Writes made before fn fails are not rolled back; callers validate
// before writing.
type Transactor struct {
	mu      sync.Mutex
	coupons *CouponStore
	issues  *CouponIssueStore
}

// NewTransactor creates a transactor over the given stores.
func NewTransactor(coupons *CouponStore, issues *CouponIssueStore) *Transactor {
	return &Transactor{coupons: coupons, issues: issues}
}

// InTx runs fn while holding the transactor's lock.
func (t *Transactor) InTx(ctx context.Context, fn func(ctx context.Context, stores driven.TxStores) error) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return fn(ctx, driven.TxStores{Coupons: t.coupons, Issues: t.issues})
}
