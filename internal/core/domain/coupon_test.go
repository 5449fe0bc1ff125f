package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func openCoupon(total *int, issued int) *Coupon {
	return &Coupon{
		Title:          "first-come test coupon",
		CouponType:     CouponTypeFirstComeFirstServed,
		TotalQuantity:  total,
		IssuedQuantity: issued,
		DateIssueStart: testNow.Add(-24 * time.Hour),
		DateIssueEnd:   testNow.Add(24 * time.Hour),
	}
}

func requireIssueCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	var issueErr *CouponIssueError
	require.True(t, errors.As(err, &issueErr), "expected CouponIssueError, got %v", err)
	assert.Equal(t, code, issueErr.Code)
}

func TestCoupon_AvailableIssueQuantity(t *testing.T) {
	tests := []struct {
		name   string
		total  *int
		issued int
		want   bool
	}{
		{"remaining quantity", IntPtr(100), 99, true},
		{"exhausted quantity", IntPtr(100), 100, false},
		{"unlimited quantity", nil, 100, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Coupon{TotalQuantity: tt.total, IssuedQuantity: tt.issued}
			assert.Equal(t, tt.want, c.AvailableIssueQuantity())
		})
	}
}

func TestCoupon_AvailableIssueDate(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  bool
	}{
		{"window started", testNow.Add(-24 * time.Hour), testNow.Add(24 * time.Hour), true},
		{"window not started", testNow.Add(24 * time.Hour), testNow.Add(48 * time.Hour), false},
		{"window ended", testNow.Add(-48 * time.Hour), testNow.Add(-24 * time.Hour), false},
		{"start boundary is exclusive", testNow, testNow.Add(time.Hour), false},
		{"end boundary is exclusive", testNow.Add(-time.Hour), testNow, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Coupon{DateIssueStart: tt.start, DateIssueEnd: tt.end}
			assert.Equal(t, tt.want, c.AvailableIssueDate(testNow))
		})
	}
}

func TestCoupon_Issue_Success(t *testing.T) {
	c := openCoupon(IntPtr(100), 99)

	err := c.Issue(testNow)

	require.NoError(t, err)
	assert.Equal(t, 100, c.IssuedQuantity)
}

func TestCoupon_Issue_QuantityExceeded(t *testing.T) {
	c := openCoupon(IntPtr(100), 100)

	err := c.Issue(testNow)

	requireIssueCode(t, err, ErrorCodeInvalidIssueQuantity)
	assert.Equal(t, 100, c.IssuedQuantity)
}

func TestCoupon_Issue_InvalidDate(t *testing.T) {
	c := openCoupon(IntPtr(100), 0)
	c.DateIssueStart = testNow.Add(24 * time.Hour)
	c.DateIssueEnd = testNow.Add(48 * time.Hour)

	err := c.Issue(testNow)

	requireIssueCode(t, err, ErrorCodeInvalidIssueDate)
	assert.Equal(t, 0, c.IssuedQuantity)
}

func TestCoupon_Issue_QuantityCheckedBeforeDate(t *testing.T) {
	c := openCoupon(IntPtr(1), 1)
	c.DateIssueEnd = testNow.Add(-time.Hour)

	requireIssueCode(t, c.Issue(testNow), ErrorCodeInvalidIssueQuantity)
}

func TestCoupon_IsIssueComplete(t *testing.T) {
	t.Run("window ended", func(t *testing.T) {
		c := openCoupon(IntPtr(100), 0)
		c.DateIssueStart = testNow.Add(-48 * time.Hour)
		c.DateIssueEnd = testNow.Add(-24 * time.Hour)
		assert.True(t, c.IsIssueComplete(testNow))
	})

	t.Run("quantity exhausted", func(t *testing.T) {
		c := openCoupon(IntPtr(100), 100)
		assert.True(t, c.IsIssueComplete(testNow))
	})

	t.Run("window open and quantity left", func(t *testing.T) {
		c := openCoupon(IntPtr(100), 0)
		assert.False(t, c.IsIssueComplete(testNow))
	})
}

func TestCoupon_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, openCoupon(IntPtr(10), 0).Validate())
	})

	t.Run("missing title", func(t *testing.T) {
		c := openCoupon(nil, 0)
		c.Title = " "
		assert.ErrorIs(t, c.Validate(), ErrInvalidInput)
	})

	t.Run("unknown type", func(t *testing.T) {
		c := openCoupon(nil, 0)
		c.CouponType = "RAFFLE"
		assert.ErrorIs(t, c.Validate(), ErrUnsupportedType)
	})

	t.Run("negative total", func(t *testing.T) {
		assert.ErrorIs(t, openCoupon(IntPtr(-1), 0).Validate(), ErrInvalidInput)
	})

	t.Run("inverted window", func(t *testing.T) {
		c := openCoupon(nil, 0)
		c.DateIssueStart, c.DateIssueEnd = c.DateIssueEnd, c.DateIssueStart
		assert.ErrorIs(t, c.Validate(), ErrInvalidInput)
	})

	t.Run("negative discount", func(t *testing.T) {
		c := openCoupon(nil, 0)
		c.DiscountAmount = -100
		assert.ErrorIs(t, c.Validate(), ErrInvalidInput)
	})
}

func TestCoupon_Snapshot(t *testing.T) {
	c := openCoupon(IntPtr(10), 10)
	c.ID = 42

	snap := c.Snapshot()

	assert.Equal(t, int64(42), snap.ID)
	assert.False(t, snap.AvailableIssueQuantity)
	require.NotNil(t, snap.TotalQuantity)
	assert.Equal(t, 10, *snap.TotalQuantity)

	// The snapshot owns its quantity pointer.
	*c.TotalQuantity = 20
	assert.Equal(t, 10, *snap.TotalQuantity)
}

func TestCouponSnapshot_CheckIssuable(t *testing.T) {
	t.Run("issuable", func(t *testing.T) {
		assert.NoError(t, openCoupon(IntPtr(10), 0).Snapshot().CheckIssuable(testNow))
	})

	t.Run("sold out", func(t *testing.T) {
		requireIssueCode(t, openCoupon(IntPtr(10), 10).Snapshot().CheckIssuable(testNow),
			ErrorCodeInvalidIssueQuantity)
	})

	t.Run("window closed", func(t *testing.T) {
		c := openCoupon(IntPtr(10), 0)
		c.DateIssueStart = testNow.Add(-72 * time.Hour)
		c.DateIssueEnd = testNow.Add(-24 * time.Hour)
		requireIssueCode(t, c.Snapshot().CheckIssuable(testNow), ErrorCodeInvalidIssueDate)
	})
}

func TestIssueRequest_EncodeDecode(t *testing.T) {
	payload, err := IssueRequest{CouponID: 1, UserID: 2}.Encode()
	require.NoError(t, err)
	assert.Equal(t, `{"couponId":1,"userId":2}`, payload)

	req, err := DecodeIssueRequest(payload)
	require.NoError(t, err)
	assert.Equal(t, IssueRequest{CouponID: 1, UserID: 2}, req)

	_, err = DecodeIssueRequest("not-json")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestIssueRequestCode(t *testing.T) {
	req := IssueRequest{CouponID: 1, UserID: 2}

	code, err := ParseIssueRequestCode("1")
	require.NoError(t, err)
	assert.NoError(t, code.Check(req))

	code, err = ParseIssueRequestCode("2")
	require.NoError(t, err)
	requireIssueCode(t, code.Check(req), ErrorCodeDuplicatedIssue)

	code, err = ParseIssueRequestCode("3")
	require.NoError(t, err)
	requireIssueCode(t, code.Check(req), ErrorCodeInvalidIssueQuantity)

	_, err = ParseIssueRequestCode("9")
	assert.ErrorIs(t, err, ErrInvalidInput)

	requireIssueCode(t, IssueRequestCode(9).Check(req), ErrorCodeFailIssueRequest)
}
