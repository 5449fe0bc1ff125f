package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrLockNotAcquired", ErrLockNotAcquired},
		{"ErrQueueEmpty", ErrQueueEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrNotFound(t *testing.T) {
	assert.Equal(t, "not found", ErrNotFound.Error())
	assert.True(t, errors.Is(ErrNotFound, ErrNotFound))
	assert.False(t, errors.Is(ErrNotFound, ErrAlreadyExists))
}

func TestCouponIssueError_Error(t *testing.T) {
	err := NewCouponIssueError(ErrorCodeCouponNotExist, "coupon %d", 7)

	assert.Equal(t, "[COUPON_NOT_EXIST] coupon 7", err.Error())
	assert.Equal(t, "coupon 7", err.Message)
}

func TestCouponIssueError_IsMatchesCode(t *testing.T) {
	err := fmt.Errorf("issuing: %w", NewCouponIssueError(ErrorCodeDuplicatedIssue, "dup"))

	assert.True(t, errors.Is(err, &CouponIssueError{Code: ErrorCodeDuplicatedIssue}))
	assert.False(t, errors.Is(err, &CouponIssueError{Code: ErrorCodeInvalidIssueDate}))
	assert.False(t, errors.Is(err, ErrNotFound))
}

func TestIssueErrorCode(t *testing.T) {
	code, ok := IssueErrorCode(fmt.Errorf("wrapped: %w",
		NewCouponIssueError(ErrorCodeInvalidIssueQuantity, "full")))
	assert.True(t, ok)
	assert.Equal(t, ErrorCodeInvalidIssueQuantity, code)

	_, ok = IssueErrorCode(errors.New("plain"))
	assert.False(t, ok)
}

func TestErrorCode_Description(t *testing.T) {
	codes := []ErrorCode{
		ErrorCodeInvalidIssueQuantity,
		ErrorCodeInvalidIssueDate,
		ErrorCodeCouponNotExist,
		ErrorCodeDuplicatedIssue,
		ErrorCodeFailIssueRequest,
	}
	for _, c := range codes {
		assert.NotEqual(t, "Unknown", c.Description(), c.String())
	}
	assert.Equal(t, "Unknown", ErrorCode("OTHER").Description())
}
