package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown coupon type or backend name.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLockNotAcquired indicates a named lock could not be obtained within the wait time.
	ErrLockNotAcquired = errors.New("lock not acquired")

	// ErrQueueEmpty indicates the issue request queue has nothing to hand out.
	ErrQueueEmpty = errors.New("issue request queue is empty")
)

// ErrorCode classifies coupon issue failures. The values are part of the
// HTTP contract and are stable.
type ErrorCode string

// Coupon issue error codes.
const (
	ErrorCodeInvalidIssueQuantity ErrorCode = "INVALID_COUPON_ISSUE_QUANTITY"
	ErrorCodeInvalidIssueDate     ErrorCode = "INVALID_COUPON_ISSUE_DATE"
	ErrorCodeCouponNotExist       ErrorCode = "COUPON_NOT_EXIST"
	ErrorCodeDuplicatedIssue      ErrorCode = "DUPLICATED_COUPON_ISSUE"
	ErrorCodeFailIssueRequest     ErrorCode = "FAIL_COUPON_ISSUE_REQUEST"
)

// String returns the string representation.
func (c ErrorCode) String() string {
	return string(c)
}

// Description returns a human-readable description of the code.
func (c ErrorCode) Description() string {
	switch c {
	case ErrorCodeInvalidIssueQuantity:
		return "issue quantity exceeded"
	case ErrorCodeInvalidIssueDate:
		return "outside the issue window"
	case ErrorCodeCouponNotExist:
		return "coupon does not exist"
	case ErrorCodeDuplicatedIssue:
		return "coupon already issued to user"
	case ErrorCodeFailIssueRequest:
		return "coupon issue request failed"
	default:
		return "Unknown"
	}
}

// CouponIssueError is a business rule violation raised while issuing a coupon.
// It is reported to clients rather than treated as a server failure.
type CouponIssueError struct {
	Code    ErrorCode
	Message string
}

// NewCouponIssueError creates a CouponIssueError with a formatted message.
func NewCouponIssueError(code ErrorCode, format string, args ...any) *CouponIssueError {
	return &CouponIssueError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func (e *CouponIssueError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Is matches another *CouponIssueError carrying the same code, so callers can
// write errors.Is(err, &CouponIssueError{Code: ErrorCodeDuplicatedIssue}).
func (e *CouponIssueError) Is(target error) bool {
	t, ok := target.(*CouponIssueError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// IssueErrorCode extracts the ErrorCode from err.
// Returns false if err is not a CouponIssueError.
func IssueErrorCode(err error) (ErrorCode, bool) {
	var issueErr *CouponIssueError
	if errors.As(err, &issueErr) {
		return issueErr.Code, true
	}
	return "", false
}
