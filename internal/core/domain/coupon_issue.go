package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// CouponIssue records that a user received a coupon.
// A user holds at most one issue per coupon.
type CouponIssue struct {
	ID         int64
	CouponID   int64
	UserID     int64
	DateIssued time.Time
	DateUsed   *time.Time
	Used       bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// IssueRequest is an admitted, not yet fulfilled, request to issue a coupon.
// Its JSON encoding is the payload stored on the issue request queue.
type IssueRequest struct {
	CouponID int64 `json:"couponId"`
	UserID   int64 `json:"userId"`
}

// String returns a log-friendly representation.
func (r IssueRequest) String() string {
	return fmt.Sprintf("IssueRequest[couponId=%d, userId=%d]", r.CouponID, r.UserID)
}

// Encode returns the queue payload for the request.
func (r IssueRequest) Encode() (string, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeIssueRequest parses a queue payload.
func DecodeIssueRequest(payload string) (IssueRequest, error) {
	var r IssueRequest
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		return IssueRequest{}, fmt.Errorf("%w: issue request payload: %v", ErrInvalidInput, err)
	}
	return r, nil
}

// IssueRequestCode is the outcome of an atomic issue request admission.
type IssueRequestCode int

// Admission outcomes. The numeric values are returned by the admission script.
const (
	IssueRequestSuccess          IssueRequestCode = 1
	IssueRequestDuplicated       IssueRequestCode = 2
	IssueRequestQuantityExceeded IssueRequestCode = 3
)

// ParseIssueRequestCode converts a script result to an IssueRequestCode.
func ParseIssueRequestCode(v string) (IssueRequestCode, error) {
	switch v {
	case "1":
		return IssueRequestSuccess, nil
	case "2":
		return IssueRequestDuplicated, nil
	case "3":
		return IssueRequestQuantityExceeded, nil
	default:
		return 0, fmt.Errorf("%w: issue request code %q", ErrInvalidInput, v)
	}
}

// Check converts a non-success code into the matching CouponIssueError.
func (c IssueRequestCode) Check(req IssueRequest) error {
	switch c {
	case IssueRequestSuccess:
		return nil
	case IssueRequestDuplicated:
		return NewCouponIssueError(ErrorCodeDuplicatedIssue,
			"issue already requested. couponId: %d, userId: %d", req.CouponID, req.UserID)
	case IssueRequestQuantityExceeded:
		return NewCouponIssueError(ErrorCodeInvalidIssueQuantity,
			"issue quantity exceeded. couponId: %d, userId: %d", req.CouponID, req.UserID)
	default:
		return NewCouponIssueError(ErrorCodeFailIssueRequest, "input: %s", req)
	}
}
