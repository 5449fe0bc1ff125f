package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/coupon/internal/core/domain"
	"github.com/custodia-labs/coupon/internal/core/ports/driven"
	"github.com/custodia-labs/coupon/internal/core/ports/driving"
	"github.com/custodia-labs/coupon/internal/logger"
)

// Ensure CouponIssueListener implements the interface.
var _ driving.IssueListener = (*CouponIssueListener)(nil)

// CouponIssueListener fulfils queued issue requests in enqueue order.
//
// The head of the queue is only removed after it has been handled, so an
// infrastructure failure leaves it in place for the next drain. A request
// rejected by a business rule is logged and dropped.
type CouponIssueListener struct {
	requests driven.IssueRequestRepository
	issuer   driving.CouponIssuer
}

// NewCouponIssueListener creates a queue consumer.
func NewCouponIssueListener(requests driven.IssueRequestRepository, issuer driving.CouponIssuer) *CouponIssueListener {
	return &CouponIssueListener{
		requests: requests,
		issuer:   issuer,
	}
}

// Consume drains the queue and returns the number of requests handled.
func (l *CouponIssueListener) Consume(ctx context.Context) (int, error) {
	logger.Debug("listen...")
	processed := 0
	for {
		if err := ctx.Err(); err != nil {
			return processed, err
		}

		size, err := l.requests.QueueSize(ctx)
		if err != nil {
			return processed, fmt.Errorf("reading queue size: %w", err)
		}
		if size == 0 {
			return processed, nil
		}

		req, err := l.requests.Peek(ctx)
		switch {
		case errors.Is(err, domain.ErrQueueEmpty):
			return processed, nil
		case errors.Is(err, domain.ErrInvalidInput):
			logger.Error("dropping malformed issue request: %v", err)
			if err := l.requests.Pop(ctx); err != nil {
				return processed, fmt.Errorf("removing malformed request: %w", err)
			}
			continue
		case err != nil:
			return processed, fmt.Errorf("reading queue head: %w", err)
		}

		if err := l.handle(ctx, req); err != nil {
			return processed, err
		}
		if err := l.requests.Pop(ctx); err != nil {
			return processed, fmt.Errorf("removing %s: %w", req, err)
		}
		processed++
	}
}

// handle issues one request. Only infrastructure failures are returned.
func (l *CouponIssueListener) handle(ctx context.Context, req domain.IssueRequest) error {
	logger.Info("issue start target: %s", req)
	err := l.issuer.Issue(ctx, req.CouponID, req.UserID)
	if err == nil {
		logger.Info("issue done target: %s", req)
		return nil
	}
	if code, ok := domain.IssueErrorCode(err); ok {
		logger.Warn("issue rejected target: %s code: %s: %v", req, code, err)
		return nil
	}
	return fmt.Errorf("issuing %s: %w", req, err)
}
