// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The issue paths are:
//
//   - CouponIssueService: synchronous issue inside a store transaction
//   - AsyncCouponIssueServiceV1: lock, check request set, enqueue
//   - AsyncCouponIssueServiceV2: one atomic admission call, no lock
//   - CouponIssueListener: drains the queue through CouponIssueService
package services
