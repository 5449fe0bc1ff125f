// Package domain defines the core business entities for the coupon service.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Coupon: A coupon policy with its quantity and issue window rules
//   - CouponSnapshot: The cached view used to admit asynchronous requests
//   - CouponIssue: A coupon held by a user
//   - IssueRequest: An admitted request waiting on the issue queue
//   - CouponIssueError: A business rule violation with a stable ErrorCode
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
