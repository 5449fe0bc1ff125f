// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - CouponStore: Coupon policy persistence
//   - CouponIssueStore: Issued coupon persistence
//   - Transactor: Atomic unit of work over the two stores
//   - IssueRequestRepository: Request set and FIFO queue for asynchronous issue
//   - Locker: Named lock with wait and lease
//   - SchedulerStore: Scheduler state and history
//   - ConfigStore: Application configuration
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
