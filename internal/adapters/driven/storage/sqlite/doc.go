// Package sqlite provides a unified SQLite-based implementation of driven port interfaces.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO. It implements multiple store interfaces through a single database:
//
//   - CouponStore: Coupon policy persistence
//   - CouponIssueStore: Issued coupon persistence, unique per (coupon, user)
//   - Transactor: Binds both stores to one transaction for a synchronous issue
//   - SchedulerStore: Consumer task state and run history
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files;
// applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.coupon/data/coupon.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. Transactions begin IMMEDIATE so
// writers serialise on the SQLite write lock in WAL mode.
package sqlite
