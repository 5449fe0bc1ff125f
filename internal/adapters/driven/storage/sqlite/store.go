package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/custodia-labs/coupon/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/coupon/internal/core/domain"
	"github.com/custodia-labs/coupon/internal/core/ports/driven"
)

// timeLayout is the text encoding of every timestamp column. Fractional
// seconds are fixed width so that columns sort chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a unified SQLite-based storage that provides access to
// all store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.coupon/data/coupon.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".coupon", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "coupon.db")

	// Transactions take the write lock up front so concurrent issuers
	// queue on busy_timeout instead of failing on lock upgrade.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// CouponStore returns a CouponStore interface backed by this store.
func (s *Store) CouponStore() driven.CouponStore {
	return &couponStore{q: s.db}
}

// CouponIssueStore returns a CouponIssueStore interface backed by this store.
func (s *Store) CouponIssueStore() driven.CouponIssueStore {
	return &couponIssueStore{q: s.db}
}

// Transactor returns a Transactor that binds stores to a database transaction.
func (s *Store) Transactor() driven.Transactor {
	return &transactor{db: s.db}
}

// SchedulerStore returns a SchedulerStore interface backed by this store.
func (s *Store) SchedulerStore() driven.SchedulerStore {
	return &schedulerStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys fs.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if err := s.applyMigration(version, string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// applyMigration runs one migration and records its version atomically.
func (s *Store) applyMigration(version int, content string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(content); err != nil {
		return err
	}
	if _, err := tx.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

// ==================== Transactor ====================

// transactor implements driven.Transactor over *sql.Tx.
type transactor struct {
	db *sql.DB
}

var _ driven.Transactor = (*transactor)(nil)

// InTx runs fn with tx-bound stores. The transaction commits when fn
// returns nil and rolls back otherwise.
func (t *transactor) InTx(ctx context.Context, fn func(ctx context.Context, stores driven.TxStores) error) error {
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}

	stores := driven.TxStores{
		Coupons: &couponStore{q: tx},
		Issues:  &couponIssueStore{q: tx},
	}
	if err := fn(ctx, stores); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rolling back transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ==================== Coupon Store ====================

// couponStore implements driven.CouponStore.
type couponStore struct {
	q querier
}

var _ driven.CouponStore = (*couponStore)(nil)

// Save inserts a coupon when its ID is zero and updates it otherwise.
func (s *couponStore) Save(ctx context.Context, coupon *domain.Coupon) error {
	if coupon == nil {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	if coupon.ID == 0 {
		coupon.CreatedAt = now
		coupon.UpdatedAt = now
		res, err := s.q.ExecContext(ctx, `
			INSERT INTO coupons (title, coupon_type, total_quantity, issued_quantity, discount_amount,
				min_available_amount, date_issue_start, date_issue_end, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, coupon.Title, string(coupon.CouponType), nullInt(coupon.TotalQuantity),
			coupon.IssuedQuantity, coupon.DiscountAmount, coupon.MinAvailableAmount,
			formatTime(coupon.DateIssueStart), formatTime(coupon.DateIssueEnd),
			formatTime(coupon.CreatedAt), formatTime(coupon.UpdatedAt))
		if err != nil {
			return fmt.Errorf("inserting coupon: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading coupon id: %w", err)
		}
		coupon.ID = id
		return nil
	}

	coupon.UpdatedAt = now
	res, err := s.q.ExecContext(ctx, `
		UPDATE coupons SET
			title = ?, coupon_type = ?, total_quantity = ?, issued_quantity = ?,
			discount_amount = ?, min_available_amount = ?,
			date_issue_start = ?, date_issue_end = ?, updated_at = ?
		WHERE id = ?
	`, coupon.Title, string(coupon.CouponType), nullInt(coupon.TotalQuantity),
		coupon.IssuedQuantity, coupon.DiscountAmount, coupon.MinAvailableAmount,
		formatTime(coupon.DateIssueStart), formatTime(coupon.DateIssueEnd),
		formatTime(coupon.UpdatedAt), coupon.ID)
	if err != nil {
		return fmt.Errorf("updating coupon: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating coupon: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Get retrieves a coupon by ID.
func (s *couponStore) Get(ctx context.Context, id int64) (*domain.Coupon, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, title, coupon_type, total_quantity, issued_quantity, discount_amount,
			min_available_amount, date_issue_start, date_issue_end, created_at, updated_at
		FROM coupons WHERE id = ?
	`, id)

	coupon, err := scanCoupon(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return coupon, nil
}

// List returns all coupons ordered by ID.
func (s *couponStore) List(ctx context.Context) ([]domain.Coupon, error) {
	rows, err := s.q.QueryContext(ctx, `
		SELECT id, title, coupon_type, total_quantity, issued_quantity, discount_amount,
			min_available_amount, date_issue_start, date_issue_end, created_at, updated_at
		FROM coupons ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying coupons: %w", err)
	}
	defer rows.Close()

	var coupons []domain.Coupon //nolint:prealloc // size unknown from query
	for rows.Next() {
		coupon, err := scanCoupon(rows)
		if err != nil {
			return nil, err
		}
		coupons = append(coupons, *coupon)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating coupons: %w", err)
	}

	return coupons, nil
}

// ==================== Coupon Issue Store ====================

// couponIssueStore implements driven.CouponIssueStore.
type couponIssueStore struct {
	q querier
}

var _ driven.CouponIssueStore = (*couponIssueStore)(nil)

// Save inserts an issue, assigning its ID.
func (s *couponIssueStore) Save(ctx context.Context, issue *domain.CouponIssue) error {
	if issue == nil {
		return domain.ErrInvalidInput
	}

	now := time.Now().UTC()
	issue.CreatedAt = now
	issue.UpdatedAt = now
	if issue.DateIssued.IsZero() {
		issue.DateIssued = now
	}

	var dateUsed any
	if issue.DateUsed != nil {
		dateUsed = formatTime(*issue.DateUsed)
	}

	res, err := s.q.ExecContext(ctx, `
		INSERT INTO coupon_issues (coupon_id, user_id, date_issued, date_used, used, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, issue.CouponID, issue.UserID, formatTime(issue.DateIssued), dateUsed,
		boolToInt(issue.Used), formatTime(issue.CreatedAt), formatTime(issue.UpdatedAt))
	if isUniqueViolation(err) {
		return domain.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("inserting coupon issue: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading coupon issue id: %w", err)
	}
	issue.ID = id
	return nil
}

// FindFirst returns the issue of couponID held by userID.
// Returns nil and no error if there is none.
func (s *couponIssueStore) FindFirst(ctx context.Context, couponID, userID int64) (*domain.CouponIssue, error) {
	row := s.q.QueryRowContext(ctx, `
		SELECT id, coupon_id, user_id, date_issued, date_used, used, created_at, updated_at
		FROM coupon_issues WHERE coupon_id = ? AND user_id = ?
		ORDER BY id LIMIT 1
	`, couponID, userID)

	var issue domain.CouponIssue
	var dateIssued, createdAt, updatedAt string
	var dateUsed sql.NullString
	var used int

	err := row.Scan(&issue.ID, &issue.CouponID, &issue.UserID,
		&dateIssued, &dateUsed, &used, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning coupon issue: %w", err)
	}

	issue.DateIssued = parseTime(dateIssued)
	if dateUsed.Valid {
		t := parseTime(dateUsed.String)
		issue.DateUsed = &t
	}
	issue.Used = used == 1
	issue.CreatedAt = parseTime(createdAt)
	issue.UpdatedAt = parseTime(updatedAt)

	return &issue, nil
}

// CountByCoupon returns how many issues exist for a coupon.
func (s *couponIssueStore) CountByCoupon(ctx context.Context, couponID int64) (int, error) {
	var count int
	err := s.q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM coupon_issues WHERE coupon_id = ?", couponID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting coupon issues: %w", err)
	}
	return count, nil
}

// ==================== Helper Functions ====================

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanCoupon scans a coupon row. sql.ErrNoRows is returned unwrapped.
func scanCoupon(row rowScanner) (*domain.Coupon, error) {
	var coupon domain.Coupon
	var couponType string
	var totalQuantity sql.NullInt64
	var dateIssueStart, dateIssueEnd, createdAt, updatedAt string

	err := row.Scan(&coupon.ID, &coupon.Title, &couponType, &totalQuantity,
		&coupon.IssuedQuantity, &coupon.DiscountAmount, &coupon.MinAvailableAmount,
		&dateIssueStart, &dateIssueEnd, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning coupon: %w", err)
	}

	coupon.CouponType = domain.CouponType(couponType)
	if totalQuantity.Valid {
		coupon.TotalQuantity = domain.IntPtr(int(totalQuantity.Int64))
	}
	coupon.DateIssueStart = parseTime(dateIssueStart)
	coupon.DateIssueEnd = parseTime(dateIssueEnd)
	coupon.CreatedAt = parseTime(createdAt)
	coupon.UpdatedAt = parseTime(updatedAt)

	return &coupon, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// nullInt returns nil for a nil pointer, otherwise the value.
func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

// formatTime encodes a time as UTC text.
func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// parseTime decodes a timestamp column. Returns zero time on parse error.
func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
