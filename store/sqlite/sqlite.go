/*
Package sqlite provides the SQLite-backed persistence layer.

PURPOSE:
  Implements storage for everything around the bonus engine: participants,
  products, category/tier configuration, receipts, monthly forecasts, and
  saved payout reports. The engine itself never touches this package - the
  API layer loads data here, hands plain values to bonus.Orchestrator, and
  persists the result.

KEY TABLES:
  participants:     Staff who earn bonuses
  products:         Sellable items, each in one category
  categories:       Bonus configuration (aggregation mode)
  tiers:            Per-category bonus ladder
  receipts:         Immutable historical sales (append-only)
  forecasts:        One revenue target per (year, month)
  payout_reports:   Persisted calculation results (JSON)
  calculation_runs: Scheduler audit trail

SNAPSHOT SEMANTICS:
  ListCategories reads categories and tiers under one read lock so a
  calculation always sees a consistent configuration snapshot, even while
  an admin is editing tiers (see SaveCategory, which replaces a category's
  tiers atomically in one transaction).

DECIMALS:
  Money columns are stored as TEXT holding decimal strings, never floats.
  Parsing goes through decimal.NewFromString on the way out.

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block
  and crash recovery is cleaner.

USAGE:
  store, err := sqlite.New("./data/topshelf.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - bonus/orchestrator.go: Consumes the shapes loaded here
  - api/handlers.go: The primary caller of this package
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/Imani-Maua/TopShelf/bonus"
)

// Store wraps the SQLite database handle.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a store backed by the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS participants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		aggregation_mode TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS tiers (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category_id TEXT NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
		min_quantity INTEGER NOT NULL,
		bonus_percentage TEXT NOT NULL,
		UNIQUE(category_id, min_quantity)
	);

	CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		category_id TEXT NOT NULL REFERENCES categories(id)
	);

	-- Receipts are historical facts: inserted once, never updated.
	CREATE TABLE IF NOT EXISTS receipts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		participant_id TEXT NOT NULL REFERENCES participants(id),
		product_id TEXT NOT NULL REFERENCES products(id),
		price TEXT NOT NULL,
		sold_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_receipts_sold_at ON receipts(sold_at);
	CREATE INDEX IF NOT EXISTS idx_receipts_participant ON receipts(participant_id, sold_at);

	CREATE TABLE IF NOT EXISTS forecasts (
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		target_amount TEXT NOT NULL,
		threshold TEXT NOT NULL,
		PRIMARY KEY (year, month)
	);

	CREATE TABLE IF NOT EXISTS payout_reports (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		report_json TEXT NOT NULL,
		created_at TEXT NOT NULL DEFAULT (datetime('now'))
	);
	CREATE INDEX IF NOT EXISTS idx_payout_reports_period ON payout_reports(year, month);

	CREATE TABLE IF NOT EXISTS calculation_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		trigger_source TEXT NOT NULL,
		status TEXT NOT NULL,
		detail TEXT,
		ran_at TEXT NOT NULL DEFAULT (datetime('now'))
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// RECORD TYPES
// =============================================================================

// Participant is a staff member eligible for bonuses.
type Participant struct {
	ID        string
	Name      string
	Email     string
	CreatedAt time.Time
}

// Product is a sellable item assigned to one bonus category.
type Product struct {
	ID         string
	Name       string
	CategoryID string
}

// ReportRecord is a persisted payout report.
type ReportRecord struct {
	ID        int64
	Year      int
	Month     time.Month
	JSON      string
	CreatedAt time.Time
}

// CalculationRun records one scheduler or API triggered calculation.
type CalculationRun struct {
	ID      int64
	Year    int
	Month   time.Month
	Trigger string
	Status  string
	Detail  string
	RanAt   time.Time
}

// =============================================================================
// PARTICIPANTS
// =============================================================================

// SaveParticipant inserts or updates a participant.
func (s *Store) SaveParticipant(ctx context.Context, p Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participants (id, name, email) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email`,
		p.ID, p.Name, p.Email)
	return err
}

// GetParticipant returns a participant or nil if not found.
func (s *Store) GetParticipant(ctx context.Context, id string) (*Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p Participant
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, COALESCE(email, ''), created_at FROM participants WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Email, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
	return &p, nil
}

// ListParticipants returns all participants ordered by name.
func (s *Store) ListParticipants(ctx context.Context) ([]Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, COALESCE(email, ''), created_at FROM participants ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Participant
	for rows.Next() {
		var p Participant
		var createdAt string
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// PRODUCTS
// =============================================================================

// SaveProduct inserts or updates a product.
func (s *Store) SaveProduct(ctx context.Context, p Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, name, category_id) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, category_id = excluded.category_id`,
		p.ID, p.Name, p.CategoryID)
	return err
}

// ListProducts returns all products ordered by name.
func (s *Store) ListProducts(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, category_id FROM products ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.CategoryID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// =============================================================================
// CATEGORIES + TIERS
// =============================================================================

// SaveCategory inserts or updates a category and replaces its tiers
// atomically in one transaction. The configuration must already have been
// validated (see factory.CategoryFactory); the database only enforces the
// per-category minQuantity uniqueness.
func (s *Store) SaveCategory(ctx context.Context, c bonus.Category) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO categories (id, name, aggregation_mode) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, aggregation_mode = excluded.aggregation_mode`,
		string(c.ID), c.Name, c.Mode.String())
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM tiers WHERE category_id = ?`, string(c.ID)); err != nil {
		return err
	}
	for _, t := range c.Tiers {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tiers (category_id, min_quantity, bonus_percentage) VALUES (?, ?, ?)`,
			string(c.ID), t.MinQuantity, t.BonusPercentage.String())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// DeleteCategory removes a category and, via cascade, its tiers.
func (s *Store) DeleteCategory(ctx context.Context, id bonus.CategoryID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, string(id))
	return err
}

// GetCategory returns one category with its tiers, or nil if not found.
func (s *Store) GetCategory(ctx context.Context, id bonus.CategoryID) (*bonus.Category, error) {
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if categories[i].ID == id {
			return &categories[i], nil
		}
	}
	return nil, nil
}

// ListCategories returns every category with its tiers as one consistent
// snapshot: both queries run under the same read lock.
func (s *Store) ListCategories(ctx context.Context) ([]bonus.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id, name, aggregation_mode FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []bonus.Category
	index := make(map[bonus.CategoryID]int)
	for rows.Next() {
		var c bonus.Category
		var id, mode string
		if err := rows.Scan(&id, &c.Name, &mode); err != nil {
			return nil, err
		}
		c.ID = bonus.CategoryID(id)
		// Stored modes were validated on the way in; an unknown value here
		// surfaces later as a ConfigurationError from the engine's guard.
		c.Mode, _ = bonus.ParseAggregationMode(mode)
		index[c.ID] = len(categories)
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	tierRows, err := s.db.QueryContext(ctx,
		`SELECT category_id, min_quantity, bonus_percentage FROM tiers ORDER BY category_id, min_quantity`)
	if err != nil {
		return nil, err
	}
	defer tierRows.Close()

	for tierRows.Next() {
		var categoryID, percentage string
		var minQty int
		if err := tierRows.Scan(&categoryID, &minQty, &percentage); err != nil {
			return nil, err
		}
		pct, err := decimal.NewFromString(percentage)
		if err != nil {
			return nil, fmt.Errorf("corrupt bonus_percentage for category %s: %w", categoryID, err)
		}
		if i, ok := index[bonus.CategoryID(categoryID)]; ok {
			categories[i].Tiers = append(categories[i].Tiers, bonus.Tier{
				MinQuantity:     minQty,
				BonusPercentage: pct,
			})
		}
	}
	return categories, tierRows.Err()
}

// =============================================================================
// RECEIPTS
// =============================================================================

// InsertReceipts appends a batch of receipts atomically. Receipts are
// immutable history: there is no update or delete path.
func (s *Store) InsertReceipts(ctx context.Context, receipts []bonus.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO receipts (participant_id, product_id, price, sold_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range receipts {
		_, err := stmt.ExecContext(ctx,
			string(r.ParticipantID), string(r.ProductID),
			r.Price.String(), r.Date.UTC().Format("2006-01-02"))
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// ReceiptsForPeriod returns the receipts sold in the given month, joined
// with participant, product, and category names - the exact shape the
// engine takes as input.
func (s *Store) ReceiptsForPeriod(ctx context.Context, year int, month time.Month) ([]bonus.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	from, to := monthBounds(year, month)
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.participant_id, pa.name, r.product_id, pr.name,
		       pr.category_id, c.name, r.price, r.sold_at
		FROM receipts r
		JOIN participants pa ON pa.id = r.participant_id
		JOIN products pr     ON pr.id = r.product_id
		JOIN categories c    ON c.id = pr.category_id
		WHERE r.sold_at >= ? AND r.sold_at < ?
		ORDER BY r.id`,
		from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []bonus.Receipt
	for rows.Next() {
		var r bonus.Receipt
		var participantID, productID, categoryID, price, soldAt string
		if err := rows.Scan(&participantID, &r.ParticipantName, &productID, &r.ProductName,
			&categoryID, &r.CategoryName, &price, &soldAt); err != nil {
			return nil, err
		}
		r.ParticipantID = bonus.ParticipantID(participantID)
		r.ProductID = bonus.ProductID(productID)
		r.CategoryID = bonus.CategoryID(categoryID)
		r.Price, err = decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("corrupt price on receipt: %w", err)
		}
		r.Date, _ = time.Parse("2006-01-02", soldAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// TotalRevenueForPeriod sums receipt prices for the month. Used as the
// default when the caller does not supply an externally computed figure.
func (s *Store) TotalRevenueForPeriod(ctx context.Context, year int, month time.Month) (decimal.Decimal, error) {
	receipts, err := s.ReceiptsForPeriod(ctx, year, month)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, r := range receipts {
		total = total.Add(r.Price)
	}
	return total, nil
}

func monthBounds(year int, month time.Month) (string, string) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return start.Format("2006-01-02"), start.AddDate(0, 1, 0).Format("2006-01-02")
}

// =============================================================================
// FORECASTS
// =============================================================================

// SaveForecast inserts or replaces the forecast for its month.
func (s *Store) SaveForecast(ctx context.Context, f bonus.Forecast) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO forecasts (year, month, target_amount, threshold) VALUES (?, ?, ?, ?)
		ON CONFLICT(year, month) DO UPDATE SET
			target_amount = excluded.target_amount, threshold = excluded.threshold`,
		f.Year, int(f.Month), f.TargetAmount.String(), f.Threshold.String())
	return err
}

// GetForecast returns the forecast for a month, or nil if none configured.
func (s *Store) GetForecast(ctx context.Context, year int, month time.Month) (*bonus.Forecast, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var target, threshold string
	err := s.db.QueryRowContext(ctx,
		`SELECT target_amount, threshold FROM forecasts WHERE year = ? AND month = ?`,
		year, int(month)).Scan(&target, &threshold)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	f := bonus.Forecast{Year: year, Month: month}
	if f.TargetAmount, err = decimal.NewFromString(target); err != nil {
		return nil, fmt.Errorf("corrupt forecast target: %w", err)
	}
	if f.Threshold, err = decimal.NewFromString(threshold); err != nil {
		return nil, fmt.Errorf("corrupt forecast threshold: %w", err)
	}
	return &f, nil
}

// =============================================================================
// PAYOUT REPORTS
// =============================================================================

// SaveReport persists a serialized payout report for a period.
func (s *Store) SaveReport(ctx context.Context, year int, month time.Month, reportJSON string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO payout_reports (year, month, report_json) VALUES (?, ?, ?)`,
		year, int(month), reportJSON)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetReport returns one saved report or nil if not found.
func (s *Store) GetReport(ctx context.Context, id int64) (*ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var rec ReportRecord
	var month int
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, year, month, report_json, created_at FROM payout_reports WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Year, &month, &rec.JSON, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.Month = time.Month(month)
	rec.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
	return &rec, nil
}

// ListReports returns saved reports, newest first.
func (s *Store) ListReports(ctx context.Context) ([]ReportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, year, month, report_json, created_at FROM payout_reports ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ReportRecord
	for rows.Next() {
		var rec ReportRecord
		var month int
		var createdAt string
		if err := rows.Scan(&rec.ID, &rec.Year, &month, &rec.JSON, &createdAt); err != nil {
			return nil, err
		}
		rec.Month = time.Month(month)
		rec.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// =============================================================================
// CALCULATION RUNS - Scheduler audit trail
// =============================================================================

// RecordRun appends one calculation run entry.
func (s *Store) RecordRun(ctx context.Context, run CalculationRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO calculation_runs (year, month, trigger_source, status, detail) VALUES (?, ?, ?, ?, ?)`,
		run.Year, int(run.Month), run.Trigger, run.Status, run.Detail)
	return err
}

// ListRuns returns calculation runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]CalculationRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, year, month, trigger_source, status, COALESCE(detail, ''), ran_at
		 FROM calculation_runs ORDER BY id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CalculationRun
	for rows.Next() {
		var run CalculationRun
		var month int
		var ranAt string
		if err := rows.Scan(&run.ID, &run.Year, &month, &run.Trigger, &run.Status, &run.Detail, &ranAt); err != nil {
			return nil, err
		}
		run.Month = time.Month(month)
		run.RanAt, _ = time.Parse("2006-01-02 15:04:05", ranAt)
		out = append(out, run)
	}
	return out, rows.Err()
}

// Reset wipes all data. Used by demo scenario loaders only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{
		"calculation_runs", "payout_reports", "forecasts",
		"receipts", "products", "tiers", "categories", "participants",
	} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}
