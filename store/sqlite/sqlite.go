/*
Package sqlite provides a SQLite-backed implementation of the engine
storage interfaces.

PURPOSE:
  Implements engine.Store and engine.TxStore using database/sql. In
  production the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

KEY TABLES:
  contracts, contract_categories, contract_locations: contract read
      models as written by the (out-of-scope) CRUD layer
  categories:        both business-category catalogs, keyed by
                     (catalog, id); weight is the billing payment_count
  zones, sectors, stalls: market geography
  euro_rates:        the curated bolívar-per-euro table; UNIQUE(month,
                     year) enforces one rate per period
  contract_payments: the engine's write surface

CONCURRENCY:
  sync.RWMutex for in-process safety plus WAL mode for crash recovery.
  WithTx serializes regeneration per process: delete-pending and the
  fresh batch insert commit together or roll back together.

DECIMALS:
  Weights, rates, and amounts are stored as TEXT and parsed with
  shopspring/decimal. REAL columns would reintroduce float drift into
  the money path.

USAGE:
  store, err := sqlite.New("./data/recaudacion.db")
  if err != nil { ... }
  defer store.Close()
  gen := engine.NewScheduleGenerator(store, logger)

SEE ALSO:
  - engine/store.go: Interface definitions
  - engine/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/TLArrow401/ProyTray4-Recaudacion-sub000/engine"
)

// Store implements engine.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database. Use ":memory:" for tests.
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

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS awardees (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		id_number TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS fiscal_years (
		id INTEGER PRIMARY KEY,
		year INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS zones (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sectors (
		id INTEGER PRIMARY KEY,
		zone_id INTEGER NOT NULL REFERENCES zones(id),
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stalls (
		id INTEGER PRIMARY KEY,
		code TEXT NOT NULL,
		sector_id INTEGER NOT NULL REFERENCES sectors(id)
	);

	CREATE INDEX IF NOT EXISTS idx_stalls_sector ON stalls(sector_id);

	-- Both category catalogs in one table, discriminated by catalog.
	-- weight is the "payment_count" billing weight.
	CREATE TABLE IF NOT EXISTS categories (
		catalog TEXT NOT NULL,
		id INTEGER NOT NULL,
		name TEXT NOT NULL,
		weight TEXT NOT NULL DEFAULT '0',
		PRIMARY KEY (catalog, id)
	);

	CREATE TABLE IF NOT EXISTS contracts (
		id INTEGER PRIMARY KEY,
		awardee_id INTEGER NOT NULL REFERENCES awardees(id),
		fiscal_year_id INTEGER NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		contract_type TEXT NOT NULL,
		contract_mode TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_contracts_range
		ON contracts(start_date, end_date);

	CREATE TABLE IF NOT EXISTS contract_categories (
		contract_id INTEGER NOT NULL REFERENCES contracts(id),
		catalog TEXT NOT NULL,
		category_id INTEGER NOT NULL,
		PRIMARY KEY (contract_id, catalog, category_id)
	);

	CREATE TABLE IF NOT EXISTS contract_locations (
		contract_id INTEGER NOT NULL REFERENCES contracts(id),
		stall_id INTEGER NOT NULL REFERENCES stalls(id),
		PRIMARY KEY (contract_id, stall_id)
	);

	-- One rate per (month, year). General rates use ('', 0).
	CREATE TABLE IF NOT EXISTS euro_rates (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		month TEXT NOT NULL DEFAULT '',
		year INTEGER NOT NULL DEFAULT 0,
		bs_value TEXT NOT NULL,
		UNIQUE (month, year)
	);

	CREATE TABLE IF NOT EXISTS contract_payments (
		id TEXT PRIMARY KEY,
		contract_id INTEGER NOT NULL REFERENCES contracts(id),
		reference TEXT NOT NULL,
		payment_date TEXT NOT NULL,
		amount TEXT NOT NULL,
		rate_id INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'pending'
	);

	CREATE INDEX IF NOT EXISTS idx_payments_contract_date
		ON contract_payments(contract_id, payment_date);
	CREATE INDEX IF NOT EXISTS idx_payments_status
		ON contract_payments(status);
	`

	_, err := s.db.Exec(schema)
	return err
}

// executor abstracts *sql.DB and *sql.Tx so every query is written once.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// CONTRACT STORE
// =============================================================================

func (s *Store) Contract(ctx context.Context, id engine.ContractID) (*engine.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return contractQuery(ctx, s.db, id)
}

func contractQuery(ctx context.Context, db executor, id engine.ContractID) (*engine.Contract, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, awardee_id, fiscal_year_id, start_date, end_date, contract_type, contract_mode
		FROM contracts WHERE id = ?`, id)

	contract, err := scanContract(row)
	if err == sql.ErrNoRows {
		return nil, engine.ErrContractNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load contract: %w", err)
	}

	if err := loadContractLinks(ctx, db, contract); err != nil {
		return nil, err
	}
	return contract, nil
}

func scanContract(row *sql.Row) (*engine.Contract, error) {
	var (
		c          engine.Contract
		start, end string
	)
	err := row.Scan(&c.ID, &c.AwardeeID, &c.FiscalYearID, &start, &end, &c.Type, &c.Mode)
	if err != nil {
		return nil, err
	}
	if c.StartDate, err = engine.ParseDate(start); err != nil {
		return nil, err
	}
	if c.EndDate, err = engine.ParseDate(end); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadContractLinks(ctx context.Context, db executor, c *engine.Contract) error {
	rows, err := db.QueryContext(ctx,
		`SELECT catalog, category_id FROM contract_categories WHERE contract_id = ?`, c.ID)
	if err != nil {
		return fmt.Errorf("failed to load category links: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var ref engine.CategoryRef
		if err := rows.Scan(&ref.Catalog, &ref.CategoryID); err != nil {
			return err
		}
		c.Categories = append(c.Categories, ref)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	stallRows, err := db.QueryContext(ctx,
		`SELECT stall_id FROM contract_locations WHERE contract_id = ?`, c.ID)
	if err != nil {
		return fmt.Errorf("failed to load location links: %w", err)
	}
	defer stallRows.Close()
	for stallRows.Next() {
		var id engine.StallID
		if err := stallRows.Scan(&id); err != nil {
			return err
		}
		c.Stalls = append(c.Stalls, id)
	}
	return stallRows.Err()
}

func (s *Store) ContractsOverlapping(ctx context.Context, from, to engine.Date) ([]engine.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return contractsOverlappingQuery(ctx, s.db, from, to)
}

func contractsOverlappingQuery(ctx context.Context, db executor, from, to engine.Date) ([]engine.Contract, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id FROM contracts
		WHERE start_date <= ? AND end_date >= ?
		ORDER BY id ASC`, to.String(), from.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query contracts: %w", err)
	}
	defer rows.Close()

	var ids []engine.ContractID
	for rows.Next() {
		var id engine.ContractID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	contracts := make([]engine.Contract, 0, len(ids))
	for _, id := range ids {
		c, err := contractQuery(ctx, db, id)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, *c)
	}
	return contracts, nil
}

func (s *Store) FiscalYearExists(ctx context.Context, id engine.FiscalYearID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fiscalYearExistsQuery(ctx, s.db, id)
}

func fiscalYearExistsQuery(ctx context.Context, db executor, id engine.FiscalYearID) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM fiscal_years WHERE id = ?`, id).Scan(&count)
	return count > 0, err
}

// =============================================================================
// CATALOG STORE
// =============================================================================

func (s *Store) Category(ctx context.Context, ref engine.CategoryRef) (*engine.BusinessCategory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return categoryQuery(ctx, s.db, ref)
}

func categoryQuery(ctx context.Context, db executor, ref engine.CategoryRef) (*engine.BusinessCategory, error) {
	var (
		c      engine.BusinessCategory
		weight string
	)
	err := db.QueryRowContext(ctx, `
		SELECT catalog, id, name, weight FROM categories
		WHERE catalog = ? AND id = ?`, string(ref.Catalog), ref.CategoryID).
		Scan(&c.Catalog, &c.ID, &c.Name, &weight)
	if err == sql.ErrNoRows {
		return nil, nil // stale link, weight 0
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load category: %w", err)
	}
	if c.Weight, err = parseDecimal(weight); err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) Stall(ctx context.Context, id engine.StallID) (*engine.Stall, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return stallQuery(ctx, s.db, id)
}

func stallQuery(ctx context.Context, db executor, id engine.StallID) (*engine.Stall, error) {
	var st engine.Stall
	err := db.QueryRowContext(ctx, `
		SELECT st.id, st.code, se.id, se.name, z.id, z.name
		FROM stalls st
		JOIN sectors se ON se.id = st.sector_id
		JOIN zones z ON z.id = se.zone_id
		WHERE st.id = ?`, id).
		Scan(&st.ID, &st.Code, &st.SectorID, &st.SectorName, &st.ZoneID, &st.ZoneName)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load stall: %w", err)
	}
	return &st, nil
}

func (s *Store) Awardee(ctx context.Context, id engine.AwardeeID) (*engine.Awardee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return awardeeQuery(ctx, s.db, id)
}

func awardeeQuery(ctx context.Context, db executor, id engine.AwardeeID) (*engine.Awardee, error) {
	var a engine.Awardee
	err := db.QueryRowContext(ctx,
		`SELECT id, name, id_number FROM awardees WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.IDNumber)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load awardee: %w", err)
	}
	return &a, nil
}

// =============================================================================
// RATE STORE
// =============================================================================

func (s *Store) SaveRate(ctx context.Context, rate engine.EuroRate) (engine.RateID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveRateExec(ctx, s.db, rate)
}

func saveRateExec(ctx context.Context, db executor, rate engine.EuroRate) (engine.RateID, error) {
	if err := rate.Validate(); err != nil {
		return 0, err
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO euro_rates (month, year, bs_value) VALUES (?, ?, ?)`,
		string(rate.Month), rate.Year, rate.Value.String())
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, engine.ErrDuplicateRatePeriod
		}
		return 0, fmt.Errorf("failed to save rate: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	return engine.RateID(id), nil
}

func (s *Store) DeleteRate(ctx context.Context, id engine.RateID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleteRateExec(ctx, s.db, id)
}

func deleteRateExec(ctx context.Context, db executor, id engine.RateID) error {
	result, err := db.ExecContext(ctx, `DELETE FROM euro_rates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rate: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return engine.ErrRateNotFound
	}
	return nil
}

func (s *Store) ListRates(ctx context.Context) ([]engine.EuroRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listRatesQuery(ctx, s.db)
}

func listRatesQuery(ctx context.Context, db executor) ([]engine.EuroRate, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, month, year, bs_value FROM euro_rates
		ORDER BY year DESC, `+monthOrdinalCase+` DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rates: %w", err)
	}
	defer rows.Close()

	var rates []engine.EuroRate
	for rows.Next() {
		rate, err := scanRate(rows)
		if err != nil {
			return nil, err
		}
		rates = append(rates, rate)
	}
	return rates, rows.Err()
}

func (s *Store) RateForPeriod(ctx context.Context, period engine.RatePeriod) (*engine.EuroRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return rateForPeriodQuery(ctx, s.db, period)
}

func rateForPeriodQuery(ctx context.Context, db executor, period engine.RatePeriod) (*engine.EuroRate, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, month, year, bs_value FROM euro_rates
		WHERE month = ? AND year = ? LIMIT 1`,
		string(period.Month), period.Year)
	if err != nil {
		return nil, fmt.Errorf("failed to query rate: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	rate, err := scanRate(rows)
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

// monthOrdinalCase mirrors the canonical table in engine/calendar.go.
const monthOrdinalCase = `CASE month
	WHEN 'enero' THEN 1 WHEN 'febrero' THEN 2 WHEN 'marzo' THEN 3
	WHEN 'abril' THEN 4 WHEN 'mayo' THEN 5 WHEN 'junio' THEN 6
	WHEN 'julio' THEN 7 WHEN 'agosto' THEN 8 WHEN 'septiembre' THEN 9
	WHEN 'octubre' THEN 10 WHEN 'noviembre' THEN 11 WHEN 'diciembre' THEN 12
	ELSE 0 END`

func (s *Store) LatestRate(ctx context.Context) (*engine.EuroRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return latestRateQuery(ctx, s.db)
}

// latestRateQuery includes general (unscoped) rates: their (0, '')
// period sorts last, so they win only when no scoped rate exists.
func latestRateQuery(ctx context.Context, db executor) (*engine.EuroRate, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, month, year, bs_value FROM euro_rates
		ORDER BY year DESC, `+monthOrdinalCase+` DESC
		LIMIT 1`)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest rate: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	rate, err := scanRate(rows)
	if err != nil {
		return nil, err
	}
	return &rate, nil
}

func scanRate(rows *sql.Rows) (engine.EuroRate, error) {
	var (
		rate  engine.EuroRate
		month string
		value string
	)
	if err := rows.Scan(&rate.ID, &month, &rate.Year, &value); err != nil {
		return rate, err
	}
	rate.Month = engine.MonthKey(month)
	var err error
	rate.Value, err = parseDecimal(value)
	return rate, err
}

// =============================================================================
// PAYMENT STORE
// =============================================================================

// InsertPayments is atomic even outside WithTx: a partial schedule is
// worse than no schedule.
func (s *Store) InsertPayments(ctx context.Context, payments []engine.ContractPayment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertPaymentsExec(ctx, tx, payments); err != nil {
		return err
	}
	return tx.Commit()
}

func insertPaymentsExec(ctx context.Context, db executor, payments []engine.ContractPayment) error {
	for _, p := range payments {
		_, err := db.ExecContext(ctx, `
			INSERT INTO contract_payments
			(id, contract_id, reference, payment_date, amount, rate_id, status)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			string(p.ID), p.ContractID, p.Reference, p.Date.String(),
			p.Amount.String(), p.RateID, string(p.Status))
		if err != nil {
			return fmt.Errorf("failed to insert payment %s: %w", p.Reference, err)
		}
	}
	return nil
}

func (s *Store) PaymentsByContract(ctx context.Context, id engine.ContractID) ([]engine.ContractPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paymentsByContractQuery(ctx, s.db, id)
}

func paymentsByContractQuery(ctx context.Context, db executor, id engine.ContractID) ([]engine.ContractPayment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, contract_id, reference, payment_date, amount, rate_id, status
		FROM contract_payments WHERE contract_id = ?
		ORDER BY payment_date ASC, reference ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	var payments []engine.ContractPayment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

func (s *Store) PaymentForPeriod(ctx context.Context, id engine.ContractID, from, to engine.Date) (*engine.ContractPayment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return paymentForPeriodQuery(ctx, s.db, id, from, to)
}

func paymentForPeriodQuery(ctx context.Context, db executor, id engine.ContractID, from, to engine.Date) (*engine.ContractPayment, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, contract_id, reference, payment_date, amount, rate_id, status
		FROM contract_payments
		WHERE contract_id = ? AND payment_date >= ? AND payment_date <= ?
		ORDER BY payment_date ASC LIMIT 1`,
		id, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	p, err := scanPayment(rows)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) DeletePending(ctx context.Context, id engine.ContractID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deletePendingExec(ctx, s.db, id)
}

func deletePendingExec(ctx context.Context, db executor, id engine.ContractID) (int, error) {
	result, err := db.ExecContext(ctx, `
		DELETE FROM contract_payments
		WHERE contract_id = ? AND status = ?`,
		id, string(engine.PaymentPending))
	if err != nil {
		return 0, fmt.Errorf("failed to delete pending payments: %w", err)
	}
	affected, err := result.RowsAffected()
	return int(affected), err
}

func (s *Store) UpdatePaymentStatus(ctx context.Context, id engine.PaymentID, status engine.PaymentStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updatePaymentStatusExec(ctx, s.db, id, status)
}

func updatePaymentStatusExec(ctx context.Context, db executor, id engine.PaymentID, status engine.PaymentStatus) error {
	result, err := db.ExecContext(ctx,
		`UPDATE contract_payments SET status = ? WHERE id = ?`,
		string(status), string(id))
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return engine.ErrPaymentNotFound
	}
	return nil
}

func scanPayment(rows *sql.Rows) (engine.ContractPayment, error) {
	var (
		p      engine.ContractPayment
		pid    string
		date   string
		amount string
		status string
	)
	err := rows.Scan(&pid, &p.ContractID, &p.Reference, &date, &amount, &p.RateID, &status)
	if err != nil {
		return p, err
	}
	p.ID = engine.PaymentID(pid)
	p.Status = engine.PaymentStatus(status)
	if p.Date, err = engine.ParseDate(date); err != nil {
		return p, err
	}
	p.Amount, err = parseDecimal(amount)
	return p, err
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction. The mutex is held
// for the whole span, so delete-pending + regenerate of one contract
// serializes against concurrent edits.
func (s *Store) WithTx(ctx context.Context, fn func(engine.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txView{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// txView routes Store calls through one *sql.Tx, without re-locking.
type txView struct {
	tx *sql.Tx
}

func (v *txView) Contract(ctx context.Context, id engine.ContractID) (*engine.Contract, error) {
	return contractQuery(ctx, v.tx, id)
}

func (v *txView) ContractsOverlapping(ctx context.Context, from, to engine.Date) ([]engine.Contract, error) {
	return contractsOverlappingQuery(ctx, v.tx, from, to)
}

func (v *txView) FiscalYearExists(ctx context.Context, id engine.FiscalYearID) (bool, error) {
	return fiscalYearExistsQuery(ctx, v.tx, id)
}

func (v *txView) Category(ctx context.Context, ref engine.CategoryRef) (*engine.BusinessCategory, error) {
	return categoryQuery(ctx, v.tx, ref)
}

func (v *txView) Stall(ctx context.Context, id engine.StallID) (*engine.Stall, error) {
	return stallQuery(ctx, v.tx, id)
}

func (v *txView) Awardee(ctx context.Context, id engine.AwardeeID) (*engine.Awardee, error) {
	return awardeeQuery(ctx, v.tx, id)
}

func (v *txView) SaveRate(ctx context.Context, rate engine.EuroRate) (engine.RateID, error) {
	return saveRateExec(ctx, v.tx, rate)
}

func (v *txView) DeleteRate(ctx context.Context, id engine.RateID) error {
	return deleteRateExec(ctx, v.tx, id)
}

func (v *txView) ListRates(ctx context.Context) ([]engine.EuroRate, error) {
	return listRatesQuery(ctx, v.tx)
}

func (v *txView) RateForPeriod(ctx context.Context, period engine.RatePeriod) (*engine.EuroRate, error) {
	return rateForPeriodQuery(ctx, v.tx, period)
}

func (v *txView) LatestRate(ctx context.Context) (*engine.EuroRate, error) {
	return latestRateQuery(ctx, v.tx)
}

func (v *txView) InsertPayments(ctx context.Context, payments []engine.ContractPayment) error {
	return insertPaymentsExec(ctx, v.tx, payments)
}

func (v *txView) PaymentsByContract(ctx context.Context, id engine.ContractID) ([]engine.ContractPayment, error) {
	return paymentsByContractQuery(ctx, v.tx, id)
}

func (v *txView) PaymentForPeriod(ctx context.Context, id engine.ContractID, from, to engine.Date) (*engine.ContractPayment, error) {
	return paymentForPeriodQuery(ctx, v.tx, id, from, to)
}

func (v *txView) DeletePending(ctx context.Context, id engine.ContractID) (int, error) {
	return deletePendingExec(ctx, v.tx, id)
}

func (v *txView) UpdatePaymentStatus(ctx context.Context, id engine.PaymentID, status engine.PaymentStatus) error {
	return updatePaymentStatusExec(ctx, v.tx, id, status)
}

// =============================================================================
// SEEDING - Read models are written by the external CRUD layer; these
// exist so tests and the dev seed can populate them.
// =============================================================================

func (s *Store) SaveAwardee(ctx context.Context, a engine.Awardee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO awardees (id, name, id_number) VALUES (?, ?, ?)`,
		a.ID, a.Name, a.IDNumber)
	return err
}

func (s *Store) SaveFiscalYear(ctx context.Context, fy engine.FiscalYear) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO fiscal_years (id, year, start_date, end_date) VALUES (?, ?, ?, ?)`,
		fy.ID, fy.Year, fy.Start.String(), fy.End.String())
	return err
}

func (s *Store) SaveZone(ctx context.Context, id engine.ZoneID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO zones (id, name) VALUES (?, ?)`, id, name)
	return err
}

func (s *Store) SaveSector(ctx context.Context, id engine.SectorID, zoneID engine.ZoneID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO sectors (id, zone_id, name) VALUES (?, ?, ?)`, id, zoneID, name)
	return err
}

func (s *Store) SaveStall(ctx context.Context, id engine.StallID, code string, sectorID engine.SectorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO stalls (id, code, sector_id) VALUES (?, ?, ?)`, id, code, sectorID)
	return err
}

func (s *Store) SaveCategory(ctx context.Context, c engine.BusinessCategory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO categories (catalog, id, name, weight) VALUES (?, ?, ?, ?)`,
		string(c.Catalog), c.ID, c.Name, c.Weight.String())
	return err
}

func (s *Store) SaveContract(ctx context.Context, c engine.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO contracts
		(id, awardee_id, fiscal_year_id, start_date, end_date, contract_type, contract_mode)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.AwardeeID, c.FiscalYearID, c.StartDate.String(), c.EndDate.String(),
		string(c.Type), string(c.Mode))
	if err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM contract_categories WHERE contract_id = ?`, c.ID); err != nil {
		return err
	}
	for _, ref := range c.Categories {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO contract_categories (contract_id, catalog, category_id) VALUES (?, ?, ?)`,
			c.ID, string(ref.Catalog), ref.CategoryID); err != nil {
			return err
		}
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM contract_locations WHERE contract_id = ?`, c.ID); err != nil {
		return err
	}
	for _, stallID := range c.Stalls {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO contract_locations (contract_id, stall_id) VALUES (?, ?)`,
			c.ID, stallID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// =============================================================================
// HELPERS
// =============================================================================

func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return d, nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
