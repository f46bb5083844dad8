/*
store.go - Persistence interfaces consumed by the engine

PURPOSE:
  Defines the boundary between the schedule engine and the relational
  store. Contracts, catalogs, geography, fiscal years, and rates are
  READ models here; the engine only ever writes ContractPayment rows.

KEY INTERFACES:
  ContractStore: Contract read models + fiscal year existence
  CatalogStore:  Billing weights, stalls, awardee display data
  RateStore:     The curated euro rate table
  PaymentStore:  The one table the engine writes
  TxStore:       Transactional composition of all of the above

TRANSACTION CONTRACT:
  Schedule generation inserts its whole batch inside one transaction:
  a partial schedule is worse than no schedule. Regeneration runs
  delete-pending + generate inside the same transaction, so two
  concurrent edits of one contract serialize instead of interleaving.

IMPLEMENTATIONS:
  - engine/store/memory.go: In-memory, for tests and the dev server
  - store/sqlite/sqlite.go: SQLite via database/sql

SEE ALSO:
  - generator.go: Uses TxStore for atomic batches
  - planning.go: Read-only consumer of everything
*/
package engine

import "context"

// =============================================================================
// READ MODELS
// =============================================================================

// ContractStore provides contract read models.
type ContractStore interface {
	// Contract returns the contract with its category and stall links
	// preloaded. Returns ErrContractNotFound for unknown IDs.
	Contract(ctx context.Context, id ContractID) (*Contract, error)

	// ContractsOverlapping returns every contract whose [start, end]
	// range overlaps [from, to], i.e. start <= to AND end >= from.
	ContractsOverlapping(ctx context.Context, from, to Date) ([]Contract, error)

	// FiscalYearExists checks the contract's fiscal year reference.
	FiscalYearExists(ctx context.Context, id FiscalYearID) (bool, error)
}

// CatalogStore provides the catalog rows the engine joins against.
type CatalogStore interface {
	// Category resolves a contract link into its catalog row.
	// A missing row is not an error: the engine treats it as weight 0.
	Category(ctx context.Context, ref CategoryRef) (*BusinessCategory, error)

	// Stall resolves a stall with its sector and zone placement.
	Stall(ctx context.Context, id StallID) (*Stall, error)

	// Awardee returns display data for reports.
	Awardee(ctx context.Context, id AwardeeID) (*Awardee, error)
}

// =============================================================================
// RATE TABLE
// =============================================================================

// RateStore is the manually curated bolívar-per-euro table.
// Read-mostly: appended or occasionally edited, never hot.
type RateStore interface {
	// SaveRate inserts a rate. Enforces at most one rate per
	// (month, year) pair; returns ErrDuplicateRatePeriod otherwise.
	SaveRate(ctx context.Context, rate EuroRate) (RateID, error)

	// DeleteRate removes a rate by ID.
	DeleteRate(ctx context.Context, id RateID) error

	// ListRates returns the whole table, newest period first.
	ListRates(ctx context.Context) ([]EuroRate, error)

	// RateForPeriod returns the exact (month, year) match, or nil
	// without error when the period has no rate.
	RateForPeriod(ctx context.Context, period RatePeriod) (*EuroRate, error)

	// LatestRate returns the single most recent scoped rate by
	// (year, month ordinal). Ties are broken arbitrarily; the store
	// returns one row. Nil without error when the table is empty.
	LatestRate(ctx context.Context) (*EuroRate, error)
}

// =============================================================================
// PAYMENTS - The engine's only write surface
// =============================================================================

// PaymentStore persists scheduled charges.
type PaymentStore interface {
	// InsertPayments appends a generated batch. Callers wrap this in
	// WithTx; implementations must keep the batch atomic regardless.
	InsertPayments(ctx context.Context, payments []ContractPayment) error

	// PaymentsByContract returns all charges for a contract ordered by
	// date ascending.
	PaymentsByContract(ctx context.Context, id ContractID) ([]ContractPayment, error)

	// PaymentForPeriod returns the one charge dated inside [from, to]
	// for the contract, or nil without error. When several exist the
	// earliest is returned.
	PaymentForPeriod(ctx context.Context, id ContractID, from, to Date) (*ContractPayment, error)

	// DeletePending removes rows still in pending status for the
	// contract and reports how many were purged. Paid, cancelled and
	// refunded rows are immutable history and always survive.
	DeletePending(ctx context.Context, id ContractID) (int, error)

	// UpdatePaymentStatus records an individual payment mutation
	// (the external payment-recording flow).
	UpdatePaymentStatus(ctx context.Context, id PaymentID, status PaymentStatus) error
}

// =============================================================================
// COMPOSITION
// =============================================================================

// Store is everything the engine needs from persistence.
type Store interface {
	ContractStore
	CatalogStore
	RateStore
	PaymentStore
}

// TxStore adds transaction support. fn sees a Store whose writes commit
// together or not at all.
type TxStore interface {
	Store

	WithTx(ctx context.Context, fn func(Store) error) error
}
