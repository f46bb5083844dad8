/*
types.go - Domain types for contracts, rates, and payments

PURPOSE:
  Defines the read models the engine consumes (Contract, BusinessCategory,
  EuroRate, market geography) and the one record it produces
  (ContractPayment).

KEY CONCEPTS:
  - Contract: an awardee's lease for a fiscal year, billed monthly or
    weekly, linked to categories (billing weight) and stalls (geography)
  - BusinessCategory: contributes a Weight ("payment_count") per period;
    the ONLY per-category datum the engine reads
  - EuroRate: one bolívar-per-euro value per (month, year); a rate may
    also be general (unscoped), in which case both fields are empty
  - ContractPayment: a scheduled charge; amount frozen at generation time

DESIGN PRINCIPLES:
  1. Precision: decimal.Decimal for weights, rates, and amounts
  2. Type safety: distinct ID types so a stall ID can't be used as a
     contract ID
  3. Frozen history: persisted payments keep the amount they were born
     with, even if the rate table changes later

SEE ALSO:
  - generator.go: Creates ContractPayment batches
  - planning.go: Joins these read models into monthly snapshots
*/
package engine

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type (
	ContractID   int64
	AwardeeID    int64
	FiscalYearID int64
	CategoryID   int64
	StallID      int64
	SectorID     int64
	ZoneID       int64
	RateID       int64
	PaymentID    string // uuid
)

// =============================================================================
// CONTRACT
// =============================================================================

// ContractType distinguishes when the charge is owed relative to the
// period it covers.
type ContractType string

const (
	ContractSimultaneous ContractType = "simultaneous"
	ContractAdvance      ContractType = "advance"
)

// BillingMode controls charge date enumeration.
type BillingMode string

const (
	BillingMonthly BillingMode = "monthly"
	BillingWeekly  BillingMode = "weekly"
)

func (m BillingMode) Valid() bool {
	return m == BillingMonthly || m == BillingWeekly
}

// CategoryCatalog distinguishes the two business-category catalogs a
// contract link may point into. A link points to exactly one, never both.
type CategoryCatalog string

const (
	CatalogExternal CategoryCatalog = "external"
	CatalogInternal CategoryCatalog = "internal"
)

// CategoryRef links a contract to one business category.
type CategoryRef struct {
	Catalog    CategoryCatalog
	CategoryID CategoryID
}

// Contract is the engine's read model of a concession contract.
// Invariant (enforced at creation in the CRUD layer, not re-checked
// here): at least one category or one location link exists.
type Contract struct {
	ID           ContractID
	AwardeeID    AwardeeID
	FiscalYearID FiscalYearID
	StartDate    Date
	EndDate      Date
	Type         ContractType
	Mode         BillingMode

	Categories []CategoryRef
	Stalls     []StallID
}

// ActiveDuring reports whether the contract's range overlaps [from, to].
func (c Contract) ActiveDuring(from, to Date) bool {
	return c.StartDate.BeforeOrEqual(to) && c.EndDate.AfterOrEqual(from)
}

// =============================================================================
// CATALOG READ MODELS
// =============================================================================

// BusinessCategory carries the billing weight ("payment_count") a
// category contributes per period.
type BusinessCategory struct {
	ID      CategoryID
	Catalog CategoryCatalog
	Name    string
	Weight  decimal.Decimal
}

// Stall is a market stall with its geographic placement.
type Stall struct {
	ID         StallID
	Code       string
	SectorID   SectorID
	SectorName string
	ZoneID     ZoneID
	ZoneName   string
}

// Awardee is the display read model for reports.
type Awardee struct {
	ID       AwardeeID
	Name     string
	IDNumber string // national identity number, export column
}

type FiscalYear struct {
	ID    FiscalYearID
	Year  int
	Start Date
	End   Date
}

// =============================================================================
// EURO RATE
// =============================================================================

// EuroRate is one manually curated bolívar-per-euro value. Month and
// Year are optional together: both set (a period rate) or both empty
// (a general, unscoped rate).
type EuroRate struct {
	ID    RateID
	Month MonthKey // empty for general rates
	Year  int      // zero for general rates
	Value decimal.Decimal
}

// Scoped reports whether the rate is bound to a (month, year) period.
func (r EuroRate) Scoped() bool {
	return r.Month != "" && r.Year != 0
}

// Validate enforces the pair-wise presence rule and name validity.
func (r EuroRate) Validate() error {
	if (r.Month == "") != (r.Year == 0) {
		return ErrRatePeriodIncomplete
	}
	if r.Month != "" && !r.Month.Valid() {
		return &UnknownMonthError{Name: string(r.Month)}
	}
	if r.Value.IsNegative() {
		return ErrNegativeRate
	}
	return nil
}

// Period returns the rate's period. Only meaningful when Scoped.
func (r EuroRate) Period() RatePeriod {
	return RatePeriod{Month: r.Month, Year: r.Year}
}

// =============================================================================
// CONTRACT PAYMENT
// =============================================================================

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentRefunded  PaymentStatus = "refunded"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentCancelled, PaymentRefunded:
		return true
	}
	return false
}

// ContractPayment is one scheduled charge. Born in bulk from the
// generator, mutated individually by payment recording, purged (pending
// only) by regeneration. Amount and rate are frozen at generation time.
type ContractPayment struct {
	ID         PaymentID
	ContractID ContractID
	Reference  string // PAY-<contract>-<NNN>
	Date       Date
	Amount     decimal.Decimal
	RateID     RateID // zero when the rate was unresolved
	Status     PaymentStatus
}
