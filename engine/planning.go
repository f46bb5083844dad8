/*
planning.go - Monthly planning aggregation and statistics

PURPOSE:
  Re-derives the current month's obligations across all contracts.
  Every contract active in the month appears exactly once: joined with
  its category-derived multiplier, its primary stall's zone/sector, and
  the one payment row already persisted for the month, if any. Contracts
  with no row yet get a PROJECTED amount computed live from the rate
  table; persisted rows keep their frozen amounts.

STATUS TEXTS (Spanish, the report vocabulary):
  paid      -> "Pagado"
  cancelled -> "Cancelado"
  refunded  -> "Reembolsado"
  pending, dated before today -> "Moroso"
  pending, otherwise          -> "Pendiente"
  no row, multiplier > 0      -> "Pago no programado"
  no row, multiplier 0        -> "Sin pago programado"

PRIMARY LOCATION:
  A contract can span stalls across zones. The legacy report picked a
  representative via a MAX aggregate, a silent precision loss. Here the
  rule is explicit: the stall with the lowest code is the primary, and
  zone/sector filters match against it. Multi-zone contracts still
  collapse to one row; the rule just makes WHICH row deterministic.

FILTERS:
  zone/sector restrict by primary location. delinquent-only keeps rows
  whose payment is pending with a past date. The delinquent filter and
  the delinquent-first ordering overlap in intent but are independent
  knobs; both are kept.

STATISTICS:
  A fold over the same snapshot list, not a second query. Delinquency is
  classified against "now" at call time, never cached.

SEE ALSO:
  - rates.go: Projected amount resolution
  - multiplier.go: Live weight derivation
  - csv.go: Report serialization
*/
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// SNAPSHOT TYPES
// =============================================================================

// Spanish status texts used by the planning report and its CSV export.
const (
	StatusTextPaid        = "Pagado"
	StatusTextCancelled   = "Cancelado"
	StatusTextRefunded    = "Reembolsado"
	StatusTextDelinquent  = "Moroso"
	StatusTextPending     = "Pendiente"
	StatusTextUnscheduled = "Pago no programado"
	StatusTextNoSchedule  = "Sin pago programado"
)

// ContractSnapshot is one row of the monthly planning report.
type ContractSnapshot struct {
	ContractID      ContractID
	AwardeeName     string
	AwardeeIDNumber string

	// Primary location placement. Zero IDs when the contract has no
	// stalls (categories-only contract).
	ZoneID     ZoneID
	ZoneName   string
	SectorID   SectorID
	SectorName string

	CategoryCount int
	LocationCount int
	Multiplier    decimal.Decimal

	// Persisted payment for the month, when one exists.
	PaymentID   PaymentID
	PaymentDate Date
	Status      PaymentStatus // empty when no row exists

	// Frozen amount from the row, or a live projection when absent.
	CalculatedAmount decimal.Decimal
	Projected        bool

	StatusText string
}

// PlanningFilters narrows the report.
type PlanningFilters struct {
	ZoneID         *ZoneID
	SectorID       *SectorID
	DelinquentOnly bool
}

// MonthlyStatistics is the fold over one planning run.
type MonthlyStatistics struct {
	Period         RatePeriod
	TotalContracts int
	TotalAmount    decimal.Decimal
	PendingCount   int
	PaidCount      int
	DelinquentQty  int
}

// =============================================================================
// PLANNER
// =============================================================================

// Planner produces the monthly planning report.
type Planner struct {
	Store  Store
	Logger *zap.Logger

	// Now is injectable for tests; defaults to Today.
	Now func() Date
}

func NewPlanner(store Store, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{Store: store, Logger: logger, Now: Today}
}

func (p *Planner) today() Date {
	if p.Now != nil {
		return p.Now()
	}
	return Today()
}

// PlanMonth builds the current month's report. On persistence failure
// it returns the error; callers are expected to degrade to an empty
// report rather than render a partial one.
func (p *Planner) PlanMonth(ctx context.Context, filters PlanningFilters) ([]ContractSnapshot, error) {
	today := p.today()
	monthStart, monthEnd := MonthBounds(today)

	contracts, err := p.Store.ContractsOverlapping(ctx, monthStart, monthEnd)
	if err != nil {
		return nil, fmt.Errorf("load contracts for %s: %w", PeriodOf(today), err)
	}

	calc := MultiplierCalculator{Contracts: p.Store, Catalog: p.Store}
	resolver := RateResolver{Rates: p.Store}

	snapshots := make([]ContractSnapshot, 0, len(contracts))
	for i := range contracts {
		contract := &contracts[i]
		snap, err := p.snapshotContract(ctx, contract, &calc, &resolver, monthStart, monthEnd, today)
		if err != nil {
			return nil, fmt.Errorf("contract %d: %w", contract.ID, err)
		}
		if !matchesFilters(snap, filters, today) {
			continue
		}
		snapshots = append(snapshots, snap)
	}

	sortSnapshots(snapshots)
	return snapshots, nil
}

func (p *Planner) snapshotContract(
	ctx context.Context,
	contract *Contract,
	calc *MultiplierCalculator,
	resolver *RateResolver,
	monthStart, monthEnd, today Date,
) (ContractSnapshot, error) {
	snap := ContractSnapshot{
		ContractID:    contract.ID,
		CategoryCount: len(contract.Categories),
		LocationCount: len(contract.Stalls),
	}

	awardee, err := p.Store.Awardee(ctx, contract.AwardeeID)
	if err != nil {
		return snap, fmt.Errorf("awardee %d: %w", contract.AwardeeID, err)
	}
	if awardee != nil {
		snap.AwardeeName = awardee.Name
		snap.AwardeeIDNumber = awardee.IDNumber
	}

	primary, err := p.primaryStall(ctx, contract)
	if err != nil {
		return snap, err
	}
	if primary != nil {
		snap.ZoneID = primary.ZoneID
		snap.ZoneName = primary.ZoneName
		snap.SectorID = primary.SectorID
		snap.SectorName = primary.SectorName
	}

	multiplier, err := calc.MultiplierOf(ctx, contract)
	if err != nil {
		return snap, err
	}
	snap.Multiplier = multiplier

	payment, err := p.Store.PaymentForPeriod(ctx, contract.ID, monthStart, monthEnd)
	if err != nil {
		return snap, fmt.Errorf("payment lookup: %w", err)
	}

	switch {
	case payment != nil:
		snap.PaymentID = payment.ID
		snap.PaymentDate = payment.Date
		snap.Status = payment.Status
		snap.CalculatedAmount = payment.Amount
	case multiplier.IsPositive():
		// No row yet: project, don't materialize. Speculative amounts
		// are never written back.
		snap.Projected = true
		rate, err := resolver.Resolve(ctx, PeriodOf(today))
		switch {
		case errors.Is(err, ErrRateUnresolved):
			snap.CalculatedAmount = decimal.Zero
			p.Logger.Warn("projection without rate, amount zero",
				zap.Int64("contract_id", int64(contract.ID)))
		case err != nil:
			return snap, err
		default:
			snap.CalculatedAmount = multiplier.Mul(rate.Value)
		}
	default:
		snap.CalculatedAmount = decimal.Zero
	}

	snap.StatusText = statusText(snap, today)
	return snap, nil
}

// primaryStall applies the explicit representative rule: lowest stall
// code wins. Nil when the contract has no stalls.
func (p *Planner) primaryStall(ctx context.Context, contract *Contract) (*Stall, error) {
	var primary *Stall
	for _, id := range contract.Stalls {
		stall, err := p.Store.Stall(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("stall %d: %w", id, err)
		}
		if stall == nil {
			continue
		}
		if primary == nil || stall.Code < primary.Code {
			primary = stall
		}
	}
	return primary, nil
}

// =============================================================================
// CLASSIFICATION AND ORDERING
// =============================================================================

func statusText(snap ContractSnapshot, today Date) string {
	switch snap.Status {
	case PaymentPaid:
		return StatusTextPaid
	case PaymentCancelled:
		return StatusTextCancelled
	case PaymentRefunded:
		return StatusTextRefunded
	case PaymentPending:
		if snap.PaymentDate.Before(today) {
			return StatusTextDelinquent
		}
		return StatusTextPending
	}
	// No payment row this month.
	if snap.Multiplier.IsPositive() {
		return StatusTextUnscheduled
	}
	return StatusTextNoSchedule
}

// isDelinquent classifies against "now": pending with a past date.
func isDelinquent(snap ContractSnapshot, today Date) bool {
	return snap.Status == PaymentPending && snap.PaymentDate.Before(today)
}

func matchesFilters(snap ContractSnapshot, filters PlanningFilters, today Date) bool {
	if filters.ZoneID != nil && snap.ZoneID != *filters.ZoneID {
		return false
	}
	if filters.SectorID != nil && snap.SectorID != *filters.SectorID {
		return false
	}
	if filters.DelinquentOnly && !isDelinquent(snap, today) {
		return false
	}
	return true
}

// statusRank orders the report: delinquent, pending, unscheduled, then
// settled history (paid/cancelled/refunded).
func statusRank(text string) int {
	switch text {
	case StatusTextDelinquent:
		return 0
	case StatusTextPending:
		return 1
	case StatusTextUnscheduled, StatusTextNoSchedule:
		return 2
	default:
		return 3
	}
}

func sortSnapshots(snapshots []ContractSnapshot) {
	sort.SliceStable(snapshots, func(i, j int) bool {
		ri, rj := statusRank(snapshots[i].StatusText), statusRank(snapshots[j].StatusText)
		if ri != rj {
			return ri < rj
		}
		return snapshots[i].AwardeeName < snapshots[j].AwardeeName
	})
}

// =============================================================================
// STATISTICS
// =============================================================================

// Statistics re-runs the aggregation and folds over it. Kept as a
// reduction over the snapshot list (not a separate SQL aggregate) for
// output parity with the report itself.
func (p *Planner) Statistics(ctx context.Context, filters PlanningFilters) (MonthlyStatistics, error) {
	today := p.today()
	snapshots, err := p.PlanMonth(ctx, filters)
	if err != nil {
		return MonthlyStatistics{}, err
	}

	stats := MonthlyStatistics{
		Period:      PeriodOf(today),
		TotalAmount: decimal.Zero,
	}
	for _, snap := range snapshots {
		stats.TotalContracts++
		stats.TotalAmount = stats.TotalAmount.Add(snap.CalculatedAmount)
		switch {
		case isDelinquent(snap, today):
			stats.DelinquentQty++
		case snap.Status == PaymentPending:
			stats.PendingCount++
		case snap.Status == PaymentPaid:
			stats.PaidCount++
		}
	}
	return stats, nil
}
