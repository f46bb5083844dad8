/*
generator.go - Charge schedule generation and regeneration

PURPOSE:
  Enumerates charge dates over a contract's range and writes one pending
  ContractPayment per date, amount = multiplier x rate at that date's
  period.

DATE ENUMERATION:
  Literal stepping, inclusive of the end date:
    current = start
    while current <= end:
        emit charge at current
        current += 7 days (weekly) | 1 calendar month (monthly)
  No off-by-one correction beyond "add interval, compare". A charge
  lands exactly on the end date when the stepping aligns.

PRECONDITIONS:
  - The contract's fiscal year exists (ErrFiscalYearNotFound)
  - The multiplier is > 0 (ErrInvalidMultiplier)

DEGRADED RATES:
  An empty rate table does not abort the schedule: the affected charge
  is written with amount 0 and no rate reference, and the generator
  logs it. Configuration errors abort; data holes degrade.

ATOMICITY:
  The whole batch is inserted inside one store transaction. The legacy
  system inserted row by row and could leave partial schedules behind on
  failure; that gap is closed here. Regeneration additionally runs its
  pending-delete in the SAME transaction, serializing concurrent edits
  of one contract.

SEE ALSO:
  - rates.go: Per-charge rate resolution
  - multiplier.go: Weight aggregation
  - store.go: TxStore contract
*/
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// =============================================================================
// SCHEDULE GENERATOR
// =============================================================================

// ScheduleGenerator creates payment schedules for contracts.
type ScheduleGenerator struct {
	Store  TxStore
	Logger *zap.Logger
}

func NewScheduleGenerator(store TxStore, logger *zap.Logger) *ScheduleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleGenerator{Store: store, Logger: logger}
}

// Generate builds and persists the schedule for the contract over
// [start, end] in the given mode. Returns the inserted rows in date
// order.
func (g *ScheduleGenerator) Generate(ctx context.Context, id ContractID, start, end Date, mode BillingMode) ([]ContractPayment, error) {
	var payments []ContractPayment
	err := g.Store.WithTx(ctx, func(s Store) error {
		var err error
		payments, err = g.generateIn(ctx, s, id, start, end, mode)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// Regenerate purges the contract's pending charges and generates a
// fresh schedule with the new parameters, all in one transaction.
// Paid, cancelled and refunded rows survive untouched. Calling it twice
// with identical inputs yields an identical schedule: pending rows are
// wiped first, so no duplicate detection is needed.
func (g *ScheduleGenerator) Regenerate(ctx context.Context, id ContractID, start, end Date, mode BillingMode) ([]ContractPayment, error) {
	var payments []ContractPayment
	err := g.Store.WithTx(ctx, func(s Store) error {
		purged, err := s.DeletePending(ctx, id)
		if err != nil {
			return fmt.Errorf("purge pending payments: %w", err)
		}
		g.Logger.Info("purged pending payments",
			zap.Int64("contract_id", int64(id)),
			zap.Int("purged", purged))

		payments, err = g.generateIn(ctx, s, id, start, end, mode)
		return err
	})
	if err != nil {
		return nil, err
	}
	return payments, nil
}

// generateIn does the actual work against the (possibly transactional)
// store view.
func (g *ScheduleGenerator) generateIn(ctx context.Context, s Store, id ContractID, start, end Date, mode BillingMode) ([]ContractPayment, error) {
	if !mode.Valid() {
		return nil, ErrInvalidBillingMode
	}
	if end.Before(start) {
		return nil, ErrInvalidRange
	}

	contract, err := s.Contract(ctx, id)
	if err != nil {
		return nil, err
	}

	exists, err := s.FiscalYearExists(ctx, contract.FiscalYearID)
	if err != nil {
		return nil, fmt.Errorf("fiscal year lookup: %w", err)
	}
	if !exists {
		return nil, &FiscalYearError{ContractID: id, FiscalYearID: contract.FiscalYearID}
	}

	calc := MultiplierCalculator{Contracts: s, Catalog: s}
	multiplier, err := calc.MultiplierOf(ctx, contract)
	if err != nil {
		return nil, err
	}
	if !multiplier.IsPositive() {
		return nil, &MultiplierError{ContractID: id, Multiplier: multiplier.String()}
	}

	resolver := RateResolver{Rates: s}
	var payments []ContractPayment

	for i, date := range EnumerateChargeDates(start, end, mode) {
		payment := ContractPayment{
			ID:         PaymentID(uuid.NewString()),
			ContractID: id,
			Reference:  PaymentReference(id, i+1),
			Date:       date,
			Status:     PaymentPending,
		}

		rate, err := resolver.ResolveDate(ctx, date)
		switch {
		case errors.Is(err, ErrRateUnresolved):
			// Data hole, not a configuration error: charge is worth
			// zero until a rate is curated.
			payment.Amount = decimal.Zero
			g.Logger.Warn("no rate for charge, amount degraded to zero",
				zap.Int64("contract_id", int64(id)),
				zap.String("charge_date", date.String()))
		case err != nil:
			return nil, err
		default:
			payment.Amount = multiplier.Mul(rate.Value)
			payment.RateID = rate.ID
		}

		payments = append(payments, payment)
	}

	if err := s.InsertPayments(ctx, payments); err != nil {
		return nil, fmt.Errorf("insert schedule: %w", err)
	}

	g.Logger.Info("schedule generated",
		zap.Int64("contract_id", int64(id)),
		zap.String("mode", string(mode)),
		zap.Int("charges", len(payments)))
	return payments, nil
}

// =============================================================================
// DATE ENUMERATION
// =============================================================================

// EnumerateChargeDates lists the charge dates over [start, end] for the
// mode, by literal stepping. start itself is always the first charge.
func EnumerateChargeDates(start, end Date, mode BillingMode) []Date {
	var dates []Date
	current := start
	for current.BeforeOrEqual(end) {
		dates = append(dates, current)
		if mode == BillingWeekly {
			current = current.AddDays(7)
		} else {
			current = current.AddMonths(1)
		}
	}
	return dates
}

// PaymentReference builds the human-facing charge reference:
// PAY-<contract>-<NNN>, index zero-padded to three digits.
func PaymentReference(id ContractID, index int) string {
	return fmt.Sprintf("PAY-%d-%03d", id, index)
}
