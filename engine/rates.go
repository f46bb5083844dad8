/*
rates.go - Euro rate resolution with chronological fallback

PURPOSE:
  Maps a calendar (month, year) to a stored bolívar-per-euro rate.
  The table is curated by hand and has holes; resolution falls back to
  the single most recent rate when the exact period is missing.

FALLBACK SEMANTICS:
  Exact match first. If absent, the most recent rate by the total order
  (year, then month ordinal from the canonical table) wins - even when
  that rate is chronologically LATER than the requested period. Given
  rates for enero and marzo 2024 only, febrero 2024 resolves to marzo.
  This mirrors the curated-table workflow: the newest entry is the best
  available approximation.

  There is no interpolation and no ordering between the requested period
  and the result. If the table is empty, resolution fails with
  ErrRateUnresolved and callers degrade the charge amount to zero.

SEE ALSO:
  - calendar.go: MonthKey ordering
  - generator.go: Per-charge resolution
  - planning.go: Projected amounts for unscheduled months
*/
package engine

import (
	"context"
	"fmt"
)

// =============================================================================
// RATE RESOLVER
// =============================================================================

// RateResolver resolves charge periods against the rate table.
type RateResolver struct {
	Rates RateStore
}

func NewRateResolver(rates RateStore) *RateResolver {
	return &RateResolver{Rates: rates}
}

// Resolve returns the rate for the period: exact match, else the most
// recent stored rate, else ErrRateUnresolved.
func (r *RateResolver) Resolve(ctx context.Context, period RatePeriod) (*EuroRate, error) {
	if !period.Month.Valid() {
		return nil, &UnknownMonthError{Name: string(period.Month)}
	}

	rate, err := r.Rates.RateForPeriod(ctx, period)
	if err != nil {
		return nil, fmt.Errorf("rate lookup for %s: %w", period, err)
	}
	if rate != nil {
		return rate, nil
	}

	latest, err := r.Rates.LatestRate(ctx)
	if err != nil {
		return nil, fmt.Errorf("latest rate lookup: %w", err)
	}
	if latest == nil {
		return nil, ErrRateUnresolved
	}
	return latest, nil
}

// ResolveDate is a convenience over Resolve for a charge date.
func (r *RateResolver) ResolveDate(ctx context.Context, d Date) (*EuroRate, error) {
	return r.Resolve(ctx, PeriodOf(d))
}
