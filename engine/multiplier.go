/*
multiplier.go - Billing weight aggregation per contract

PURPOSE:
  A contract's charge is multiplier x rate. The multiplier is the sum of
  the billing weight ("payment_count") of every business category linked
  to the contract, whichever catalog the link points into.

EDGE CASES:
  - A link whose catalog row is missing contributes 0 (stale link, not
    an error)
  - A category without a weight contributes 0
  - No categories at all: multiplier 0, which is a hard precondition
    failure for generation, NOT a free schedule

SEE ALSO:
  - generator.go: Rejects multiplier <= 0
  - planning.go: Re-derives the multiplier live for unscheduled months
*/
package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MULTIPLIER CALCULATOR
// =============================================================================

// MultiplierCalculator sums category weights for a contract.
type MultiplierCalculator struct {
	Contracts ContractStore
	Catalog   CatalogStore
}

func NewMultiplierCalculator(contracts ContractStore, catalog CatalogStore) *MultiplierCalculator {
	return &MultiplierCalculator{Contracts: contracts, Catalog: catalog}
}

// Multiplier returns the summed weight for the contract. Zero is a
// valid return value; interpreting it is the caller's business.
func (m *MultiplierCalculator) Multiplier(ctx context.Context, id ContractID) (decimal.Decimal, error) {
	contract, err := m.Contracts.Contract(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return m.MultiplierOf(ctx, contract)
}

// MultiplierOf sums weights for an already-loaded contract, sparing a
// second contract fetch on hot paths.
func (m *MultiplierCalculator) MultiplierOf(ctx context.Context, contract *Contract) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, ref := range contract.Categories {
		cat, err := m.Catalog.Category(ctx, ref)
		if err != nil {
			return decimal.Zero, fmt.Errorf("category %s/%d: %w", ref.Catalog, ref.CategoryID, err)
		}
		if cat == nil {
			continue // stale link counts as weight 0
		}
		total = total.Add(cat.Weight)
	}
	return total, nil
}
