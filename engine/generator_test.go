package engine_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TLArrow401/ProyTray4-Recaudacion-sub000/engine"
	enginestore "github.com/TLArrow401/ProyTray4-Recaudacion-sub000/engine/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// newScheduleFixture seeds a store with one contract (multiplier 5)
// and a rate table covering early 2024.
func newScheduleFixture(t *testing.T) (*engine.ScheduleGenerator, *enginestore.Memory) {
	t.Helper()
	store := enginestore.NewMemory()

	store.PutFiscalYear(engine.FiscalYear{
		ID:    1,
		Year:  2024,
		Start: engine.NewDate(2024, time.January, 1),
		End:   engine.NewDate(2024, time.December, 31),
	})
	putCategory(store, engine.CatalogExternal, 1, 2)
	putCategory(store, engine.CatalogInternal, 1, 3)
	store.PutContract(engine.Contract{
		ID:           10,
		AwardeeID:    1,
		FiscalYearID: 1,
		StartDate:    engine.NewDate(2024, time.January, 1),
		EndDate:      engine.NewDate(2024, time.December, 31),
		Type:         engine.ContractSimultaneous,
		Mode:         engine.BillingMonthly,
		Categories: []engine.CategoryRef{
			{Catalog: engine.CatalogExternal, CategoryID: 1},
			{Catalog: engine.CatalogInternal, CategoryID: 1},
		},
	})

	mustSaveRate(t, store, engine.Enero, 2024, "38.50")
	mustSaveRate(t, store, engine.Febrero, 2024, "39.10")
	mustSaveRate(t, store, engine.Marzo, 2024, "40.25")
	mustSaveRate(t, store, engine.Abril, 2024, "41.00")

	return engine.NewScheduleGenerator(store, nil), store
}

// =============================================================================
// DATE ENUMERATION
// =============================================================================

func TestEnumerateChargeDates_Weekly(t *testing.T) {
	// GIVEN: A four-week range whose stepping lands on the end date
	// WHEN: Enumerating weekly
	// THEN: Five charges, end date inclusive

	dates := engine.EnumerateChargeDates(
		engine.NewDate(2024, time.January, 1),
		engine.NewDate(2024, time.January, 29),
		engine.BillingWeekly)

	want := []string{"2024-01-01", "2024-01-08", "2024-01-15", "2024-01-22", "2024-01-29"}
	require.Len(t, dates, len(want))
	for i, d := range dates {
		assert.Equal(t, want[i], d.String())
	}
}

func TestEnumerateChargeDates_Monthly(t *testing.T) {
	dates := engine.EnumerateChargeDates(
		engine.NewDate(2024, time.January, 15),
		engine.NewDate(2024, time.April, 15),
		engine.BillingMonthly)

	want := []string{"2024-01-15", "2024-02-15", "2024-03-15", "2024-04-15"}
	require.Len(t, dates, len(want))
	for i, d := range dates {
		assert.Equal(t, want[i], d.String())
	}
}

func TestEnumerateChargeDates_Monthly_MonthEndDrift(t *testing.T) {
	// Stepping from January 31 lands on March 2 (January 31 plus one
	// month normalizes through the short February) and drifts to the
	// 2nd from there on. February gets no charge. This pins the literal
	// calendar stepping the billing run has always used.
	dates := engine.EnumerateChargeDates(
		engine.NewDate(2024, time.January, 31),
		engine.NewDate(2024, time.April, 30),
		engine.BillingMonthly)

	want := []string{"2024-01-31", "2024-03-02", "2024-04-02"}
	require.Len(t, dates, len(want))
	for i, d := range dates {
		assert.Equal(t, want[i], d.String())
	}
}

func TestEnumerateChargeDates_SingleDay(t *testing.T) {
	// start == end yields exactly one charge in either mode
	day := engine.NewDate(2024, time.June, 1)
	assert.Len(t, engine.EnumerateChargeDates(day, day, engine.BillingWeekly), 1)
	assert.Len(t, engine.EnumerateChargeDates(day, day, engine.BillingMonthly), 1)
}

// =============================================================================
// GENERATION
// =============================================================================

func TestGenerate_Monthly_AmountsAndReferences(t *testing.T) {
	// GIVEN: A contract with multiplier 5 and monthly rates
	// WHEN: Generating January through April
	// THEN: Four pending charges, each 5 x that month's rate, with
	//       sequential zero-padded references

	gen, _ := newScheduleFixture(t)

	payments, err := gen.Generate(context.Background(), 10,
		engine.NewDate(2024, time.January, 15),
		engine.NewDate(2024, time.April, 15),
		engine.BillingMonthly)
	require.NoError(t, err)
	require.Len(t, payments, 4)

	wantAmounts := []string{"192.5", "195.5", "201.25", "205"}
	for i, p := range payments {
		assert.Equal(t, engine.PaymentPending, p.Status)
		assert.True(t, p.Amount.Equal(decimal.RequireFromString(wantAmounts[i])),
			"charge %d: got %s, want %s", i, p.Amount, wantAmounts[i])
		assert.NotZero(t, p.RateID)
		assert.NotEmpty(t, p.ID)
	}

	assert.Equal(t, "PAY-10-001", payments[0].Reference)
	assert.Equal(t, "PAY-10-002", payments[1].Reference)
	assert.Equal(t, "PAY-10-004", payments[3].Reference)
}

func TestGenerate_Weekly_FiveCharges(t *testing.T) {
	gen, store := newScheduleFixture(t)

	payments, err := gen.Generate(context.Background(), 10,
		engine.NewDate(2024, time.January, 1),
		engine.NewDate(2024, time.January, 29),
		engine.BillingWeekly)
	require.NoError(t, err)
	require.Len(t, payments, 5)

	// All January charges use the enero rate: 5 x 38.50
	for _, p := range payments {
		assert.True(t, p.Amount.Equal(decimal.RequireFromString("192.5")))
	}

	persisted, err := store.PaymentsByContract(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, persisted, 5, "batch is persisted")
}

func TestGenerate_EmptyRateTable_ZeroAmounts(t *testing.T) {
	// GIVEN: A valid contract but no rates at all
	// WHEN: Generating
	// THEN: The schedule is still created with zero amounts and no
	//       rate references. Data holes degrade; they do not abort.

	store := enginestore.NewMemory()
	store.PutFiscalYear(engine.FiscalYear{ID: 1, Year: 2024,
		Start: engine.NewDate(2024, time.January, 1),
		End:   engine.NewDate(2024, time.December, 31)})
	putCategory(store, engine.CatalogExternal, 1, 2)
	store.PutContract(engine.Contract{
		ID: 10, FiscalYearID: 1,
		StartDate:  engine.NewDate(2024, time.January, 1),
		EndDate:    engine.NewDate(2024, time.December, 31),
		Categories: []engine.CategoryRef{{Catalog: engine.CatalogExternal, CategoryID: 1}},
	})

	gen := engine.NewScheduleGenerator(store, nil)
	payments, err := gen.Generate(context.Background(), 10,
		engine.NewDate(2024, time.January, 1),
		engine.NewDate(2024, time.March, 1),
		engine.BillingMonthly)
	require.NoError(t, err)
	require.Len(t, payments, 3)

	for _, p := range payments {
		assert.True(t, p.Amount.IsZero())
		assert.Zero(t, p.RateID)
		assert.Equal(t, engine.PaymentPending, p.Status)
	}
}

// =============================================================================
// PRECONDITIONS
// =============================================================================

func TestGenerate_ZeroMultiplier_Rejected(t *testing.T) {
	// GIVEN: A contract whose categories sum to weight 0
	// WHEN: Generating
	// THEN: Hard failure, nothing persisted. Weight 0 would mean a
	//       free schedule, which is a configuration error.

	store := enginestore.NewMemory()
	store.PutFiscalYear(engine.FiscalYear{ID: 1, Year: 2024,
		Start: engine.NewDate(2024, time.January, 1),
		End:   engine.NewDate(2024, time.December, 31)})
	putCategory(store, engine.CatalogExternal, 1, 0)
	store.PutContract(engine.Contract{
		ID: 10, FiscalYearID: 1,
		StartDate:  engine.NewDate(2024, time.January, 1),
		EndDate:    engine.NewDate(2024, time.December, 31),
		Categories: []engine.CategoryRef{{Catalog: engine.CatalogExternal, CategoryID: 1}},
	})

	gen := engine.NewScheduleGenerator(store, nil)
	_, err := gen.Generate(context.Background(), 10,
		engine.NewDate(2024, time.January, 1),
		engine.NewDate(2024, time.March, 1),
		engine.BillingMonthly)

	assert.ErrorIs(t, err, engine.ErrInvalidMultiplier)
	var multErr *engine.MultiplierError
	assert.ErrorAs(t, err, &multErr)

	persisted, _ := store.PaymentsByContract(context.Background(), 10)
	assert.Empty(t, persisted, "failed generation leaves nothing behind")
}

func TestGenerate_MissingFiscalYear_Rejected(t *testing.T) {
	store := enginestore.NewMemory()
	putCategory(store, engine.CatalogExternal, 1, 2)
	store.PutContract(engine.Contract{
		ID: 10, FiscalYearID: 99,
		StartDate:  engine.NewDate(2024, time.January, 1),
		EndDate:    engine.NewDate(2024, time.December, 31),
		Categories: []engine.CategoryRef{{Catalog: engine.CatalogExternal, CategoryID: 1}},
	})

	gen := engine.NewScheduleGenerator(store, nil)
	_, err := gen.Generate(context.Background(), 10,
		engine.NewDate(2024, time.January, 1),
		engine.NewDate(2024, time.March, 1),
		engine.BillingMonthly)

	assert.ErrorIs(t, err, engine.ErrFiscalYearNotFound)
}

func TestGenerate_InvalidInputs(t *testing.T) {
	gen, _ := newScheduleFixture(t)
	ctx := context.Background()
	jan := engine.NewDate(2024, time.January, 1)
	mar := engine.NewDate(2024, time.March, 1)

	_, err := gen.Generate(ctx, 10, jan, mar, "quarterly")
	assert.ErrorIs(t, err, engine.ErrInvalidBillingMode)

	_, err = gen.Generate(ctx, 10, mar, jan, engine.BillingMonthly)
	assert.ErrorIs(t, err, engine.ErrInvalidRange)

	_, err = gen.Generate(ctx, 404, jan, mar, engine.BillingMonthly)
	assert.ErrorIs(t, err, engine.ErrContractNotFound)
}

// =============================================================================
// REGENERATION
// =============================================================================

func TestRegenerate_Idempotent(t *testing.T) {
	// GIVEN: A generated schedule
	// WHEN: Regenerating twice with identical parameters
	// THEN: The same (date, amount) schedule both times, no duplicates

	gen, store := newScheduleFixture(t)
	ctx := context.Background()
	start := engine.NewDate(2024, time.January, 15)
	end := engine.NewDate(2024, time.April, 15)

	first, err := gen.Regenerate(ctx, 10, start, end, engine.BillingMonthly)
	require.NoError(t, err)
	second, err := gen.Regenerate(ctx, 10, start, end, engine.BillingMonthly)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.True(t, first[i].Date.Equal(second[i].Date))
		assert.True(t, first[i].Amount.Equal(second[i].Amount))
	}

	persisted, err := store.PaymentsByContract(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, persisted, len(first), "old pending rows are replaced, not duplicated")
}

func TestRegenerate_PaidRowsSurvive(t *testing.T) {
	// GIVEN: A schedule where the first charge was paid
	// WHEN: Regenerating with a different mode
	// THEN: The paid row survives untouched; only pending rows are purged

	gen, store := newScheduleFixture(t)
	ctx := context.Background()

	payments, err := gen.Generate(ctx, 10,
		engine.NewDate(2024, time.January, 15),
		engine.NewDate(2024, time.April, 15),
		engine.BillingMonthly)
	require.NoError(t, err)
	paidID := payments[0].ID
	require.NoError(t, store.UpdatePaymentStatus(ctx, paidID, engine.PaymentPaid))

	regenerated, err := gen.Regenerate(ctx, 10,
		engine.NewDate(2024, time.February, 1),
		engine.NewDate(2024, time.February, 29),
		engine.BillingWeekly)
	require.NoError(t, err)
	require.Len(t, regenerated, 5, "feb 1, 8, 15, 22, 29")

	persisted, err := store.PaymentsByContract(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, persisted, 6, "5 new pending + 1 surviving paid")

	var paidFound bool
	for _, p := range persisted {
		if p.ID == paidID {
			paidFound = true
			assert.Equal(t, engine.PaymentPaid, p.Status)
		}
	}
	assert.True(t, paidFound, "paid row is immutable history")
}

func TestRegenerate_FailureRollsBack(t *testing.T) {
	// GIVEN: An existing schedule
	// WHEN: Regeneration fails midway (bad range after the purge step)
	// THEN: The original pending rows are restored; the purge and the
	//       failed insert share one transaction

	gen, store := newScheduleFixture(t)
	ctx := context.Background()

	_, err := gen.Generate(ctx, 10,
		engine.NewDate(2024, time.January, 15),
		engine.NewDate(2024, time.April, 15),
		engine.BillingMonthly)
	require.NoError(t, err)

	_, err = gen.Regenerate(ctx, 10,
		engine.NewDate(2024, time.March, 1),
		engine.NewDate(2024, time.January, 1), // end before start
		engine.BillingMonthly)
	require.Error(t, err)

	persisted, err := store.PaymentsByContract(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, persisted, 4, "failed regeneration leaves the old schedule intact")
}
