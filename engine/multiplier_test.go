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

func putCategory(s *enginestore.Memory, catalog engine.CategoryCatalog, id engine.CategoryID, weight int64) {
	s.PutCategory(engine.BusinessCategory{
		ID:      id,
		Catalog: catalog,
		Name:    "categoría",
		Weight:  decimal.NewFromInt(weight),
	})
}

func TestMultiplier_SumsBothCatalogs(t *testing.T) {
	// GIVEN: A contract linked to categories with weights 2 and 3,
	//        one from each catalog
	// WHEN: Computing the multiplier
	// THEN: The weights sum to 5

	store := enginestore.NewMemory()
	putCategory(store, engine.CatalogExternal, 1, 2)
	putCategory(store, engine.CatalogInternal, 7, 3)
	store.PutContract(engine.Contract{
		ID:        1,
		StartDate: engine.NewDate(2024, time.January, 1),
		EndDate:   engine.NewDate(2024, time.December, 31),
		Categories: []engine.CategoryRef{
			{Catalog: engine.CatalogExternal, CategoryID: 1},
			{Catalog: engine.CatalogInternal, CategoryID: 7},
		},
	})

	calc := engine.NewMultiplierCalculator(store, store)
	multiplier, err := calc.Multiplier(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, multiplier.Equal(decimal.NewFromInt(5)),
		"got %s", multiplier)
}

func TestMultiplier_StaleLink_CountsZero(t *testing.T) {
	// GIVEN: A contract with one real link (weight 2) and one link
	//        whose catalog row no longer exists
	// WHEN: Computing the multiplier
	// THEN: The stale link contributes 0, no error

	store := enginestore.NewMemory()
	putCategory(store, engine.CatalogExternal, 1, 2)
	store.PutContract(engine.Contract{
		ID:        1,
		StartDate: engine.NewDate(2024, time.January, 1),
		EndDate:   engine.NewDate(2024, time.December, 31),
		Categories: []engine.CategoryRef{
			{Catalog: engine.CatalogExternal, CategoryID: 1},
			{Catalog: engine.CatalogExternal, CategoryID: 999},
		},
	})

	calc := engine.NewMultiplierCalculator(store, store)
	multiplier, err := calc.Multiplier(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, multiplier.Equal(decimal.NewFromInt(2)))
}

func TestMultiplier_NoCategories_Zero(t *testing.T) {
	store := enginestore.NewMemory()
	store.PutContract(engine.Contract{
		ID:        1,
		StartDate: engine.NewDate(2024, time.January, 1),
		EndDate:   engine.NewDate(2024, time.December, 31),
		Stalls:    []engine.StallID{1},
	})

	calc := engine.NewMultiplierCalculator(store, store)
	multiplier, err := calc.Multiplier(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, multiplier.IsZero())
}

func TestMultiplier_UnknownContract(t *testing.T) {
	store := enginestore.NewMemory()
	calc := engine.NewMultiplierCalculator(store, store)

	_, err := calc.Multiplier(context.Background(), 404)
	assert.ErrorIs(t, err, engine.ErrContractNotFound)
}
