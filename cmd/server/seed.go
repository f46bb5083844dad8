/*
seed.go - Development seed data

PURPOSE:
  Populates a fresh database with a small, coherent market so the API
  can be exercised end to end without the external CRUD system: one
  zone with two sectors, a handful of stalls and categories, three
  contracts in different billing modes, and a few months of euro rates.

  Enabled with --seed. Idempotent: rows are upserted by fixed IDs.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/TLArrow401/ProyTray4-Recaudacion-sub000/engine"
	"github.com/TLArrow401/ProyTray4-Recaudacion-sub000/store/sqlite"
)

func loadSeedData(ctx context.Context, store *sqlite.Store) error {
	year := time.Now().Year()

	if err := store.SaveFiscalYear(ctx, engine.FiscalYear{
		ID:    1,
		Year:  year,
		Start: engine.NewDate(year, time.January, 1),
		End:   engine.NewDate(year, time.December, 31),
	}); err != nil {
		return fmt.Errorf("fiscal year: %w", err)
	}

	// Geography
	if err := store.SaveZone(ctx, 1, "Zona Norte"); err != nil {
		return err
	}
	if err := store.SaveSector(ctx, 1, 1, "Sector A"); err != nil {
		return err
	}
	if err := store.SaveSector(ctx, 2, 1, "Sector B"); err != nil {
		return err
	}
	stalls := []struct {
		id     engine.StallID
		code   string
		sector engine.SectorID
	}{
		{1, "A-01", 1},
		{2, "A-02", 1},
		{3, "B-01", 2},
	}
	for _, s := range stalls {
		if err := store.SaveStall(ctx, s.id, s.code, s.sector); err != nil {
			return err
		}
	}

	// Categories across both catalogs
	categories := []engine.BusinessCategory{
		{ID: 1, Catalog: engine.CatalogExternal, Name: "Verduras y hortalizas", Weight: decimal.NewFromInt(2)},
		{ID: 2, Catalog: engine.CatalogExternal, Name: "Carnes", Weight: decimal.NewFromInt(3)},
		{ID: 1, Catalog: engine.CatalogInternal, Name: "Comida preparada", Weight: decimal.NewFromInt(4)},
	}
	for _, c := range categories {
		if err := store.SaveCategory(ctx, c); err != nil {
			return err
		}
	}

	// Awardees
	awardees := []engine.Awardee{
		{ID: 1, Name: "María Contreras", IDNumber: "V-12345678"},
		{ID: 2, Name: "José Rodríguez", IDNumber: "V-23456789"},
		{ID: 3, Name: "Ana Pérez", IDNumber: "V-34567890"},
	}
	for _, a := range awardees {
		if err := store.SaveAwardee(ctx, a); err != nil {
			return err
		}
	}

	// Contracts: monthly, weekly, and categories-only
	contracts := []engine.Contract{
		{
			ID: 1, AwardeeID: 1, FiscalYearID: 1,
			StartDate: engine.NewDate(year, time.January, 15),
			EndDate:   engine.NewDate(year, time.December, 15),
			Type:      engine.ContractSimultaneous,
			Mode:      engine.BillingMonthly,
			Categories: []engine.CategoryRef{
				{Catalog: engine.CatalogExternal, CategoryID: 1},
			},
			Stalls: []engine.StallID{1},
		},
		{
			ID: 2, AwardeeID: 2, FiscalYearID: 1,
			StartDate: engine.NewDate(year, time.February, 1),
			EndDate:   engine.NewDate(year, time.April, 30),
			Type:      engine.ContractAdvance,
			Mode:      engine.BillingWeekly,
			Categories: []engine.CategoryRef{
				{Catalog: engine.CatalogExternal, CategoryID: 2},
			},
			Stalls: []engine.StallID{2, 3},
		},
		{
			ID: 3, AwardeeID: 3, FiscalYearID: 1,
			StartDate: engine.NewDate(year, time.January, 1),
			EndDate:   engine.NewDate(year, time.December, 31),
			Type:      engine.ContractSimultaneous,
			Mode:      engine.BillingMonthly,
			Categories: []engine.CategoryRef{
				{Catalog: engine.CatalogInternal, CategoryID: 1},
			},
		},
	}
	for _, c := range contracts {
		if err := store.SaveContract(ctx, c); err != nil {
			return fmt.Errorf("contract %d: %w", c.ID, err)
		}
	}

	// A few months of euro rates. Duplicates are fine on re-seed.
	rates := []engine.EuroRate{
		{Month: engine.Enero, Year: year, Value: decimal.RequireFromString("38.50")},
		{Month: engine.Febrero, Year: year, Value: decimal.RequireFromString("39.10")},
		{Month: engine.Marzo, Year: year, Value: decimal.RequireFromString("40.25")},
	}
	for _, r := range rates {
		if _, err := store.SaveRate(ctx, r); err != nil && !errors.Is(err, engine.ErrDuplicateRatePeriod) {
			return fmt.Errorf("rate %s: %w", r.Period(), err)
		}
	}

	return nil
}
