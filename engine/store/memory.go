// Package store provides an in-memory engine.Store implementation,
// used by tests and the dev server.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/TLArrow401/ProyTray4-Recaudacion-sub000/engine"
)

// =============================================================================
// MEMORY STORE
// =============================================================================

type Memory struct {
	mu sync.RWMutex

	// txMu serializes WithTx calls for the whole transaction span, the
	// same contract the SQLite store provides. Without it a rollback's
	// restore could clobber a concurrent transaction's committed writes.
	txMu sync.Mutex

	contracts   map[engine.ContractID]engine.Contract
	fiscalYears map[engine.FiscalYearID]engine.FiscalYear
	categories  map[engine.CategoryRef]engine.BusinessCategory
	stalls      map[engine.StallID]engine.Stall
	awardees    map[engine.AwardeeID]engine.Awardee
	rates       map[engine.RateID]engine.EuroRate
	payments    map[engine.PaymentID]engine.ContractPayment

	nextRateID engine.RateID
}

func NewMemory() *Memory {
	return &Memory{
		contracts:   make(map[engine.ContractID]engine.Contract),
		fiscalYears: make(map[engine.FiscalYearID]engine.FiscalYear),
		categories:  make(map[engine.CategoryRef]engine.BusinessCategory),
		stalls:      make(map[engine.StallID]engine.Stall),
		awardees:    make(map[engine.AwardeeID]engine.Awardee),
		rates:       make(map[engine.RateID]engine.EuroRate),
		payments:    make(map[engine.PaymentID]engine.ContractPayment),
	}
}

// =============================================================================
// SEEDING - Read models are external; tests and the dev server load
// them through these.
// =============================================================================

func (m *Memory) PutContract(c engine.Contract) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contracts[c.ID] = c
}

func (m *Memory) PutFiscalYear(fy engine.FiscalYear) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fiscalYears[fy.ID] = fy
}

func (m *Memory) PutCategory(c engine.BusinessCategory) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[engine.CategoryRef{Catalog: c.Catalog, CategoryID: c.ID}] = c
}

func (m *Memory) PutStall(s engine.Stall) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stalls[s.ID] = s
}

func (m *Memory) PutAwardee(a engine.Awardee) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.awardees[a.ID] = a
}

// =============================================================================
// CONTRACT STORE
// =============================================================================

func (m *Memory) Contract(_ context.Context, id engine.ContractID) (*engine.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contracts[id]
	if !ok {
		return nil, engine.ErrContractNotFound
	}
	return &c, nil
}

func (m *Memory) ContractsOverlapping(_ context.Context, from, to engine.Date) ([]engine.Contract, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []engine.Contract
	for _, c := range m.contracts {
		if c.ActiveDuring(from, to) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) FiscalYearExists(_ context.Context, id engine.FiscalYearID) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.fiscalYears[id]
	return ok, nil
}

// =============================================================================
// CATALOG STORE
// =============================================================================

func (m *Memory) Category(_ context.Context, ref engine.CategoryRef) (*engine.BusinessCategory, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.categories[ref]
	if !ok {
		return nil, nil // stale link, weight 0
	}
	return &c, nil
}

func (m *Memory) Stall(_ context.Context, id engine.StallID) (*engine.Stall, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.stalls[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *Memory) Awardee(_ context.Context, id engine.AwardeeID) (*engine.Awardee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.awardees[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

// =============================================================================
// RATE STORE
// =============================================================================

func (m *Memory) SaveRate(_ context.Context, rate engine.EuroRate) (engine.RateID, error) {
	if err := rate.Validate(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rate.Scoped() {
		for _, existing := range m.rates {
			if existing.Scoped() && existing.Period() == rate.Period() && existing.ID != rate.ID {
				return 0, engine.ErrDuplicateRatePeriod
			}
		}
	}

	if rate.ID == 0 {
		m.nextRateID++
		rate.ID = m.nextRateID
	} else if rate.ID > m.nextRateID {
		m.nextRateID = rate.ID
	}
	m.rates[rate.ID] = rate
	return rate.ID, nil
}

func (m *Memory) DeleteRate(_ context.Context, id engine.RateID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rates[id]; !ok {
		return engine.ErrRateNotFound
	}
	delete(m.rates, id)
	return nil
}

func (m *Memory) ListRates(_ context.Context) ([]engine.EuroRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]engine.EuroRate, 0, len(m.rates))
	for _, r := range m.rates {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[j].Period().Before(result[i].Period())
	})
	return result, nil
}

func (m *Memory) RateForPeriod(_ context.Context, period engine.RatePeriod) (*engine.EuroRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.rates {
		if r.Scoped() && r.Period() == period {
			rate := r
			return &rate, nil
		}
	}
	return nil, nil
}

func (m *Memory) LatestRate(_ context.Context) (*engine.EuroRate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	// General rates carry period (0, ""), which sorts before every
	// scoped period: they win only when the table holds nothing else.
	var latest *engine.EuroRate
	for _, r := range m.rates {
		if latest == nil || latest.Period().Before(r.Period()) {
			rate := r
			latest = &rate
		}
	}
	return latest, nil
}

// =============================================================================
// PAYMENT STORE
// =============================================================================

func (m *Memory) InsertPayments(_ context.Context, payments []engine.ContractPayment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range payments {
		m.payments[p.ID] = p
	}
	return nil
}

func (m *Memory) PaymentsByContract(_ context.Context, id engine.ContractID) ([]engine.ContractPayment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []engine.ContractPayment
	for _, p := range m.payments {
		if p.ContractID == id {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	return result, nil
}

func (m *Memory) PaymentForPeriod(_ context.Context, id engine.ContractID, from, to engine.Date) (*engine.ContractPayment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found *engine.ContractPayment
	for _, p := range m.payments {
		if p.ContractID != id {
			continue
		}
		if p.Date.Before(from) || p.Date.After(to) {
			continue
		}
		if found == nil || p.Date.Before(found.Date) {
			payment := p
			found = &payment
		}
	}
	return found, nil
}

func (m *Memory) DeletePending(_ context.Context, id engine.ContractID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	purged := 0
	for pid, p := range m.payments {
		if p.ContractID == id && p.Status == engine.PaymentPending {
			delete(m.payments, pid)
			purged++
		}
	}
	return purged, nil
}

func (m *Memory) UpdatePaymentStatus(_ context.Context, id engine.PaymentID, status engine.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return engine.ErrPaymentNotFound
	}
	p.Status = status
	m.payments[id] = p
	return nil
}

// =============================================================================
// TRANSACTIONS - Simulated with snapshot + rollback on error.
// =============================================================================

func (m *Memory) WithTx(_ context.Context, fn func(engine.Store) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.snapshotLocked()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.restoreLocked(snapshot)
		m.mu.Unlock()
		return err
	}
	return nil
}

type memorySnapshot struct {
	payments map[engine.PaymentID]engine.ContractPayment
	rates    map[engine.RateID]engine.EuroRate
}

func (m *Memory) snapshotLocked() memorySnapshot {
	paymentsCopy := make(map[engine.PaymentID]engine.ContractPayment, len(m.payments))
	for k, v := range m.payments {
		paymentsCopy[k] = v
	}
	ratesCopy := make(map[engine.RateID]engine.EuroRate, len(m.rates))
	for k, v := range m.rates {
		ratesCopy[k] = v
	}
	return memorySnapshot{payments: paymentsCopy, rates: ratesCopy}
}

func (m *Memory) restoreLocked(s memorySnapshot) {
	m.payments = s.payments
	m.rates = s.rates
}
