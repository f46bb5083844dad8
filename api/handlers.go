/*
handlers.go - HTTP API handlers for the payment schedule engine

PURPOSE:
  Exposes schedule generation, the euro rate table, and the monthly
  planning report via REST. Handles HTTP request/response, JSON
  serialization, and delegates to the engine.

ENDPOINTS:
  Schedules:
    POST   /api/contracts/{id}/schedule            Generate schedule
    POST   /api/contracts/{id}/schedule/regenerate Purge pending + regenerate
    GET    /api/contracts/{id}/payments            List charges

  Payments:
    PUT    /api/payments/{id}/status               Record status change

  Rates:
    GET    /api/rates                              List rate table
    POST   /api/rates                              Add rate
    DELETE /api/rates/{id}                         Remove rate

  Planning:
    GET    /api/planning                           Monthly report (JSON)
    GET    /api/planning/csv                       Monthly report (CSV export)
    GET    /api/planning/statistics                Aggregate counters

ERROR HANDLING:
  - 400: Validation errors, configuration errors (bad multiplier,
         missing fiscal year, unknown month)
  - 404: Unknown contract, payment, or rate
  - 409: Duplicate rate period
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/TLArrow401/ProyTray4-Recaudacion-sub000/engine"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     engine.TxStore
	Generator *engine.ScheduleGenerator
	Planner   *engine.Planner
	Logger    *zap.Logger
}

// NewHandler creates a handler wired to the given store.
func NewHandler(store engine.TxStore, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:     store,
		Generator: engine.NewScheduleGenerator(store, logger),
		Planner:   engine.NewPlanner(store, logger),
		Logger:    logger,
	}
}

// =============================================================================
// SCHEDULE HANDLERS
// =============================================================================

// GenerateSchedule creates the charge schedule for a contract.
// POST /api/contracts/{id}/schedule
func (h *Handler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	h.runGeneration(w, r, h.Generator.Generate)
}

// RegenerateSchedule purges pending charges and rebuilds the schedule.
// POST /api/contracts/{id}/schedule/regenerate
func (h *Handler) RegenerateSchedule(w http.ResponseWriter, r *http.Request) {
	h.runGeneration(w, r, h.Generator.Regenerate)
}

type generationFn func(ctx context.Context, id engine.ContractID, start, end engine.Date, mode engine.BillingMode) ([]engine.ContractPayment, error)

func (h *Handler) runGeneration(w http.ResponseWriter, r *http.Request, run generationFn) {
	contractID, err := contractIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contract id", err)
		return
	}

	var req GenerateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := engine.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date (use YYYY-MM-DD)", err)
		return
	}
	end, err := engine.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date (use YYYY-MM-DD)", err)
		return
	}

	payments, err := run(r.Context(), contractID, start, end, engine.BillingMode(req.Mode))
	if err != nil {
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ScheduleResponse{
		ContractID: int64(contractID),
		Count:      len(payments),
		Payments:   toPaymentDTOs(payments),
	})
}

// ListPayments returns all charges for a contract, date ascending.
// GET /api/contracts/{id}/payments
func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	contractID, err := contractIDParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contract id", err)
		return
	}

	// Unknown ID surfaces as 404 rather than an empty list.
	if _, err := h.Store.Contract(r.Context(), contractID); err != nil {
		writeEngineError(w, err)
		return
	}

	payments, err := h.Store.PaymentsByContract(r.Context(), contractID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list payments", err)
		return
	}

	writeJSON(w, http.StatusOK, toPaymentDTOs(payments))
}

// UpdatePaymentStatus records an individual payment mutation.
// PUT /api/payments/{id}/status
func (h *Handler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	paymentID := engine.PaymentID(chi.URLParam(r, "id"))

	var req UpdatePaymentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status := engine.PaymentStatus(req.Status)
	if !status.Valid() {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("Invalid status %q", req.Status), nil)
		return
	}

	if err := h.Store.UpdatePaymentStatus(r.Context(), paymentID, status); err != nil {
		writeEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RATE HANDLERS
// =============================================================================

// ListRates returns the euro rate table, newest period first.
// GET /api/rates
func (h *Handler) ListRates(w http.ResponseWriter, r *http.Request) {
	rates, err := h.Store.ListRates(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rates", err)
		return
	}

	dtos := make([]RateDTO, len(rates))
	for i, rate := range rates {
		dtos[i] = toRateDTO(rate)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateRate adds one rate row.
// POST /api/rates
func (h *Handler) CreateRate(w http.ResponseWriter, r *http.Request) {
	var req CreateRateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid value (use a decimal string)", err)
		return
	}

	rate := engine.EuroRate{
		Month: engine.MonthKey(req.Month),
		Year:  req.Year,
		Value: value,
	}

	id, err := h.Store.SaveRate(r.Context(), rate)
	if err != nil {
		if errors.Is(err, engine.ErrDuplicateRatePeriod) {
			writeError(w, http.StatusConflict, "A rate already exists for this period", err)
			return
		}
		writeEngineError(w, err)
		return
	}

	rate.ID = id
	writeJSON(w, http.StatusCreated, toRateDTO(rate))
}

// DeleteRate removes a rate row.
// DELETE /api/rates/{id}
func (h *Handler) DeleteRate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate id", err)
		return
	}

	if err := h.Store.DeleteRate(r.Context(), engine.RateID(id)); err != nil {
		writeEngineError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PLANNING HANDLERS
// =============================================================================

// GetPlanning returns the current-month planning report.
// GET /api/planning?zone_id=&sector_id=&delinquent=
func (h *Handler) GetPlanning(w http.ResponseWriter, r *http.Request) {
	filters, err := planningFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}

	snapshots, err := h.Planner.PlanMonth(r.Context(), filters)
	if err != nil {
		// The report view degrades to empty rather than breaking the
		// whole page; the failure is still visible in the logs.
		h.Logger.Error("planning report failed", zap.Error(err))
		writeJSON(w, http.StatusOK, []PlanningRowDTO{})
		return
	}

	rows := make([]PlanningRowDTO, len(snapshots))
	for i, s := range snapshots {
		rows[i] = toPlanningRowDTO(s)
	}
	writeJSON(w, http.StatusOK, rows)
}

// ExportPlanningCSV streams the report as a semicolon-delimited CSV.
// GET /api/planning/csv
func (h *Handler) ExportPlanningCSV(w http.ResponseWriter, r *http.Request) {
	filters, err := planningFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}

	snapshots, err := h.Planner.PlanMonth(r.Context(), filters)
	if err != nil {
		h.Logger.Error("planning export failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to build report", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="planificacion_mensual.csv"`)
	if err := engine.WritePlanningCSV(w, snapshots); err != nil {
		h.Logger.Error("csv write failed", zap.Error(err))
	}
}

// GetStatistics returns the aggregate counters for the current month.
// GET /api/planning/statistics
func (h *Handler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	filters, err := planningFilters(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid filter", err)
		return
	}

	stats, err := h.Planner.Statistics(r.Context(), filters)
	if err != nil {
		h.Logger.Error("statistics failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to build statistics", err)
		return
	}

	writeJSON(w, http.StatusOK, StatisticsDTO{
		Period:         stats.Period.String(),
		TotalContracts: stats.TotalContracts,
		TotalAmount:    stats.TotalAmount.String(),
		PendingCount:   stats.PendingCount,
		PaidCount:      stats.PaidCount,
		DelinquentQty:  stats.DelinquentQty,
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func contractIDParam(r *http.Request) (engine.ContractID, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return engine.ContractID(id), nil
}

func planningFilters(r *http.Request) (engine.PlanningFilters, error) {
	var filters engine.PlanningFilters

	if s := r.URL.Query().Get("zone_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return filters, fmt.Errorf("invalid zone_id %q: %w", s, err)
		}
		zoneID := engine.ZoneID(id)
		filters.ZoneID = &zoneID
	}

	if s := r.URL.Query().Get("sector_id"); s != "" {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return filters, fmt.Errorf("invalid sector_id %q: %w", s, err)
		}
		sectorID := engine.SectorID(id)
		filters.SectorID = &sectorID
	}

	filters.DelinquentOnly = r.URL.Query().Get("delinquent") == "true"
	return filters, nil
}

// writeEngineError maps engine errors onto HTTP status codes.
// Configuration errors are classified first: a missing fiscal year is
// both not-found and caller-correctable, and it surfaces as the latter.
func writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case engine.IsConfigError(err):
		writeError(w, http.StatusBadRequest, "Configuration error", err)
	case engine.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case errors.Is(err, engine.ErrInvalidBillingMode),
		errors.Is(err, engine.ErrInvalidRange),
		errors.Is(err, engine.ErrRatePeriodIncomplete),
		errors.Is(err, engine.ErrNegativeRate):
		writeError(w, http.StatusBadRequest, "Validation error", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
