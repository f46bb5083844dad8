/*
dto.go - Request/response data structures for the HTTP API

PURPOSE:
  JSON shapes for the REST surface. Kept separate from the domain types
  so the wire format can evolve without touching the engine.

CONVENTIONS:
  - Dates travel as "YYYY-MM-DD" strings
  - Money travels as decimal strings ("1234.56"), never floats
  - snake_case field names

SEE ALSO:
  - handlers.go: Serialization to/from these shapes
*/
package api

import (
	"github.com/TLArrow401/ProyTray4-Recaudacion-sub000/engine"
)

// =============================================================================
// REQUESTS
// =============================================================================

// GenerateScheduleRequest drives schedule generation and regeneration.
type GenerateScheduleRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Mode      string `json:"mode"` // "monthly" or "weekly"
}

// UpdatePaymentStatusRequest records an individual payment mutation.
type UpdatePaymentStatusRequest struct {
	Status string `json:"status"` // pending, paid, cancelled, refunded
}

// CreateRateRequest adds one row to the euro rate table.
type CreateRateRequest struct {
	Month string `json:"month"` // Spanish month name, empty for general
	Year  int    `json:"year"`  // zero for general
	Value string `json:"value"` // decimal string
}

// =============================================================================
// RESPONSES
// =============================================================================

type PaymentDTO struct {
	ID         string `json:"id"`
	ContractID int64  `json:"contract_id"`
	Reference  string `json:"reference"`
	Date       string `json:"date"`
	Amount     string `json:"amount"`
	RateID     int64  `json:"rate_id,omitempty"`
	Status     string `json:"status"`
}

func toPaymentDTO(p engine.ContractPayment) PaymentDTO {
	return PaymentDTO{
		ID:         string(p.ID),
		ContractID: int64(p.ContractID),
		Reference:  p.Reference,
		Date:       p.Date.String(),
		Amount:     p.Amount.String(),
		RateID:     int64(p.RateID),
		Status:     string(p.Status),
	}
}

func toPaymentDTOs(payments []engine.ContractPayment) []PaymentDTO {
	dtos := make([]PaymentDTO, len(payments))
	for i, p := range payments {
		dtos[i] = toPaymentDTO(p)
	}
	return dtos
}

// ScheduleResponse reports what a generation run produced.
type ScheduleResponse struct {
	ContractID int64        `json:"contract_id"`
	Count      int          `json:"count"`
	Payments   []PaymentDTO `json:"payments"`
}

type RateDTO struct {
	ID    int64  `json:"id"`
	Month string `json:"month,omitempty"`
	Year  int    `json:"year,omitempty"`
	Value string `json:"value"`
}

func toRateDTO(r engine.EuroRate) RateDTO {
	return RateDTO{
		ID:    int64(r.ID),
		Month: string(r.Month),
		Year:  r.Year,
		Value: r.Value.String(),
	}
}

// PlanningRowDTO is one contract's row in the monthly report.
type PlanningRowDTO struct {
	ContractID      int64  `json:"contract_id"`
	AwardeeName     string `json:"awardee_name"`
	AwardeeIDNumber string `json:"awardee_id_number"`
	ZoneID          int64  `json:"zone_id,omitempty"`
	ZoneName        string `json:"zone_name,omitempty"`
	SectorID        int64  `json:"sector_id,omitempty"`
	SectorName      string `json:"sector_name,omitempty"`
	CategoryCount   int    `json:"category_count"`
	LocationCount   int    `json:"location_count"`
	Multiplier      string `json:"multiplier"`
	PaymentID       string `json:"payment_id,omitempty"`
	PaymentDate     string `json:"payment_date,omitempty"`
	Amount          string `json:"amount"`
	Projected       bool   `json:"projected"`
	StatusText      string `json:"status_text"`
}

func toPlanningRowDTO(s engine.ContractSnapshot) PlanningRowDTO {
	row := PlanningRowDTO{
		ContractID:      int64(s.ContractID),
		AwardeeName:     s.AwardeeName,
		AwardeeIDNumber: s.AwardeeIDNumber,
		ZoneID:          int64(s.ZoneID),
		ZoneName:        s.ZoneName,
		SectorID:        int64(s.SectorID),
		SectorName:      s.SectorName,
		CategoryCount:   s.CategoryCount,
		LocationCount:   s.LocationCount,
		Multiplier:      s.Multiplier.String(),
		PaymentID:       string(s.PaymentID),
		Amount:          s.CalculatedAmount.String(),
		Projected:       s.Projected,
		StatusText:      s.StatusText,
	}
	if !s.PaymentDate.IsZero() {
		row.PaymentDate = s.PaymentDate.String()
	}
	return row
}

type StatisticsDTO struct {
	Period         string `json:"period"`
	TotalContracts int    `json:"total_contracts"`
	TotalAmount    string `json:"total_amount"`
	PendingCount   int    `json:"pending_count"`
	PaidCount      int    `json:"paid_count"`
	DelinquentQty  int    `json:"delinquent_qty"`
}

// ErrorResponse is the shape of all error payloads.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
