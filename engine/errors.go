/*
errors.go - Centralized error types for the schedule engine

PURPOSE:
  All engine error types in one place. The store implementations and
  the API layer wrap and classify these, never invent parallel ones.

ERROR CATEGORIES:
  1. Configuration errors - caller-correctable (missing fiscal year,
     missing categories, bad billing mode). Surface as validation
     messages on contract save.
  2. Data errors - tolerated (unresolved rate degrades the charge
     amount to zero rather than failing the schedule).
  3. Persistence errors - propagated as-is, never retried here.

USAGE:
  if errors.Is(err, engine.ErrInvalidMultiplier) {
      // ask the operator to attach categories first
  }

SEE ALSO:
  - generator.go: Raises configuration errors
  - rates.go: Raises ErrRateUnresolved
*/
package engine

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrFiscalYearNotFound is returned when a contract references a
	// fiscal year that does not exist. Generation refuses to run.
	ErrFiscalYearNotFound = errors.New("fiscal year not found")

	// ErrInvalidMultiplier is returned when the summed billing weight is
	// zero or negative at generation time. It does not mean "free":
	// categories must be attached before a schedule can exist.
	ErrInvalidMultiplier = errors.New("invalid multiplier: contract has no billable weight")

	// ErrRateUnresolved is returned when no euro rate exists at all.
	// Callers treat the charge amount as zero instead of failing.
	ErrRateUnresolved = errors.New("no euro rate available")

	// ErrContractNotFound is returned for unknown contract IDs.
	ErrContractNotFound = errors.New("contract not found")

	// ErrPaymentNotFound is returned for unknown payment IDs.
	ErrPaymentNotFound = errors.New("payment not found")

	// ErrRateNotFound is returned for unknown rate IDs.
	ErrRateNotFound = errors.New("rate not found")

	// ErrRatePeriodIncomplete is returned when only one of month/year is
	// set on a rate. They are optional together, validated as a pair.
	ErrRatePeriodIncomplete = errors.New("rate month and year must both be set or both be empty")

	// ErrDuplicateRatePeriod is returned when a second rate is saved for
	// the same (month, year) pair.
	ErrDuplicateRatePeriod = errors.New("a rate already exists for this period")

	// ErrNegativeRate rejects negative bolívar values at save time.
	ErrNegativeRate = errors.New("rate value cannot be negative")

	// ErrInvalidBillingMode is returned for modes other than monthly/weekly.
	ErrInvalidBillingMode = errors.New("billing mode must be monthly or weekly")

	// ErrInvalidRange is returned when the end date precedes the start.
	ErrInvalidRange = errors.New("invalid range: end before start")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnknownMonthError reports a month number or name outside the canonical
// twelve-entry table. The legacy system silently mapped these to enero;
// this engine refuses them instead.
type UnknownMonthError struct {
	Number int
	Name   string
}

func (e *UnknownMonthError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("unknown month name %q", e.Name)
	}
	return fmt.Sprintf("unknown month number %d", e.Number)
}

// MultiplierError carries the offending contract and computed weight.
type MultiplierError struct {
	ContractID ContractID
	Multiplier string
}

func (e *MultiplierError) Error() string {
	return fmt.Sprintf("contract %d: multiplier %s is not positive; attach categories before generating",
		e.ContractID, e.Multiplier)
}

func (e *MultiplierError) Unwrap() error { return ErrInvalidMultiplier }

// FiscalYearError carries the missing fiscal year reference.
type FiscalYearError struct {
	ContractID   ContractID
	FiscalYearID FiscalYearID
}

func (e *FiscalYearError) Error() string {
	return fmt.Sprintf("contract %d: fiscal year %d does not exist", e.ContractID, e.FiscalYearID)
}

func (e *FiscalYearError) Unwrap() error { return ErrFiscalYearNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfigError reports whether the failure is caller-correctable:
// fix the contract setup and retry.
func IsConfigError(err error) bool {
	var unknownMonth *UnknownMonthError
	return errors.Is(err, ErrFiscalYearNotFound) ||
		errors.Is(err, ErrInvalidMultiplier) ||
		errors.Is(err, ErrInvalidBillingMode) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrRatePeriodIncomplete) ||
		errors.Is(err, ErrDuplicateRatePeriod) ||
		errors.Is(err, ErrNegativeRate) ||
		errors.As(err, &unknownMonth)
}

// IsNotFound reports whether the error names a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrContractNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrRateNotFound) ||
		errors.Is(err, ErrFiscalYearNotFound)
}
