/*
Package engine implements the contract payment schedule engine for the
market concession collections system.

PURPOSE:
  Given a contract (an awardee's lease over business categories and/or
  market stalls, for a fiscal year, billed monthly or weekly), the engine
  computes how many charges occur, on what dates, and what each charge is
  worth in bolívares, using a manually curated bolívar-per-euro rate table.

KEY CONCEPTS IN THIS FILE (calendar.go):
  - MonthKey: the canonical Spanish lowercase month name used as the sole
    calendar key of the rate table (enero..diciembre)
  - Date: a day-granular point in time used for charge enumeration
  - RatePeriod: a (month, year) pair identifying one rate table entry

DESIGN PRINCIPLES:
  1. One month table: every name<->number conversion and every ordering
     decision goes through the single table below. No scattered literals.
  2. Loud failures: an unrecognized month number is an error, never a
     silent default.
  3. UTC days: charge dates carry no clock or zone component.

SEE ALSO:
  - rates.go: Rate resolution keyed by RatePeriod
  - generator.go: Charge date enumeration over Date
*/
package engine

import (
	"fmt"
	"time"
)

// =============================================================================
// MONTH KEYS - Canonical Spanish month names
// =============================================================================

// MonthKey is a Spanish lowercase month name. The rate table is keyed by
// these names, so they are the calendar vocabulary of the whole engine.
type MonthKey string

const (
	Enero      MonthKey = "enero"
	Febrero    MonthKey = "febrero"
	Marzo      MonthKey = "marzo"
	Abril      MonthKey = "abril"
	Mayo       MonthKey = "mayo"
	Junio      MonthKey = "junio"
	Julio      MonthKey = "julio"
	Agosto     MonthKey = "agosto"
	Septiembre MonthKey = "septiembre"
	Octubre    MonthKey = "octubre"
	Noviembre  MonthKey = "noviembre"
	Diciembre  MonthKey = "diciembre"
)

// monthKeys is the ONE table mapping ordinal to name. Index 0 = enero.
var monthKeys = [12]MonthKey{
	Enero, Febrero, Marzo, Abril, Mayo, Junio,
	Julio, Agosto, Septiembre, Octubre, Noviembre, Diciembre,
}

// monthOrdinals is the reverse lookup, built once at init.
var monthOrdinals = func() map[MonthKey]int {
	m := make(map[MonthKey]int, len(monthKeys))
	for i, k := range monthKeys {
		m[k] = i + 1
	}
	return m
}()

// MonthKeyFor converts a calendar month to its canonical Spanish name.
// The legacy system defaulted unrecognized numbers to enero; that was a
// latent bug, so here an out-of-range month is an error.
func MonthKeyFor(m time.Month) (MonthKey, error) {
	if m < time.January || m > time.December {
		return "", &UnknownMonthError{Number: int(m)}
	}
	return monthKeys[m-1], nil
}

// Ordinal returns the 1-based position of the month (enero = 1).
// Unknown names return 0, which sorts before every real month.
func (k MonthKey) Ordinal() int {
	return monthOrdinals[k]
}

// Valid reports whether the key is one of the twelve canonical names.
func (k MonthKey) Valid() bool {
	_, ok := monthOrdinals[k]
	return ok
}

// Month returns the time.Month for the key, or an error for unknown names.
func (k MonthKey) Month() (time.Month, error) {
	ord, ok := monthOrdinals[k]
	if !ok {
		return 0, &UnknownMonthError{Name: string(k)}
	}
	return time.Month(ord), nil
}

// =============================================================================
// RATE PERIOD - (month, year) addressing into the rate table
// =============================================================================

// RatePeriod identifies one slot of the rate table.
type RatePeriod struct {
	Month MonthKey
	Year  int
}

// PeriodOf returns the rate period containing the given date.
func PeriodOf(d Date) RatePeriod {
	key, _ := MonthKeyFor(d.Month()) // Date months are always in range
	return RatePeriod{Month: key, Year: d.Year()}
}

// Before orders periods chronologically: by year, then month ordinal.
func (p RatePeriod) Before(other RatePeriod) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month.Ordinal() < other.Month.Ordinal()
}

func (p RatePeriod) String() string {
	return fmt.Sprintf("%s %d", p.Month, p.Year)
}

// =============================================================================
// DATE - Day-granular time point
// =============================================================================

// Date is a calendar day in UTC. Charge dates never carry a clock.
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an arbitrary time to its UTC calendar day.
func DateOf(t time.Time) Date {
	u := t.UTC()
	return NewDate(u.Year(), u.Month(), u.Day())
}

func Today() Date { return DateOf(time.Now()) }

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }
func (d Date) IsZero() bool                  { return d.t.IsZero() }

// Arithmetic
func (d Date) AddDays(n int) Date   { return Date{t: d.t.AddDate(0, 0, n)} }
func (d Date) AddMonths(n int) Date { return Date{t: d.t.AddDate(0, n, 0)} }

// Properties
func (d Date) Year() int         { return d.t.Year() }
func (d Date) Month() time.Month { return d.t.Month() }
func (d Date) Day() int          { return d.t.Day() }
func (d Date) Time() time.Time   { return d.t }

func (d Date) String() string { return d.t.Format("2006-01-02") }

// FormatDMY renders the date in the dd/mm/yyyy export form.
func (d Date) FormatDMY() string { return d.t.Format("02/01/2006") }

// ParseDate parses a yyyy-mm-dd string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// =============================================================================
// MONTH BOUNDS
// =============================================================================

func StartOfMonth(year int, month time.Month) Date {
	return NewDate(year, month, 1)
}

func EndOfMonth(year int, month time.Month) Date {
	return NewDate(year, month+1, 1).AddDays(-1)
}

// MonthBounds returns the [first, last] days of the month containing d.
func MonthBounds(d Date) (Date, Date) {
	return StartOfMonth(d.Year(), d.Month()), EndOfMonth(d.Year(), d.Month())
}
