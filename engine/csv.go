/*
csv.go - Planning report CSV serialization

PURPOSE:
  Serializes the monthly planning snapshot list in the exact shape the
  downstream spreadsheet consumers expect. This shape is a contract:
  semicolon-delimited, UTF-8 BOM prefix (so Excel picks up accents),
  amounts in Latin-American "$#,##0.00" formatting (dot thousands,
  comma decimals), dates dd/mm/yyyy.

COLUMNS:
  contract id; awardee name; id number; zone; sector; category count;
  location count; amount; date; status text

SEE ALSO:
  - planning.go: Produces the snapshot list
*/
package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var csvHeader = []string{
	"Contrato", "Adjudicatario", "Cédula", "Zona", "Sector",
	"Rubros", "Puestos", "Monto", "Fecha", "Estatus",
}

// utf8BOM makes Excel decode the file as UTF-8 instead of Latin-1.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// WritePlanningCSV serializes the report to w.
func WritePlanningCSV(w io.Writer, snapshots []ContractSnapshot) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)
	cw.Comma = ';'

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, snap := range snapshots {
		date := ""
		if !snap.PaymentDate.IsZero() {
			date = snap.PaymentDate.FormatDMY()
		}
		record := []string{
			strconv.FormatInt(int64(snap.ContractID), 10),
			snap.AwardeeName,
			snap.AwardeeIDNumber,
			snap.ZoneName,
			snap.SectorName,
			strconv.Itoa(snap.CategoryCount),
			strconv.Itoa(snap.LocationCount),
			FormatCurrency(snap.CalculatedAmount),
			date,
			snap.StatusText,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// FormatCurrency renders an amount as "$#,##0.00" with Latin-American
// separators: $1.234,56.
func FormatCurrency(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	parts := strings.SplitN(fixed, ".", 2)
	intPart, fracPart := parts[0], parts[1]

	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%s$%s,%s", sign, grouped.String(), fracPart)
}
