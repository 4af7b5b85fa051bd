package inventory

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/giygas/medicine-inventory/catalog"
)

// ErrNothingToExport is returned when the loaded page has no records.
var ErrNothingToExport = errors.New("no data to export")

// NoDataNotice is shown when an export is requested on an empty page.
const NoDataNotice = "No data to export"

var csvHeader = []string{"Brand Name", "Generic Name", "Type", "Dosage Form", "Strength", "Manufacturer", "Price"}

// ExportFileName returns the CSV file name for the given instant, dated in UTC.
func ExportFileName(now time.Time) string {
	return "medicine_inventory_" + now.UTC().Format(time.DateOnly) + ".csv"
}

// EncodeCSV renders records as CSV: an unquoted header line, then one line per
// record with every field wrapped in double quotes. Embedded quotes are written
// as-is. Lines are separated by "\n" with no trailing newline.
func EncodeCSV(records []catalog.Medicine) string {
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(csvHeader, ","))

	for _, m := range records {
		fields := []string{
			m.BrandName,
			m.Generic,
			m.Type,
			m.DosageForm,
			m.Strength,
			m.Manufacturer,
			strconv.FormatFloat(m.PriceOrZero(), 'f', -1, 64),
		}
		for i, f := range fields {
			fields[i] = `"` + f + `"`
		}
		lines = append(lines, strings.Join(fields, ","))
	}

	return strings.Join(lines, "\n")
}

// WriteCSV writes EncodeCSV(records) to w.
func WriteCSV(w io.Writer, records []catalog.Medicine) error {
	_, err := io.WriteString(w, EncodeCSV(records))
	return err
}
