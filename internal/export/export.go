// Package export serializes expense records to CSV.
package export

import (
	"errors"
	"slices"
	"strings"
	"time"

	"expenses/internal/core"
)

// ErrNothingToExport is returned when there are no records. Its message is
// shown to users as is.
var ErrNothingToExport = errors.New("No expenses to export")

// Header is the first CSV line.
var Header = []string{"Date", "Title", "Category", "Amount"}

// Rows returns one row per record, newest date first; records sharing a date
// keep their collection order.
func Rows(records []core.Record) ([][]string, error) {
	if len(records) == 0 {
		return nil, ErrNothingToExport
	}
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b core.Record) int { return b.Date.Compare(a.Date.Time) })

	rows := make([][]string, 0, len(sorted))
	for _, r := range sorted {
		rows = append(rows, []string{r.Date.String(), r.Title, r.Category.DisplayName(), r.Amount.String()})
	}
	return rows, nil
}

// CSV renders records as newline separated lines without a trailing newline.
// Titles are wrapped in double quotes; quotes inside a title are written
// verbatim.
func CSV(records []core.Record) (string, error) {
	rows, err := Rows(records)
	if err != nil {
		return "", err
	}

	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(Header, ","))
	for _, row := range rows {
		lines = append(lines, row[0]+`,"`+row[1]+`",`+row[2]+","+row[3])
	}
	return strings.Join(lines, "\n"), nil
}

// FileName names an export made at now, e.g. expenses_2024-03-01.csv.
func FileName(now time.Time) string {
	return "expenses_" + now.Format(core.DateLayout) + ".csv"
}
