// Package export renders a result table for downstream consumers: long-form
// CSV for charting tools and a styled summary for the terminal.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/epilab/episim/internal/runner"
)

// WriteCSV writes the table in long form with a header row. Values are
// emitted at full float64 precision; the engine never rounds.
func WriteCSV(w io.Writer, table runner.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"scenario", "time", "compartment", "value"}); err != nil {
		return err
	}
	for _, r := range table {
		record := []string{
			r.Scenario,
			strconv.FormatFloat(r.Time, 'g', -1, 64),
			r.Compartment,
			strconv.FormatFloat(r.Value, 'g', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
