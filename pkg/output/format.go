// Package output provides utilities for formatting and displaying solved
// equilibria.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mauriciotejada/labor-economics/internal/market"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Report is the JSON document written for a set of solved scenarios.
type Report struct {
	Scenarios []market.Equilibrium `json:"scenarios"`
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(results []market.Equilibrium) {
	_ = WritePretty(os.Stdout, results)
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(results []market.Equilibrium) {
	_ = WriteCsv(os.Stdout, results)
}

// JSONFormat outputs an indented JSON report.
func JSONFormat(results []market.Equilibrium) error {
	return WriteJSON(os.Stdout, results)
}

// WritePretty writes one table per scenario to w.
func WritePretty(w io.Writer, results []market.Equilibrium) error {
	p := message.NewPrinter(language.English)
	for i, result := range results {
		lines := []struct {
			label string
			value string
		}{
			{"Productivity", result.Productivity},
			{"Reservation productivity", p.Sprintf("%.6f", result.ReservationProductivity)},
			{"Market tightness", p.Sprintf("%.6f", result.Tightness)},
			{"Unemployment rate", p.Sprintf("%.4f%%", 100*result.Unemployment)},
			{"Vacancy rate", p.Sprintf("%.4f%%", 100*result.Vacancies)},
			{"Iterations", p.Sprintf("%d tightness, %d reservation", result.OuterIterations, result.InnerIterations)},
		}
		if result.Calibrated() {
			c := result.Calibration
			lines = append(lines, struct {
				label string
				value string
			}{"Calibration", fmt.Sprintf("%s %g -> %.6f (%s = %.6f, target %g)",
				c.Parameter, c.Original, c.Value, c.Outcome, c.Achieved, c.Target)})
		}

		if _, err := fmt.Fprintf(w, "--- Results for scenario %s ---\n", result.Name); err != nil {
			return err
		}
		for _, line := range lines {
			if _, err := fmt.Fprintf(w, "%-24s | %s\n", line.label, line.value); err != nil {
				return err
			}
		}
		if len(results) > 1 && i < len(results)-1 {
			if _, err := fmt.Fprintf(w, "\n"); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteCsv writes a header and one row per scenario to w.
func WriteCsv(w io.Writer, results []market.Equilibrium) error {
	header := []string{"scenario", "productivity", "reservation productivity", "tightness",
		"unemployment", "vacancies", "tightness iterations", "reservation iterations"}
	if _, err := fmt.Fprintf(w, "%s\n", quoteAll(header)); err != nil {
		return err
	}
	for _, result := range results {
		row := []string{
			result.Name,
			result.Productivity,
			fmt.Sprintf("%.6f", result.ReservationProductivity),
			fmt.Sprintf("%.6f", result.Tightness),
			fmt.Sprintf("%.6f", result.Unemployment),
			fmt.Sprintf("%.6f", result.Vacancies),
			fmt.Sprintf("%d", result.OuterIterations),
			fmt.Sprintf("%d", result.InnerIterations),
		}
		if _, err := fmt.Fprintf(w, "%s\n", quoteAll(row)); err != nil {
			return err
		}
	}
	return nil
}

// WriteJSON writes results as an indented Report.
func WriteJSON(w io.Writer, results []market.Equilibrium) error {
	if results == nil {
		results = []market.Equilibrium{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(Report{Scenarios: results})
}

// CsvString returns the CSV rendering of results.
func CsvString(results []market.Equilibrium) string {
	var b strings.Builder
	_ = WriteCsv(&b, results)
	return b.String()
}

// PrettyString returns the table rendering of results.
func PrettyString(results []market.Equilibrium) string {
	var b strings.Builder
	_ = WritePretty(&b, results)
	return b.String()
}

func quoteAll(fields []string) string {
	quoted := make([]string, len(fields))
	for i, field := range fields {
		quoted[i] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}
