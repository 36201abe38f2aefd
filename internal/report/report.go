// Package report turns solver summaries into status lines and tables.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"rootfind/internal/roots"
)

const errHeader = "rel. error (%)"

// Headers returns the column titles for m, matching the field order of its rows.
func Headers(m roots.Method) []string {
	switch m {
	case roots.MethodBisection:
		return []string{"k", "a", "b", "c_k", "f(c_k)", errHeader}
	case roots.MethodNewton:
		return []string{"k", "x_k", "f(x_k)", "f'(x_k)", "x_{k+1}", errHeader}
	case roots.MethodSecant:
		return []string{"k", "x_{k-1}", "x_k", "f(x_{k-1})", "f(x_k)", "x_{k+1}", errHeader}
	default:
		return nil
	}
}

// Cell formats a value with 8 decimals; NaN and infinities print as N/A.
func Cell(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}
	return strconv.FormatFloat(v, 'f', 8, 64)
}

// Cells renders one row in header order.
func Cells(r roots.Row) []string {
	vals := r.Values()
	out := make([]string, 0, len(vals)+2)
	out = append(out, strconv.Itoa(r.Iteration()))
	for _, v := range vals {
		out = append(out, Cell(v))
	}
	return append(out, Cell(float64(r.RelErr())))
}

// Status is the one-line verdict shown above the table.
func Status(s roots.Summary) string {
	switch s.Outcome {
	case roots.Converged:
		return fmt.Sprintf("root found: %s (iterations: %d)", Cell(s.Root), s.Iterations())
	case roots.Exhausted:
		return fmt.Sprintf("stopped: %v, best estimate %s (iterations: %d)", s.Reason, Cell(s.Root), s.Iterations())
	default:
		return fmt.Sprintf("stopped: %v (iterations: %d)", s.Reason, s.Iterations())
	}
}

// WriteCSV writes the header row followed by the trace.
func WriteCSV(w io.Writer, s roots.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers(s.Method)); err != nil {
		return err
	}
	for _, r := range s.Rows {
		rec := []string{strconv.Itoa(r.Iteration())}
		for _, v := range r.Values() {
			rec = append(rec, fmtFloat(v))
		}
		rec = append(rec, fmtFloat(float64(r.RelErr())))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CSV keeps full precision; undefined values are left empty.
func fmtFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', 16, 64)
}
