package report

import (
	"math"

	"rootfind/internal/roots"
)

// WireRow is the JSON shape of a trace row. Non-finite numbers become null.
type WireRow struct {
	K      int        `json:"k"`
	Values []*float64 `json:"values"`
	Err    *float64   `json:"err"`
	Cells  []string   `json:"cells"`
}

func Wire(r roots.Row) WireRow {
	vals := r.Values()
	w := WireRow{
		K:      r.Iteration(),
		Values: make([]*float64, len(vals)),
		Err:    finite(float64(r.RelErr())),
		Cells:  Cells(r),
	}
	for i, v := range vals {
		w.Values[i] = finite(v)
	}
	return w
}

func WireRows(rows []roots.Row) []WireRow {
	out := make([]WireRow, len(rows))
	for i, r := range rows {
		out[i] = Wire(r)
	}
	return out
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
