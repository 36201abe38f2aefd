// Package problems is the fixed catalogue of equations the tool ships with.
package problems

import (
	"math"

	"rootfind/internal/roots"
)

// Problem pairs an equation with its derivative.
type Problem struct {
	ID      string  `json:"id"`
	Formula string  `json:"formula"`
	LaTeX   string  `json:"latex"`
	Lo      float64 `json:"lo"`
	Hi      float64 `json:"hi"`

	F  roots.FuncOf `json:"-"`
	DF roots.FuncOf `json:"-"`
}

var catalogue = []Problem{
	{
		ID:      "p1",
		Formula: "x^3 - e^(0.8x) - 20 = 0",
		LaTeX:   `x^3 - e^{0.8x} - 20`,
		Lo:      3, Hi: 4,
		F: func(x float64) float64 { return x*x*x - math.Exp(0.8*x) - 20 },
		DF: func(x float64) float64 {
			return 3*x*x - 0.8*math.Exp(0.8*x)
		},
	},
	{
		ID:      "p2",
		Formula: "3 sin(0.5x) - 0.5x + 2 = 0",
		LaTeX:   `3\sin(0.5x) - 0.5x + 2`,
		Lo:      5, Hi: 6,
		F:  func(x float64) float64 { return 3*math.Sin(0.5*x) - 0.5*x + 2 },
		DF: func(x float64) float64 { return 1.5*math.Cos(0.5*x) - 0.5 },
	},
	{
		ID:      "p3",
		Formula: "x^3 - x^2 e^(-0.5x) - 3x + 1 = 0",
		LaTeX:   `x^3 - x^2 e^{-0.5x} - 3x + 1`,
		Lo:      0, Hi: 1,
		F: func(x float64) float64 { return x*x*x - x*x*math.Exp(-0.5*x) - 3*x + 1 },
		DF: func(x float64) float64 {
			ex := math.Exp(-0.5 * x)
			return 3*x*x - 3 - 2*x*ex + 0.5*x*x*ex
		},
	},
	{
		ID:      "p4",
		Formula: "cos^2(x) - 0.5x e^(0.3x) + 5 = 0",
		LaTeX:   `\cos^2(x) - 0.5x e^{0.3x} + 5`,
		Lo:      3, Hi: 4,
		F: func(x float64) float64 {
			c := math.Cos(x)
			return c*c - 0.5*x*math.Exp(0.3*x) + 5
		},
		DF: func(x float64) float64 {
			ex := math.Exp(0.3 * x)
			return -math.Sin(2*x) - 0.5*ex - 0.15*x*ex
		},
	},
}

var byID = func() map[string]Problem {
	m := make(map[string]Problem, len(catalogue))
	for _, p := range catalogue {
		m[p.ID] = p
	}
	return m
}()

// All returns the catalogue in display order.
func All() []Problem {
	return append([]Problem(nil), catalogue...)
}

func Lookup(id string) (Problem, bool) {
	p, ok := byID[id]
	return p, ok
}

// Suggest returns starting values for m taken from the suggested interval.
// Newton starts from the midpoint rounded to four decimals.
func (p Problem) Suggest(m roots.Method) roots.Params {
	switch m {
	case roots.MethodBisection:
		return roots.Params{A: p.Lo, B: p.Hi}
	case roots.MethodNewton:
		return roots.Params{X0: math.Round((p.Lo+p.Hi)/2*1e4) / 1e4}
	case roots.MethodSecant:
		return roots.Params{XPrev: p.Lo, XCurr: p.Hi}
	default:
		return roots.Params{}
	}
}

// Solve runs m on the problem.
func (p Problem) Solve(m roots.Method, params roots.Params, tol float64, opts ...roots.Option) (roots.Summary, error) {
	return roots.Solve(m, p.F, p.DF, params, tol, opts...)
}
