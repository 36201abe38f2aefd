package roots_test

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"rootfind/internal/roots"
)

var (
	p1  = roots.FuncOf(func(x float64) float64 { return x*x*x - math.Exp(0.8*x) - 20 })
	p2  = roots.FuncOf(func(x float64) float64 { return 3*math.Sin(0.5*x) - 0.5*x + 2 })
	dp2 = roots.FuncOf(func(x float64) float64 { return 1.5*math.Cos(0.5*x) - 0.5 })
)

func near(a, b, eps float64) bool { return math.Abs(a-b) <= eps }

func TestBisection_Converges(t *testing.T) {
	res, err := roots.Bisection(p1, 3, 4, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != roots.Converged || res.Reason != nil {
		t.Fatalf("want converged, got %v (%v)", res.Outcome, res.Reason)
	}
	if res.Root != 3.203125 {
		t.Errorf("want root 3.203125, got %v", res.Root)
	}
	if res.Iterations() != 6 {
		t.Errorf("want 6 iterations, got %d", res.Iterations())
	}

	first := res.Trace[0]
	if first.K != 1 || first.A != 3 || first.B != 4 || first.C != 3.5 {
		t.Errorf("unexpected first row: %+v", first)
	}
	last := res.Trace[len(res.Trace)-1]
	if last.C != res.Root || float64(last.Err) >= 0.5 {
		t.Errorf("last row should carry the root under tolerance, got %+v", last)
	}
}

func TestBisection_BracketInvariant(t *testing.T) {
	res, _ := roots.Bisection(p1, 3, 4, 0.01)
	for _, row := range res.Trace {
		if !(row.A <= row.C && row.C <= row.B) {
			t.Errorf("row %d: midpoint %v outside [%v, %v]", row.K, row.C, row.A, row.B)
		}
		fa, _ := p1.Eval(row.A)
		fb, _ := p1.Eval(row.B)
		if fa*fb >= 0 {
			t.Errorf("row %d: [%v, %v] lost the sign change", row.K, row.A, row.B)
		}
	}
}

func TestBisection_InvalidBracket(t *testing.T) {
	res, err := roots.Bisection(p1, 0, 1, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != roots.Failed || !errors.Is(res.Reason, roots.ErrInvalidBracket) {
		t.Fatalf("want invalid bracket failure, got %v (%v)", res.Outcome, res.Reason)
	}
	if len(res.Trace) != 0 {
		t.Errorf("want empty trace, got %d rows", len(res.Trace))
	}
	if !math.IsNaN(res.Root) || res.HasRoot() {
		t.Errorf("want undefined root, got %v", res.Root)
	}
}

func TestBisection_ZeroMidpointLeavesErrorUndefined(t *testing.T) {
	f := roots.FuncOf(func(x float64) float64 { return x - 0.1 })
	res, _ := roots.Bisection(f, -1, 3, 0.5)
	if res.Trace[1].C != 0 {
		t.Fatalf("want second midpoint 0, got %v", res.Trace[1].C)
	}
	if res.Trace[1].Err.Defined() {
		t.Errorf("want undefined error at c = 0, got %v", res.Trace[1].Err)
	}
	if res.Trace[2].Err != 100 {
		t.Errorf("want 100%% error on row 3, got %v", res.Trace[2].Err)
	}
	if res.Outcome != roots.Converged || !near(res.Root, 0.1, 0.001) {
		t.Errorf("want convergence near 0.1, got %v %v", res.Outcome, res.Root)
	}
}

func TestBisection_IterationCap(t *testing.T) {
	// an unreachable tolerance forces the cap
	res, err := roots.Bisection(p1, 3, 4, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != roots.Exhausted || !errors.Is(res.Reason, roots.ErrIterationCap) {
		t.Fatalf("want exhausted, got %v (%v)", res.Outcome, res.Reason)
	}
	if len(res.Trace) != roots.MaxIterations {
		t.Errorf("want %d rows, got %d", roots.MaxIterations, len(res.Trace))
	}
	if !res.HasRoot() || res.Root != res.Trace[len(res.Trace)-1].C {
		t.Errorf("want best estimate from last row, got %v", res.Root)
	}
	if !near(res.Root, 3.2082198, 1e-6) {
		t.Errorf("want root near 3.2082198, got %v", res.Root)
	}
}

func TestNewton_Converges(t *testing.T) {
	res, err := roots.Newton(p2, dp2, 2, 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != roots.Converged {
		t.Fatalf("want converged, got %v (%v)", res.Outcome, res.Reason)
	}
	if res.Iterations() != 6 {
		t.Errorf("want 6 iterations, got %d", res.Iterations())
	}
	if !near(res.Root, 5.706418, 1e-6) {
		t.Errorf("want root near 5.706418, got %v", res.Root)
	}
	if !near(res.Trace[0].XNew, -9.352468, 1e-6) {
		t.Errorf("unexpected first step: %+v", res.Trace[0])
	}
	for i := 1; i < len(res.Trace); i++ {
		if res.Trace[i].X != res.Trace[i-1].XNew {
			t.Errorf("row %d does not start from previous x_new", res.Trace[i].K)
		}
	}
}

func TestNewton_DerivativeNearZero(t *testing.T) {
	tests := []struct {
		name  string
		f, df roots.Func
		x0    float64
		rows  int
	}{
		{
			name: "stationary start",
			f:    roots.FuncOf(func(x float64) float64 { return x*x - 4 }),
			df:   roots.FuncOf(func(x float64) float64 { return 2 * x }),
			x0:   0,
			rows: 0,
		},
		{
			name: "stationary point of p2",
			f:    p2,
			df:   dp2,
			x0:   2 * math.Acos(1.0/3),
			rows: 0,
		},
		{
			name: "walks onto stationary point",
			f:    roots.FuncOf(func(x float64) float64 { return x*x + 1 }),
			df:   roots.FuncOf(func(x float64) float64 { return 2 * x }),
			x0:   1,
			rows: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := roots.Newton(tt.f, tt.df, tt.x0, 0.1)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.Outcome != roots.Failed || !errors.Is(res.Reason, roots.ErrDerivativeNearZero) {
				t.Fatalf("want derivative failure, got %v (%v)", res.Outcome, res.Reason)
			}
			if len(res.Trace) != tt.rows {
				t.Errorf("want %d rows, got %d", tt.rows, len(res.Trace))
			}
			if !math.IsNaN(res.Root) {
				t.Errorf("want NaN root, got %v", res.Root)
			}
		})
	}
}

func TestNewton_IterationCap(t *testing.T) {
	// from x0 = 0 the iterates cycle 0 -> 1 -> 0 and never settle
	f := roots.FuncOf(func(x float64) float64 { return x*x*x - 2*x + 2 })
	df := roots.FuncOf(func(x float64) float64 { return 3*x*x - 2 })
	res, err := roots.Newton(f, df, 0, 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != roots.Exhausted || !errors.Is(res.Reason, roots.ErrIterationCap) {
		t.Fatalf("want exhausted, got %v (%v)", res.Outcome, res.Reason)
	}
	if len(res.Trace) != roots.MaxIterations {
		t.Fatalf("want %d rows, got %d", roots.MaxIterations, len(res.Trace))
	}
	if res.Root != res.Trace[roots.MaxIterations-1].XNew {
		t.Errorf("want last x_new %v as estimate, got %v", res.Trace[roots.MaxIterations-1].XNew, res.Root)
	}

	if res.Trace[1].XNew != 0 || res.Trace[1].Err.Defined() {
		t.Errorf("want undefined error at x_new = 0, got %+v", res.Trace[1])
	}
	if res.Trace[2].XNew != 1 || res.Trace[2].Err != 100 {
		t.Errorf("want 100%% error on row 3, got %+v", res.Trace[2])
	}
}

func TestSecant_Converges(t *testing.T) {
	res, err := roots.Secant(p1, 3, 4, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != roots.Converged {
		t.Fatalf("want converged, got %v (%v)", res.Outcome, res.Reason)
	}
	if res.Iterations() != 3 {
		t.Errorf("want 3 iterations, got %d", res.Iterations())
	}
	bis, _ := roots.Bisection(p1, 3, 4, 0.5)
	if !near(res.Root, bis.Root, 0.01) {
		t.Errorf("secant root %v far from bisection root %v", res.Root, bis.Root)
	}
	for i := 1; i < len(res.Trace); i++ {
		prev, row := res.Trace[i-1], res.Trace[i]
		if row.XPrev != prev.XCurr || row.XCurr != prev.XNew {
			t.Errorf("row %d did not shift the window", row.K)
		}
	}
}

func TestSecant_DenominatorNearZero(t *testing.T) {
	flat := roots.FuncOf(func(float64) float64 { return 5 })
	res, err := roots.Secant(flat, 1, 2, 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != roots.Failed || !errors.Is(res.Reason, roots.ErrDenominatorNearZero) {
		t.Fatalf("want denominator failure, got %v (%v)", res.Outcome, res.Reason)
	}
	if len(res.Trace) != 0 || !math.IsNaN(res.Root) {
		t.Errorf("want empty trace and NaN root, got %d rows, root %v", len(res.Trace), res.Root)
	}
}

func TestSecant_IterationCap(t *testing.T) {
	// x^2 + 1 has no real root, the iterates wander until the cap
	f := roots.FuncOf(func(x float64) float64 { return x*x + 1 })
	res, err := roots.Secant(f, 1, 2, 0.1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Outcome != roots.Exhausted || !errors.Is(res.Reason, roots.ErrIterationCap) {
		t.Fatalf("want exhausted, got %v (%v)", res.Outcome, res.Reason)
	}
	if len(res.Trace) != roots.MaxIterations {
		t.Errorf("want %d rows, got %d", roots.MaxIterations, len(res.Trace))
	}
	if res.Root != res.Trace[len(res.Trace)-1].XNew {
		t.Errorf("want last x_new as estimate, got %v", res.Root)
	}
}

func TestSecant_ZeroIterateNeverConverges(t *testing.T) {
	// the root is exactly 0, so every error after the first row is undefined
	f := roots.FuncOf(func(x float64) float64 { return x })
	res, err := roots.Secant(f, 1, 2, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Trace) != 2 {
		t.Fatalf("want 2 rows, got %d: %+v", len(res.Trace), res.Trace)
	}
	for _, row := range res.Trace {
		if row.XNew != 0 || row.Err.Defined() {
			t.Errorf("row %d: want x_new 0 with undefined error, got %+v", row.K, row)
		}
	}
	// the third step divides by f(0) - f(0)
	if res.Outcome != roots.Failed || !errors.Is(res.Reason, roots.ErrDenominatorNearZero) {
		t.Errorf("want denominator failure, got %v (%v)", res.Outcome, res.Reason)
	}
}

func TestTraceErrors(t *testing.T) {
	summaries := []roots.Summary{}
	for _, m := range roots.Methods() {
		s, err := roots.Solve(m, p1, roots.FuncOf(func(x float64) float64 {
			return 3*x*x - 0.8*math.Exp(0.8*x)
		}), roots.Params{A: 3, B: 4, X0: 3.5, XPrev: 3, XCurr: 4}, 0.001)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", m, err)
		}
		summaries = append(summaries, s)
	}

	for _, s := range summaries {
		if len(s.Rows) == 0 || len(s.Rows) > roots.MaxIterations {
			t.Fatalf("%s: bad trace length %d", s.Method, len(s.Rows))
		}
		if s.Rows[0].RelErr().Defined() {
			t.Errorf("%s: first row error should be undefined", s.Method)
		}
		for i, row := range s.Rows {
			if row.Iteration() != i+1 {
				t.Errorf("%s: row %d has index %d", s.Method, i, row.Iteration())
			}
			if i > 0 && row.RelErr().Defined() && row.RelErr() < 0 {
				t.Errorf("%s: negative error at row %d", s.Method, row.Iteration())
			}
		}
	}
}

func TestDeterministic(t *testing.T) {
	for _, m := range roots.Methods() {
		p := roots.Params{A: 5, B: 6, X0: 2, XPrev: 5, XCurr: 6}
		a, _ := roots.Solve(m, p2, dp2, p, 0.01)
		b, _ := roots.Solve(m, p2, dp2, p, 0.01)
		if fmt.Sprint(a.Rows) != fmt.Sprint(b.Rows) || fmt.Sprint(a.Root) != fmt.Sprint(b.Root) {
			t.Errorf("%s: repeated runs differ", m)
		}
	}
}

func TestObserverStops(t *testing.T) {
	var seen int
	res, err := roots.Bisection(p1, 3, 4, 0.001, roots.WithObserver(func(r roots.Row) error {
		seen++
		if r.Iteration() == 2 {
			return roots.ErrStopped
		}
		return nil
	}))
	if !errors.Is(err, roots.ErrStopped) {
		t.Fatalf("want ErrStopped, got %v", err)
	}
	if seen != 2 || len(res.Trace) != 2 {
		t.Errorf("want 2 rows observed and kept, got %d / %d", seen, len(res.Trace))
	}
}

func TestEvaluationErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	f := failingFunc{limit: 3.6, err: boom}
	res, err := roots.Bisection(f, 3, 4, 0.001)
	if !errors.Is(err, boom) {
		t.Fatalf("want wrapped evaluation error, got %v", err)
	}
	if res.Outcome != roots.Failed {
		t.Errorf("want failed outcome, got %v", res.Outcome)
	}
}

type failingFunc struct {
	limit float64
	err   error
}

func (f failingFunc) Eval(x float64) (float64, error) {
	if x > f.limit {
		return 0, f.err
	}
	return p1(x), nil
}

func TestSolve(t *testing.T) {
	if _, err := roots.Solve(roots.MethodNewton, p2, nil, roots.Params{X0: 2}, 0.1); !errors.Is(err, roots.ErrMissingDerivative) {
		t.Errorf("want ErrMissingDerivative, got %v", err)
	}
	if _, err := roots.Solve("golden", p2, nil, roots.Params{}, 0.1); !errors.Is(err, roots.ErrUnknownMethod) {
		t.Errorf("want ErrUnknownMethod, got %v", err)
	}
	s, err := roots.Solve(roots.MethodSecant, p1, nil, roots.Params{XPrev: 3, XCurr: 4}, 0.5)
	if err != nil || s.Outcome != roots.Converged || s.Iterations() != 3 {
		t.Errorf("unexpected secant summary: %+v, %v", s, err)
	}
}

func TestParseMethod(t *testing.T) {
	tests := map[string]roots.Method{
		"bisection":      roots.MethodBisection,
		"Biseccion":      roots.MethodBisection,
		"newton-raphson": roots.MethodNewton,
		" newton ":       roots.MethodNewton,
		"secante":        roots.MethodSecant,
	}
	for in, want := range tests {
		got, err := roots.ParseMethod(in)
		if err != nil || got != want {
			t.Errorf("ParseMethod(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := roots.ParseMethod("regula-falsi"); !errors.Is(err, roots.ErrUnknownMethod) {
		t.Errorf("want ErrUnknownMethod, got %v", err)
	}
}

func TestValidateTolerance(t *testing.T) {
	for _, tol := range []float64{0, -1, math.NaN(), math.Inf(1)} {
		if err := roots.ValidateTolerance(tol); !errors.Is(err, roots.ErrInvalidTolerance) {
			t.Errorf("ValidateTolerance(%v) = %v, want ErrInvalidTolerance", tol, err)
		}
	}
	if err := roots.ValidateTolerance(0.5); err != nil {
		t.Errorf("ValidateTolerance(0.5) = %v", err)
	}
}

func TestSentinelMessages(t *testing.T) {
	sentinels := []error{
		roots.ErrInvalidBracket, roots.ErrDerivativeNearZero, roots.ErrDenominatorNearZero,
		roots.ErrIterationCap, roots.ErrStopped, roots.ErrInvalidTolerance,
		roots.ErrMissingDerivative, roots.ErrUnknownMethod,
	}
	for _, err := range sentinels {
		if msg := err.Error(); strings.HasPrefix(msg, "roots:") {
			t.Errorf("sentinel %q carries a package prefix", msg)
		}
	}
	if roots.ErrStopped.Error() != "stopped by observer" {
		t.Errorf("unexpected ErrStopped message %q", roots.ErrStopped)
	}
}
