package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"

	"rootfind/internal/problems"
	"rootfind/internal/report"
	"rootfind/internal/roots"
)

var (
	solveProblem string
	solveMethod  string
	solveFunc    string
	solveDeriv   string
	solveTol     float64
	solveFormat  string
	solveParams  roots.Params
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Run one root-finding method",
	Example: `  rootfind solve --problem p1 --method bisection --a 3 --b 4 --tol 0.5
  rootfind solve --method newton --f "x**2 - 2" --df "2*x" --x0 1
  rootfind solve --problem p2 --method secant --format csv`,
	RunE: runSolve,
}

func init() {
	f := solveCmd.Flags()
	f.StringVarP(&solveProblem, "problem", "p", "", "built-in problem id (see 'rootfind problems')")
	f.StringVarP(&solveMethod, "method", "m", "", "bisection, newton or secant")
	f.StringVar(&solveFunc, "f", "", "custom function of x, e.g. \"x**3 - exp(0.8*x) - 20\"")
	f.StringVar(&solveDeriv, "df", "", "derivative of the custom function (newton only)")
	f.Float64Var(&solveTol, "tol", 0, "relative error tolerance in percent")
	f.Float64Var(&solveParams.A, "a", 0, "lower bracket end (bisection)")
	f.Float64Var(&solveParams.B, "b", 0, "upper bracket end (bisection)")
	f.Float64Var(&solveParams.X0, "x0", 0, "initial guess (newton)")
	f.Float64Var(&solveParams.XPrev, "xprev", 0, "first starting point (secant)")
	f.Float64Var(&solveParams.XCurr, "xcurr", 0, "second starting point (secant)")
	f.StringVar(&solveFormat, "format", "table", "output format: table, csv or json")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}

	methodName := solveMethod
	if methodName == "" {
		methodName = cfg.Solver.Method
	}
	m, err := roots.ParseMethod(methodName)
	if err != nil {
		return err
	}

	tol := cfg.Solver.Tolerance
	if cmd.Flags().Changed("tol") {
		tol = solveTol
	}
	if err := roots.ValidateTolerance(tol); err != nil {
		return err
	}

	var (
		f, df     roots.Func
		suggested roots.Params
		custom    = solveFunc != ""
	)
	if custom {
		if f, err = roots.NewExprFunc(solveFunc); err != nil {
			return fmt.Errorf("--f: %w", err)
		}
		if solveDeriv != "" {
			if df, err = roots.NewExprFunc(solveDeriv); err != nil {
				return fmt.Errorf("--df: %w", err)
			}
		}
	} else {
		id := solveProblem
		if id == "" {
			id = cfg.Solver.Problem
		}
		p, ok := problems.Lookup(id)
		if !ok {
			return fmt.Errorf("unknown problem %q", id)
		}
		f, df = p.F, p.DF
		suggested = p.Suggest(m)
	}

	params, err := startValues(cmd, m, suggested, custom)
	if err != nil {
		return err
	}

	log.Debug("solving", "method", m, "params", params, "tol", tol)
	sum, err := roots.Solve(m, f, df, params, tol)
	if err != nil {
		return fmt.Errorf("%s: %w", m, err)
	}

	out := cmd.OutOrStdout()
	switch strings.ToLower(solveFormat) {
	case "table":
		fmt.Fprint(out, report.Table(sum))
	case "csv":
		if err := report.WriteCSV(out, sum); err != nil {
			return err
		}
	case "json":
		if err := writeSummaryJSON(out, sum); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q", solveFormat)
	}

	if sum.Outcome != roots.Converged {
		return fmt.Errorf("no root: %v", sum.Reason)
	}
	return nil
}

// startValues merges explicit flags over the suggestions. Custom functions
// have no suggestions, so the method's own flags become mandatory.
func startValues(cmd *cobra.Command, m roots.Method, suggested roots.Params, custom bool) (roots.Params, error) {
	fields := map[string]struct {
		dst  *float64
		src  float64
		used bool
	}{
		"a":     {&suggested.A, solveParams.A, m == roots.MethodBisection},
		"b":     {&suggested.B, solveParams.B, m == roots.MethodBisection},
		"x0":    {&suggested.X0, solveParams.X0, m == roots.MethodNewton},
		"xprev": {&suggested.XPrev, solveParams.XPrev, m == roots.MethodSecant},
		"xcurr": {&suggested.XCurr, solveParams.XCurr, m == roots.MethodSecant},
	}

	var missing []string
	for _, name := range []string{"a", "b", "x0", "xprev", "xcurr"} {
		fld := fields[name]
		switch {
		case cmd.Flags().Changed(name):
			*fld.dst = fld.src
		case custom && fld.used:
			missing = append(missing, "--"+name)
		}
	}
	if len(missing) > 0 {
		return suggested, fmt.Errorf("%s requires %s with a custom function", m, strings.Join(missing, ", "))
	}
	return suggested, nil
}

func writeSummaryJSON(w io.Writer, sum roots.Summary) error {
	doc := map[string]any{
		"method":     sum.Method,
		"outcome":    sum.Outcome,
		"iterations": sum.Iterations(),
		"status":     report.Status(sum),
		"headers":    report.Headers(sum.Method),
		"rows":       report.WireRows(sum.Rows),
	}
	if sum.HasRoot() && !math.IsNaN(sum.Root) && !math.IsInf(sum.Root, 0) {
		doc["root"] = sum.Root
	}
	if sum.Reason != nil {
		doc["reason"] = sum.Reason.Error()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
