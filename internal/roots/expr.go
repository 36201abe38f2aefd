package roots

import (
	"fmt"
	"math"
	"strings"

	"github.com/Knetic/govaluate"
)

// exprFunc is a Func compiled from a govaluate expression in x.
type exprFunc struct {
	src  string
	expr *govaluate.EvaluableExpression
}

var exprFuncs = map[string]govaluate.ExpressionFunction{
	"sin":  unary("sin", math.Sin),
	"cos":  unary("cos", math.Cos),
	"tan":  unary("tan", math.Tan),
	"exp":  unary("exp", math.Exp),
	"log":  unary("log", math.Log),
	"sqrt": unary("sqrt", math.Sqrt),
	"abs":  unary("abs", math.Abs),
	"pow": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("pow: want 2 arguments, got %d", len(args))
		}
		base, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		exp, err := toFloat(args[1])
		if err != nil {
			return nil, err
		}
		return math.Pow(base, exp), nil
	},
}

// NewExprFunc compiles expr, a formula in the variable x such as
// "x**3 - exp(0.8*x) - 20". The constants pi and e are predefined.
func NewExprFunc(expr string) (Func, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("empty expression")
	}

	// govaluate reads ^ as bitwise xor
	if strings.Contains(expr, "^") {
		return nil, fmt.Errorf("parse %q: use ** for powers, ^ is not supported", expr)
	}

	parsed, err := govaluate.NewEvaluableExpressionWithFunctions(expr, exprFuncs)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", expr, err)
	}

	for _, v := range parsed.Vars() {
		switch v {
		case "x", "pi", "e":
		default:
			return nil, fmt.Errorf("parse %q: unknown variable %q", expr, v)
		}
	}

	return &exprFunc{src: expr, expr: parsed}, nil
}

func (f *exprFunc) Eval(x float64) (float64, error) {
	// a fresh map per call keeps one compiled expression safe for concurrent runs
	params := map[string]interface{}{
		"x":  x,
		"pi": math.Pi,
		"e":  math.E,
	}
	v, err := f.expr.Evaluate(params)
	if err != nil {
		return math.NaN(), err
	}
	out, err := toFloat(v)
	if err != nil {
		return math.NaN(), fmt.Errorf("%s: %w", f.src, err)
	}
	return out, nil
}

func (f *exprFunc) String() string { return f.src }

func unary(name string, fn func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("%s: want 1 argument, got %d", name, len(args))
		}
		v, err := toFloat(args[0])
		if err != nil {
			return nil, err
		}
		return fn(v), nil
	}
}

func toFloat(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	default:
		return math.NaN(), fmt.Errorf("expression did not yield a number: %T", v)
	}
}
