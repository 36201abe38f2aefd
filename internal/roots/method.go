package roots

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrInvalidTolerance  = errors.New("tolerance must be a positive number")
	ErrMissingDerivative = errors.New("newton-raphson needs a derivative")
	ErrUnknownMethod     = errors.New("unknown method")
)

type Method string

const (
	MethodBisection Method = "bisection"
	MethodNewton    Method = "newton"
	MethodSecant    Method = "secant"
)

// Methods lists the supported methods in display order.
func Methods() []Method {
	return []Method{MethodBisection, MethodNewton, MethodSecant}
}

func (m Method) String() string { return string(m) }

// Title is the human-readable method name.
func (m Method) Title() string {
	switch m {
	case MethodBisection:
		return "Bisection"
	case MethodNewton:
		return "Newton-Raphson"
	case MethodSecant:
		return "Secant"
	default:
		return string(m)
	}
}

// ParseMethod accepts the canonical names and a few common spellings.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bisection", "biseccion", "bisect":
		return MethodBisection, nil
	case "newton", "newton-raphson", "newtonraphson", "nr":
		return MethodNewton, nil
	case "secant", "secante":
		return MethodSecant, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
	}
}

// Params carries the starting values of every method; each method reads
// only its own fields.
type Params struct {
	A     float64 `json:"a"`
	B     float64 `json:"b"`
	X0    float64 `json:"x0"`
	XPrev float64 `json:"xPrev"`
	XCurr float64 `json:"xCurr"`
}

// ValidateTolerance rejects anything that is not a finite positive percentage.
// Engines assume it has been called.
func ValidateTolerance(tol float64) error {
	if math.IsNaN(tol) || math.IsInf(tol, 0) || tol <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidTolerance, tol)
	}
	return nil
}

// Solve dispatches to the engine for m. df is only consulted by Newton.
func Solve(m Method, f, df Func, p Params, tol float64, opts ...Option) (Summary, error) {
	switch m {
	case MethodBisection:
		res, err := Bisection(f, p.A, p.B, tol, opts...)
		return res.Summary(), err
	case MethodNewton:
		if df == nil {
			return Summary{Method: m, Outcome: Failed, Root: math.NaN(), Reason: ErrMissingDerivative}, ErrMissingDerivative
		}
		res, err := Newton(f, df, p.X0, tol, opts...)
		return res.Summary(), err
	case MethodSecant:
		res, err := Secant(f, p.XPrev, p.XCurr, tol, opts...)
		return res.Summary(), err
	default:
		return Summary{Method: m, Outcome: Failed, Root: math.NaN()}, fmt.Errorf("%w: %q", ErrUnknownMethod, string(m))
	}
}
