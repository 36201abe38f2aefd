package roots

import "fmt"

// Bisection halves the bracket [a, b] until successive midpoints agree
// within tol percent. f(a) and f(b) must have opposite signs.
//
// The returned error is only set when f fails to evaluate or an observer
// interrupts the run; numerical outcomes are reported in the Result.
func Bisection(f Func, a, b, tol float64, opts ...Option) (Result[BisectionRow], error) {
	s := newSettings(opts)
	res := Result[BisectionRow]{Method: MethodBisection}

	fa, err := eval(f, "f", a)
	if err != nil {
		return res.failed(err), err
	}
	fb, err := eval(f, "f", b)
	if err != nil {
		return res.failed(err), err
	}
	if fa*fb >= 0 {
		return res.failed(ErrInvalidBracket), nil
	}

	var c, cPrev float64
	for k := 1; k <= MaxIterations; k++ {
		c = (a + b) / 2
		fc, err := eval(f, "f", c)
		if err != nil {
			return res.failed(err), err
		}

		row := BisectionRow{K: k, A: a, B: b, C: c, FC: fc, Err: relErr(k, c, cPrev)}
		res.Trace = append(res.Trace, row)
		if err := s.emit(row); err != nil {
			return res.failed(err), err
		}
		if row.Err.Defined() && float64(row.Err) < tol {
			return res.converged(c), nil
		}

		if fa*fc < 0 {
			b = c
		} else {
			a, fa = c, fc
		}
		cPrev = c
	}

	return res.exhausted(c), nil
}

func eval(f Func, name string, x float64) (float64, error) {
	y, err := f.Eval(x)
	if err != nil {
		return y, fmt.Errorf("evaluate %s(%g): %w", name, x, err)
	}
	return y, nil
}
