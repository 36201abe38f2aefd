package roots

import "math"

// secantFloor is the smallest |f(x_k) - f(x_{k-1})| the secant step will divide by.
const secantFloor = 1e-10

// Secant runs the secant method from the two starting points xPrev and xCurr.
func Secant(f Func, xPrev, xCurr, tol float64, opts ...Option) (Result[SecantRow], error) {
	s := newSettings(opts)
	res := Result[SecantRow]{Method: MethodSecant}

	for k := 1; k <= MaxIterations; k++ {
		fPrev, err := eval(f, "f", xPrev)
		if err != nil {
			return res.failed(err), err
		}
		fCurr, err := eval(f, "f", xCurr)
		if err != nil {
			return res.failed(err), err
		}
		if math.Abs(fCurr-fPrev) < secantFloor {
			return res.failed(ErrDenominatorNearZero), nil
		}

		xNew := xCurr - fCurr*(xCurr-xPrev)/(fCurr-fPrev)
		row := SecantRow{
			K:     k,
			XPrev: xPrev,
			XCurr: xCurr,
			FPrev: fPrev,
			FCurr: fCurr,
			XNew:  xNew,
			Err:   relErr(k, xNew, xCurr),
		}
		res.Trace = append(res.Trace, row)
		if err := s.emit(row); err != nil {
			return res.failed(err), err
		}
		if row.Err.Defined() && float64(row.Err) < tol {
			return res.converged(xNew), nil
		}
		xPrev, xCurr = xCurr, xNew
	}

	return res.exhausted(xCurr), nil
}
