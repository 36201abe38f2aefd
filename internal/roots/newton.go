package roots

import "math"

// derivativeFloor is the smallest |f'(x)| Newton will divide by.
const derivativeFloor = 1e-10

// Newton runs Newton-Raphson from x0 using the derivative df.
func Newton(f, df Func, x0, tol float64, opts ...Option) (Result[NewtonRow], error) {
	s := newSettings(opts)
	res := Result[NewtonRow]{Method: MethodNewton}

	x := x0
	for k := 1; k <= MaxIterations; k++ {
		fx, err := eval(f, "f", x)
		if err != nil {
			return res.failed(err), err
		}
		dfx, err := eval(df, "df", x)
		if err != nil {
			return res.failed(err), err
		}
		if math.Abs(dfx) < derivativeFloor {
			return res.failed(ErrDerivativeNearZero), nil
		}

		xNew := x - fx/dfx
		row := NewtonRow{K: k, X: x, FX: fx, DFX: dfx, XNew: xNew, Err: relErr(k, xNew, x)}
		res.Trace = append(res.Trace, row)
		if err := s.emit(row); err != nil {
			return res.failed(err), err
		}
		if row.Err.Defined() && float64(row.Err) < tol {
			return res.converged(xNew), nil
		}
		x = xNew
	}

	return res.exhausted(x), nil
}
