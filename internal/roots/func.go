package roots

// Func is a real function of one real variable.
type Func interface {
	Eval(x float64) (float64, error)
}

// FuncOf adapts a plain Go function to Func. Eval never fails.
type FuncOf func(float64) float64

func (f FuncOf) Eval(x float64) (float64, error) {
	return f(x), nil
}
