package roots

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// MaxIterations caps every engine invocation.
const MaxIterations = 100

var (
	ErrInvalidBracket      = errors.New("invalid bracket: no sign change")
	ErrDerivativeNearZero  = errors.New("derivative near zero")
	ErrDenominatorNearZero = errors.New("denominator near zero")
	ErrIterationCap        = errors.New("iteration cap reached")

	// ErrStopped is returned by an observer to interrupt a run.
	ErrStopped = errors.New("stopped by observer")
)

// Outcome says how an engine invocation ended.
type Outcome int

const (
	Converged Outcome = iota
	// Exhausted means the cap was hit; Root still holds the last estimate.
	Exhausted
	// Failed means a numerical guard tripped; Root is NaN.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Converged:
		return "converged"
	case Exhausted:
		return "exhausted"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// RelError is a relative error in percent. NaN means undefined.
type RelError float64

// Undefined is the error of a row that had nothing to compare against.
func Undefined() RelError { return RelError(math.NaN()) }

func (e RelError) Defined() bool { return !math.IsNaN(float64(e)) }

func (e RelError) MarshalJSON() ([]byte, error) {
	if !e.Defined() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(e))
}

func (e *RelError) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*e = Undefined()
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*e = RelError(v)
	return nil
}

// relErr compares successive iterates. The first iteration and a zero
// current value leave the error undefined.
func relErr(k int, curr, prev float64) RelError {
	if k == 1 || curr == 0 {
		return Undefined()
	}
	return RelError(math.Abs((curr-prev)/curr) * 100)
}

// Row is one line of an iteration trace.
type Row interface {
	Iteration() int
	// Values lists the tracked quantities in table order, without k and the error.
	Values() []float64
	RelErr() RelError
}

// BisectionRow holds the bracket as it was before the update.
type BisectionRow struct {
	K   int      `json:"k"`
	A   float64  `json:"a"`
	B   float64  `json:"b"`
	C   float64  `json:"c"`
	FC  float64  `json:"fc"`
	Err RelError `json:"err"`
}

func (r BisectionRow) Iteration() int    { return r.K }
func (r BisectionRow) Values() []float64 { return []float64{r.A, r.B, r.C, r.FC} }
func (r BisectionRow) RelErr() RelError  { return r.Err }

type NewtonRow struct {
	K    int      `json:"k"`
	X    float64  `json:"x"`
	FX   float64  `json:"fx"`
	DFX  float64  `json:"dfx"`
	XNew float64  `json:"xnew"`
	Err  RelError `json:"err"`
}

func (r NewtonRow) Iteration() int    { return r.K }
func (r NewtonRow) Values() []float64 { return []float64{r.X, r.FX, r.DFX, r.XNew} }
func (r NewtonRow) RelErr() RelError  { return r.Err }

type SecantRow struct {
	K     int      `json:"k"`
	XPrev float64  `json:"xprev"`
	XCurr float64  `json:"xcurr"`
	FPrev float64  `json:"fprev"`
	FCurr float64  `json:"fcurr"`
	XNew  float64  `json:"xnew"`
	Err   RelError `json:"err"`
}

func (r SecantRow) Iteration() int    { return r.K }
func (r SecantRow) Values() []float64 { return []float64{r.XPrev, r.XCurr, r.FPrev, r.FCurr, r.XNew} }
func (r SecantRow) RelErr() RelError  { return r.Err }

// Result is the outcome of one engine invocation.
type Result[R Row] struct {
	Method  Method
	Outcome Outcome
	Root    float64
	Trace   []R
	// Reason is nil on convergence, ErrIterationCap when exhausted and the
	// tripped guard when failed.
	Reason error
}

// Iterations is the number of completed rows.
func (r Result[R]) Iterations() int { return len(r.Trace) }

// HasRoot reports whether Root carries an estimate.
func (r Result[R]) HasRoot() bool { return r.Outcome != Failed }

// Summary erases the row type.
func (r Result[R]) Summary() Summary {
	rows := make([]Row, len(r.Trace))
	for i, row := range r.Trace {
		rows[i] = row
	}
	return Summary{
		Method:  r.Method,
		Outcome: r.Outcome,
		Root:    r.Root,
		Reason:  r.Reason,
		Rows:    rows,
	}
}

func (r Result[R]) converged(root float64) Result[R] {
	r.Outcome, r.Root, r.Reason = Converged, root, nil
	return r
}

func (r Result[R]) exhausted(root float64) Result[R] {
	r.Outcome, r.Root, r.Reason = Exhausted, root, ErrIterationCap
	return r
}

func (r Result[R]) failed(reason error) Result[R] {
	r.Outcome, r.Root, r.Reason = Failed, math.NaN(), reason
	return r
}

// Summary is a Result of any method.
type Summary struct {
	Method  Method
	Outcome Outcome
	Root    float64
	Reason  error
	Rows    []Row
}

func (s Summary) Iterations() int { return len(s.Rows) }

func (s Summary) HasRoot() bool { return s.Outcome != Failed }
