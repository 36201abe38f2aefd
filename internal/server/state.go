package server

import (
	"context"
	"sync"
	"time"

	"rootfind/internal/roots"
)

// RunParams is the body of POST /start. Either Problem or Func selects the
// equation; omitted starting values come from the problem's suggestions.
type RunParams struct {
	Problem string   `json:"problem,omitempty"`
	Func    string   `json:"func,omitempty"`
	Deriv   string   `json:"deriv,omitempty"`
	Method  string   `json:"method,omitempty"`
	A       *float64 `json:"a,omitempty"`
	B       *float64 `json:"b,omitempty"`
	X0      *float64 `json:"x0,omitempty"`
	XPrev   *float64 `json:"xPrev,omitempty"`
	XCurr   *float64 `json:"xCurr,omitempty"`
	Tol     *float64 `json:"tol,omitempty"`
}

// RunState is one run, live or finished.
type RunState struct {
	ID        string
	Problem   string
	Func      string
	Method    roots.Method
	Params    roots.Params
	Tol       float64
	CreatedAt time.Time
	Cancel    context.CancelFunc

	mu      sync.Mutex
	rows    []roots.Row
	summary roots.Summary
	err     string
	done    bool

	finished chan struct{}
}

func newRunState(id string) *RunState {
	return &RunState{
		ID:        id,
		CreatedAt: time.Now(),
		finished:  make(chan struct{}),
	}
}

func (rs *RunState) appendRow(r roots.Row) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.rows = append(rs.rows, r)
}

func (rs *RunState) finish(s roots.Summary, errMsg string) {
	rs.mu.Lock()
	rs.summary = s
	rs.err = errMsg
	rs.done = true
	rs.mu.Unlock()
	close(rs.finished)
}

// snapshot returns the summary so far; unfinished runs report their rows only.
func (rs *RunState) snapshot() (roots.Summary, bool, string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.done {
		return rs.summary, true, rs.err
	}
	rows := append([]roots.Row(nil), rs.rows...)
	return roots.Summary{Method: rs.Method, Rows: rows}, false, ""
}

// registry keeps the most recent runs in memory.
type registry struct {
	mu    sync.Mutex
	runs  map[string]*RunState
	order []string
	max   int
}

func newRegistry(max int) *registry {
	return &registry{runs: map[string]*RunState{}, max: max}
}

// save stores rs and returns the ids evicted to make room.
func (r *registry) save(rs *RunState) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs[rs.ID] = rs
	r.order = append(r.order, rs.ID)

	var evicted []string
	for len(r.order) > r.max {
		old := r.order[0]
		r.order = r.order[1:]
		if run, ok := r.runs[old]; ok && run.Cancel != nil {
			run.Cancel()
		}
		delete(r.runs, old)
		evicted = append(evicted, old)
	}
	return evicted
}

func (r *registry) get(id string) *RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[id]
}

func (r *registry) cancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rs := range r.runs {
		if rs.Cancel != nil {
			rs.Cancel()
		}
	}
}
