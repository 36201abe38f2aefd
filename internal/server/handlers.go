package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"rootfind/internal/problems"
	"rootfind/internal/report"
	"rootfind/internal/roots"
	"rootfind/internal/store"
)

// equation is a resolved start request.
type equation struct {
	problem string
	expr    string
	f, df   roots.Func
	method  roots.Method
	params  roots.Params
	tol     float64
}

// StartRun starts a solver run in the background
func (s *Server) StartRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}

	var p RunParams
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, "invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	eq, err := s.resolve(p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	xs, ys := s.sample(eq)

	ctx, cancel := context.WithCancel(context.Background())
	rs := newRunState(uuid.NewString())
	rs.Problem = eq.problem
	rs.Func = eq.expr
	rs.Method = eq.method
	rs.Params = eq.params
	rs.Tol = eq.tol
	rs.Cancel = cancel
	for _, old := range s.runs.save(rs) {
		s.hub.Forget(old)
	}

	go s.execute(ctx, rs, eq)

	resp := map[string]any{
		"id":      rs.ID,
		"method":  eq.method,
		"headers": report.Headers(eq.method),
		"xs":      xs,
		"ys":      ys,
	}
	writeJSON(w, resp)
}

func (s *Server) execute(ctx context.Context, rs *RunState, eq equation) {
	defer rs.Cancel()
	log := s.log.With("run", rs.ID, "method", eq.method)
	log.Info("run started", "problem", eq.problem, "func", eq.expr, "tol", eq.tol)

	s.publish(rs.ID, Event{Type: EventStart, ID: rs.ID, Method: eq.method, Headers: report.Headers(eq.method)})

	observe := func(row roots.Row) error {
		select {
		case <-ctx.Done():
			return roots.ErrStopped
		default:
		}
		rs.appendRow(row)
		wire := report.Wire(row)
		s.publish(rs.ID, Event{Type: EventIter, Row: &wire, Iterations: row.Iteration()})
		return nil
	}

	sum, err := roots.Solve(eq.method, eq.f, eq.df, eq.params, eq.tol, roots.WithObserver(observe))
	switch {
	case errors.Is(err, roots.ErrStopped):
		log.Info("run stopped", "iterations", sum.Iterations())
		s.publish(rs.ID, Event{Type: EventStopped, Iterations: sum.Iterations()})
		rs.finish(sum, "stopped")
	case err != nil:
		msg := "evaluation error: " + err.Error()
		log.Warn("run failed", "error", err)
		s.publish(rs.ID, Event{Type: EventError, Err: msg, Iterations: sum.Iterations()})
		rs.finish(sum, msg)
	default:
		log.Info("run finished", "outcome", sum.Outcome, "root", sum.Root, "iterations", sum.Iterations())
		s.record(rs, sum)
		s.publish(rs.ID, doneEvent(sum))
		rs.finish(sum, "")
	}
	s.closeStream(rs.ID)
}

// closeStream ends the stream of id. A run evicted while it was still going
// had its hub entry forgotten early, so drop what its last events recreated.
func (s *Server) closeStream(id string) {
	s.hub.Close(id)
	if s.runs.get(id) == nil {
		s.hub.Forget(id)
	}
}

func (s *Server) record(rs *RunState, sum roots.Summary) {
	if s.history == nil {
		return
	}
	rec, err := store.NewRecord(rs.ID, rs.Problem, rs.Func, rs.Tol, sum)
	if err != nil {
		s.log.Error("build history record", "run", rs.ID, "error", err)
		return
	}
	rec.CreatedAt = rs.CreatedAt.UTC()
	if err := s.history.Save(context.Background(), rec); err != nil {
		s.log.Error("save history record", "run", rs.ID, "error", err)
	}
}

func (s *Server) resolve(p RunParams) (equation, error) {
	var eq equation

	methodName := p.Method
	if methodName == "" {
		methodName = s.cfg.Solver.Method
	}
	m, err := roots.ParseMethod(methodName)
	if err != nil {
		return eq, err
	}
	eq.method = m

	eq.tol = s.cfg.Solver.Tolerance
	if p.Tol != nil {
		eq.tol = *p.Tol
	}
	if err := roots.ValidateTolerance(eq.tol); err != nil {
		return eq, err
	}

	var suggested roots.Params
	if p.Func != "" {
		f, err := roots.NewExprFunc(p.Func)
		if err != nil {
			return eq, fmt.Errorf("func: %w", err)
		}
		eq.f, eq.expr = f, p.Func
		if p.Deriv != "" {
			df, err := roots.NewExprFunc(p.Deriv)
			if err != nil {
				return eq, fmt.Errorf("deriv: %w", err)
			}
			eq.df = df
		} else if m == roots.MethodNewton {
			return eq, roots.ErrMissingDerivative
		}
	} else {
		id := p.Problem
		if id == "" {
			id = s.cfg.Solver.Problem
		}
		pr, ok := problems.Lookup(id)
		if !ok {
			return eq, fmt.Errorf("unknown problem %q", id)
		}
		eq.problem, eq.f, eq.df = pr.ID, pr.F, pr.DF
		suggested = pr.Suggest(m)
	}

	var missing []string
	get := func(name string, v *float64, def float64, used bool) float64 {
		if v != nil {
			return *v
		}
		if used && eq.problem == "" {
			missing = append(missing, name)
		}
		return def
	}
	eq.params = roots.Params{
		A:     get("a", p.A, suggested.A, m == roots.MethodBisection),
		B:     get("b", p.B, suggested.B, m == roots.MethodBisection),
		X0:    get("x0", p.X0, suggested.X0, m == roots.MethodNewton),
		XPrev: get("xPrev", p.XPrev, suggested.XPrev, m == roots.MethodSecant),
		XCurr: get("xCurr", p.XCurr, suggested.XCurr, m == roots.MethodSecant),
	}
	if len(missing) > 0 {
		return eq, fmt.Errorf("custom function needs %s", strings.Join(missing, ", "))
	}
	return eq, nil
}

// sample evaluates f around the starting values for plotting. Points where f
// fails or is not finite are null.
func (s *Server) sample(eq equation) ([]float64, []*float64) {
	var lo, hi float64
	switch eq.method {
	case roots.MethodBisection:
		lo, hi = eq.params.A, eq.params.B
	case roots.MethodNewton:
		lo, hi = eq.params.X0-1, eq.params.X0+1
	default:
		lo, hi = eq.params.XPrev, eq.params.XCurr
	}
	if lo > hi {
		lo, hi = hi, lo
	}
	if lo == hi {
		lo, hi = lo-1, hi+1
	}

	n := s.cfg.Server.PlotPoints
	xs := make([]float64, n)
	ys := make([]*float64, n)
	h := (hi - lo) / float64(n-1)
	for i := 0; i < n; i++ {
		x := lo + float64(i)*h
		xs[i] = x
		y, err := eq.f.Eval(x)
		if err != nil || math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		ys[i] = &y
	}
	return xs, ys
}

// StopRun interrupts a live run
func (s *Server) StopRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST only", http.StatusMethodNotAllowed)
		return
	}
	rs, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if rs.Cancel != nil {
		rs.Cancel()
	}
	w.WriteHeader(http.StatusNoContent)
}

// Status reports the state of a run
func (s *Server) Status(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sum, done, errMsg := rs.snapshot()

	resp := map[string]any{
		"id":         rs.ID,
		"problem":    rs.Problem,
		"func":       rs.Func,
		"method":     rs.Method,
		"params":     rs.Params,
		"tol":        rs.Tol,
		"done":       done,
		"iterations": sum.Iterations(),
		"rows":       report.WireRows(sum.Rows),
	}
	if done && errMsg == "" {
		ev := doneEvent(sum)
		resp["outcome"] = ev.Outcome
		resp["root"] = ev.Root
		resp["reason"] = ev.Reason
		resp["status"] = ev.Status
	}
	if errMsg != "" {
		resp["err"] = errMsg
	}
	writeJSON(w, resp)
}

// ExportCSV exports the iteration table of a run
func (s *Server) ExportCSV(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sum, _, _ := rs.snapshot()

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename=iterations_"+rs.ID+".csv")
	if err := report.WriteCSV(w, sum); err != nil {
		s.log.Error("export csv", "run", rs.ID, "error", err)
	}
}

// Problems lists the built-in equations with suggested starting values
func (s *Server) Problems(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		problems.Problem
		Suggest map[roots.Method]roots.Params `json:"suggest"`
	}
	var out []entry
	for _, p := range problems.All() {
		e := entry{Problem: p, Suggest: map[roots.Method]roots.Params{}}
		for _, m := range roots.Methods() {
			e.Suggest[m] = p.Suggest(m)
		}
		out = append(out, e)
	}
	writeJSON(w, out)
}

// ListRuns returns the persisted run history
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	recs, err := s.history.List(r.Context(), limit)
	if err != nil {
		s.log.Error("list history", "error", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []*store.Record{}
	}
	writeJSON(w, recs)
}

// GetRun returns one persisted run including its trace
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}
	rec, err := s.history.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "unknown id", http.StatusNotFound)
		return
	}
	if err != nil {
		s.log.Error("get history", "error", err)
		http.Error(w, "history unavailable", http.StatusInternalServerError)
		return
	}
	writeJSON(w, rec)
}

// Stream streams run events as server-sent events
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	rs, ok := s.lookup(w, r)
	if !ok {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.hub.Subscribe(rs.ID)
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: msg\n")
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*RunState, bool) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return nil, false
	}
	rs := s.runs.get(id)
	if rs == nil {
		http.Error(w, "unknown id", http.StatusNotFound)
		return nil, false
	}
	return rs, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
