package server

import (
	"encoding/json"
	"math"

	"rootfind/internal/report"
	"rootfind/internal/roots"
)

// Event is one message on a run's stream.
type Event struct {
	Type       string          `json:"type"`
	ID         string          `json:"id,omitempty"`
	Method     roots.Method    `json:"method,omitempty"`
	Headers    []string        `json:"headers,omitempty"`
	Row        *report.WireRow `json:"row,omitempty"`
	Outcome    string          `json:"outcome,omitempty"`
	Root       *float64        `json:"root,omitempty"`
	Reason     string          `json:"reason,omitempty"`
	Iterations int             `json:"iterations"`
	Status     string          `json:"status,omitempty"`
	Err        string          `json:"err,omitempty"`
}

const (
	EventStart   = "start"
	EventIter    = "iter"
	EventDone    = "done"
	EventStopped = "stopped"
	EventError   = "error"
)

func (s *Server) publish(id string, ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		s.log.Error("encode event", "run", id, "type", ev.Type, "error", err)
		return
	}
	s.hub.Publish(id, string(msg))
}

func doneEvent(sum roots.Summary) Event {
	ev := Event{
		Type:       EventDone,
		Outcome:    sum.Outcome.String(),
		Iterations: sum.Iterations(),
		Status:     report.Status(sum),
	}
	if sum.HasRoot() && !math.IsNaN(sum.Root) && !math.IsInf(sum.Root, 0) {
		root := sum.Root
		ev.Root = &root
	}
	if sum.Reason != nil {
		ev.Reason = sum.Reason.Error()
	}
	return ev
}
