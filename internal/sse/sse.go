// Package sse fans out run events to the clients following a run.
package sse

import "sync"

// Hub is a publish/subscribe hub keyed by run id. Every message is kept so
// that late subscribers get the whole run replayed.
type Hub struct {
	mu      sync.Mutex
	conns   map[string][]chan string
	backlog map[string][]string
	closed  map[string]bool
	buf     int
}

// NewHub creates a hub whose subscriber channels hold buf live messages
// on top of the replayed backlog.
func NewHub(buf int) *Hub {
	if buf <= 0 {
		buf = 16
	}
	return &Hub{
		conns:   map[string][]chan string{},
		backlog: map[string][]string{},
		closed:  map[string]bool{},
		buf:     buf,
	}
}

// Subscribe returns a channel for id and a function that unsubscribes it.
// The channel is closed after the last message of a closed run.
func (h *Hub) Subscribe(id string) (<-chan string, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	past := h.backlog[id]
	ch := make(chan string, len(past)+h.buf)
	for _, msg := range past {
		ch <- msg
	}
	if h.closed[id] {
		close(ch)
		return ch, func() {}
	}
	h.conns[id] = append(h.conns[id], ch)

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		list := h.conns[id]
		for i, c := range list {
			if c == ch {
				h.conns[id] = append(list[:i], list[i+1:]...)
				close(ch)
				break
			}
		}
	}

	return ch, cancel
}

// Publish sends msg to every subscriber of id. Slow subscribers miss messages.
func (h *Hub) Publish(id, msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed[id] {
		return
	}
	h.backlog[id] = append(h.backlog[id], msg)
	for _, ch := range h.conns[id] {
		select {
		case ch <- msg:
		default:
		}
	}
}

// Close closes every subscriber of id. Later Publish calls are ignored.
func (h *Hub) Close(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.conns[id] {
		close(ch)
	}
	delete(h.conns, id)
	h.closed[id] = true
}

// Forget drops everything the hub remembers about id.
func (h *Hub) Forget(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, ch := range h.conns[id] {
		close(ch)
	}
	delete(h.conns, id)
	delete(h.backlog, id)
	delete(h.closed, id)
}

// Subscribers reports how many clients follow id.
func (h *Hub) Subscribers(id string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[id])
}
