// Package trace records discrimination-network propagation events for
// diagnostics: which node a token visited, whether it was accepted or
// rejected, and how long that node took to decide.
//
// Grounded on the teacher's datalog/annotations package: the same
// enabled/handler/events Collector shape (datalog/annotations/types.go),
// generalized here from Datalog query-execution events to per-node
// token-propagation events.
package trace

import (
	"sync"
	"time"
)

// Event is one node's decision about one token during a propagation pass.
type Event struct {
	NodeID      string
	Description string
	Tag         string // "add" or "remove", mirrors network.TokenTag
	Accepted    bool
	Latency     time.Duration
}

// Handler processes trace events as they occur.
type Handler func(Event)

// Collector accumulates propagation events for a session. A nil or
// zero-value Collector costs nothing: Record is a no-op on it. A Collector
// made by NewCollector buffers every event, with or without a handler.
type Collector struct {
	enabled bool
	handler Handler
	events  []Event
	mu      sync.Mutex
}

// NewCollector creates a collector that forwards every recorded event to
// handler (if non-nil) in addition to buffering it for later retrieval via
// Events.
func NewCollector(handler Handler) *Collector {
	return &Collector{enabled: true, handler: handler, events: make([]Event, 0, 64)}
}

// Record appends an event and forwards it to the installed handler, if any.
// Safe to call on a nil Collector.
func (c *Collector) Record(e Event) {
	if c == nil || !c.enabled {
		return
	}
	c.mu.Lock()
	c.events = append(c.events, e)
	c.mu.Unlock()
	if c.handler != nil {
		c.handler(e)
	}
}

// Events returns a copy of every event recorded so far.
func (c *Collector) Events() []Event {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

// Reset clears the collector for reuse across propagation passes.
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = c.events[:0]
}
