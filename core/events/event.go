package events

import "sync"

// Event represents a structured state change emitted by an engine.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (e.g. RPC, indexers).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is the default wiring for engines whose events nobody consumes.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Recorder captures emitted events in order. It backs the RPC event feed and
// engine tests. A positive Limit bounds memory by dropping the oldest events
// once the window is full; the zero value keeps everything.
type Recorder struct {
	// Limit caps the retained window when positive. Set before the first Emit.
	Limit int

	mu     sync.Mutex
	events []Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	if r.Limit > 0 && len(r.events) > r.Limit {
		r.events = append(r.events[:0:0], r.events[len(r.events)-r.Limit:]...)
	}
}

// Events returns a snapshot of everything recorded so far.
func (r *Recorder) Events() []Event {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}
