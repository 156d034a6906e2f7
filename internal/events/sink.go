// Package events provides the progress-event sink the pipeline streams to.
package events

import (
	"sync"

	"github.com/sells-group/factcheck/internal/model"
)

// Sink receives pipeline progress events. Implementations must be safe for
// concurrent Emit from multiple in-flight stage and claim goroutines;
// events from a single producer arrive in the order it emitted them.
type Sink interface {
	Emit(event model.Event)
}

// Func adapts a plain function to the Sink interface.
type Func func(model.Event)

// Emit implements Sink.
func (f Func) Emit(event model.Event) {
	f(event)
}

// Discard is a Sink that drops every event.
var Discard Sink = Func(func(model.Event) {})

// Locked wraps any sink with a mutex so a non-thread-safe consumer (an SSE
// writer, a CLI renderer) can be used as a pipeline sink.
type Locked struct {
	mu    sync.Mutex
	inner Sink
}

// NewLocked wraps inner with mutual exclusion around Emit.
func NewLocked(inner Sink) *Locked {
	return &Locked{inner: inner}
}

// Emit implements Sink.
func (l *Locked) Emit(event model.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.inner.Emit(event)
}

// Recorder accumulates every emitted event in order. Used by tests and the
// synchronous CLI path to inspect the full event sequence after a run.
type Recorder struct {
	mu     sync.Mutex
	events []model.Event
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Emit implements Sink.
func (r *Recorder) Emit(event model.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a copy of everything emitted so far.
func (r *Recorder) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Event, len(r.events))
	copy(out, r.events)
	return out
}

// ByType returns recorded events matching the given type, in emission order.
func (r *Recorder) ByType(t model.EventType) []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Event
	for _, e := range r.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// Count returns how many events of the given type were recorded.
func (r *Recorder) Count(t model.EventType) int {
	return len(r.ByType(t))
}

// Channel is a Sink backed by a buffered channel with a single consumer,
// the shape the SSE transport uses. Emit never blocks the pipeline: when
// the buffer is full the event is dropped and the drop counted, so a slow
// or disconnected consumer cannot stall verification.
type Channel struct {
	ch      chan model.Event
	mu      sync.Mutex
	closed  bool
	dropped int
}

// NewChannel creates a channel sink with the given buffer size.
func NewChannel(buffer int) *Channel {
	if buffer <= 0 {
		buffer = 256
	}
	return &Channel{ch: make(chan model.Event, buffer)}
}

// Emit implements Sink.
func (c *Channel) Emit(event model.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.dropped++
		return
	}
	select {
	case c.ch <- event:
	default:
		c.dropped++
	}
}

// Events returns the receive side for the single consumer.
func (c *Channel) Events() <-chan model.Event {
	return c.ch
}

// Close stops the sink; later Emit calls are dropped. Safe to call once the
// producing run has finished or been cancelled.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

// Dropped reports how many events were discarded due to a full buffer or a
// closed sink.
func (c *Channel) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}
