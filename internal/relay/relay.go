// Package relay broadcasts check outcomes and monitor events to subscribers.
//
// Publishing is fire-and-forget: sends never block, and a slow subscriber
// drops events rather than stalling the build.
package relay

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Aman-CERP/buildwatch/internal/check"
)

// Level classifies an event for subscribers.
type Level string

const (
	// LevelInfo indicates an informational event.
	LevelInfo Level = "info"
	// LevelWarning indicates a soft limit breach or misconfiguration.
	LevelWarning Level = "warning"
	// LevelError indicates an exceeded limit.
	LevelError Level = "error"
)

// Event is a single notification published on the relay.
type Event struct {
	Level    Level     `json:"level"`
	Name     string    `json:"name"`
	Message  string    `json:"message"`
	Measured float64   `json:"measured"`
	Limit    *float64  `json:"limit,omitempty"`
	Time     time.Time `json:"time"`
}

// Publisher is the write side of the relay.
type Publisher interface {
	Publish(Event)
}

// NopPublisher discards all events.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(Event) {}

// FromOutcome converts a check outcome to a relay event.
func FromOutcome(o check.Outcome) Event {
	level := LevelInfo
	switch o.Status {
	case check.StatusWarn:
		level = LevelWarning
	case check.StatusFail:
		level = LevelError
	}

	return Event{
		Level:    level,
		Name:     o.Name,
		Message:  o.Message,
		Measured: o.Measured,
		Limit:    o.Limit,
		Time:     time.Now(),
	}
}

// Hub fans events out to any number of subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[int]chan Event
	nextID int
	closed bool
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		subs: make(map[int]chan Event),
	}
}

// Publish delivers the event to every subscriber without blocking.
func (h *Hub) Publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("relay subscriber full, dropping event",
				slog.Int("subscriber", id),
				slog.String("name", ev.Name),
			)
		}
	}
}

// Subscribe registers a new subscriber with the given buffer size.
// The returned cancel function removes the subscription and closes the channel.
func (h *Hub) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer < 1 {
		buffer = 1
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan Event, buffer)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}

	return ch, cancel
}

// Close removes all subscribers and closes their channels.
// Safe to call multiple times.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}
