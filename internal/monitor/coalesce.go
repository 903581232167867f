package monitor

import (
	"sync"
	"time"

	"github.com/Aman-CERP/buildwatch/internal/relay"
)

// coalescingWindow is the span during which repeated memory warnings are
// suppressed. The first warning in a window is emitted immediately and the
// last one is emitted when the window closes, bracketing a sustained episode
// without flooding the log on every tick.
const coalescingWindow = 2500 * time.Millisecond

// coalescer is a leading+trailing notification suppressor, modelled as an
// explicit state machine: the last emit time, the pending trailing event,
// and a single flush timer.
type coalescer struct {
	window time.Duration
	emit   func(relay.Event)

	mu       sync.Mutex
	lastEmit time.Time
	pending  *relay.Event
	timer    *time.Timer
	stopped  bool
}

func newCoalescer(window time.Duration, emit func(relay.Event)) *coalescer {
	return &coalescer{
		window: window,
		emit:   emit,
	}
}

// notify emits the event immediately when outside the window (leading edge).
// Inside the window it replaces the pending trailing event, which is flushed
// once when the window closes.
func (c *coalescer) notify(ev relay.Event) {
	c.mu.Lock()

	if c.stopped {
		c.mu.Unlock()
		return
	}

	now := time.Now()
	if now.Sub(c.lastEmit) >= c.window {
		c.lastEmit = now
		c.mu.Unlock()
		c.emit(ev)
		return
	}

	c.pending = &ev
	if c.timer == nil {
		delay := c.lastEmit.Add(c.window).Sub(now)
		c.timer = time.AfterFunc(delay, c.flush)
	}
	c.mu.Unlock()
}

// flush emits the pending trailing event, if any.
func (c *coalescer) flush() {
	c.mu.Lock()

	c.timer = nil
	if c.stopped || c.pending == nil {
		c.mu.Unlock()
		return
	}

	ev := *c.pending
	c.pending = nil
	c.lastEmit = time.Now()
	c.mu.Unlock()

	c.emit(ev)
}

// stop cancels any scheduled trailing emit. Safe to call multiple times.
func (c *coalescer) stop() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stopped {
		return
	}
	c.stopped = true
	c.pending = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
