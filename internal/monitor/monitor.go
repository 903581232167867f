// Package monitor samples the build process's resident memory on a fixed
// interval and enforces warning and fatal thresholds.
package monitor

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/Aman-CERP/buildwatch/internal/check"
	"github.com/Aman-CERP/buildwatch/internal/relay"
)

// ErrAlreadyStarted is returned when Start is called on a monitor that is
// running or has already finished. A monitor instance is never restarted.
var ErrAlreadyStarted = errors.New("monitor: already started")

type state int

const (
	stateIdle state = iota
	stateRunning
	stateStopped
)

// Config holds the monitor's thresholds and sampling cadence.
type Config struct {
	// WarnMB is the resident-memory warning threshold in MB.
	WarnMB float64
	// FatalMB is the resident-memory fatal threshold in MB. A sample above
	// this aborts the process with exit code 1.
	FatalMB float64
	// Interval is the sampling cadence.
	Interval time.Duration
}

// Monitor owns a repeating sampling loop. It is the sole writer of the
// running peak; callers read it through Peak, including after Stop.
type Monitor struct {
	cfg       Config
	sampler   Sampler
	pub       relay.Publisher
	logger    *slog.Logger
	exit      func(int)
	exitOnce  sync.Once
	coalescer *coalescer

	mu     sync.RWMutex
	st     state
	peakMB float64
	peakAt time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

// Option configures a Monitor.
type Option func(*Monitor)

// WithSampler overrides the resident-memory sampler.
func WithSampler(s Sampler) Option {
	return func(m *Monitor) {
		m.sampler = s
	}
}

// WithPublisher sets the event publisher.
func WithPublisher(p relay.Publisher) Option {
	return func(m *Monitor) {
		m.pub = p
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		m.logger = l
	}
}

// WithExitFunc overrides the process-exit primitive invoked on a fatal
// threshold breach. Tests use this to observe the abort without dying.
func WithExitFunc(exit func(int)) Option {
	return func(m *Monitor) {
		m.exit = exit
	}
}

// WithCoalescingWindow overrides the warning coalescing window.
func WithCoalescingWindow(window time.Duration) Option {
	return func(m *Monitor) {
		m.coalescer = newCoalescer(window, m.publish)
	}
}

// New creates a monitor in the idle state.
func New(cfg Config, opts ...Option) *Monitor {
	m := &Monitor{
		cfg:    cfg,
		pub:    relay.NopPublisher{},
		logger: slog.Default(),
		exit:   os.Exit,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
	m.sampler = SelfSampler()
	m.coalescer = newCoalescer(coalescingWindow, m.publish)

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins sampling. A warning threshold above the fatal threshold is
// reported as a misconfiguration but does not prevent the monitor from
// starting. Start fails on a monitor that has already run.
func (m *Monitor) Start() error {
	m.mu.Lock()
	if m.st != stateIdle {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.st = stateRunning
	m.peakMB = 0
	m.peakAt = time.Now()
	m.mu.Unlock()

	if m.cfg.WarnMB > m.cfg.FatalMB {
		msg := fmt.Sprintf("memory thresholds misconfigured: warning %.2f MB above fatal %.2f MB", m.cfg.WarnMB, m.cfg.FatalMB)
		m.logger.Warn(msg)
		m.pub.Publish(relay.Event{
			Level:   relay.LevelWarning,
			Name:    "memory config",
			Message: msg,
			Time:    time.Now(),
		})
	}

	ticker := time.NewTicker(m.cfg.Interval)
	go func() {
		defer close(m.done)
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.tick()
			}
		}
	}()

	m.logger.Debug("memory monitor started",
		slog.Float64("warn_mb", m.cfg.WarnMB),
		slog.Float64("fatal_mb", m.cfg.FatalMB),
		slog.Duration("interval", m.cfg.Interval),
	)
	return nil
}

// tick runs one sampling cycle. It performs no I/O beyond the sample itself
// and never blocks on subscribers.
func (m *Monitor) tick() {
	bytes, err := m.sampler()
	if err != nil {
		m.logger.Warn("memory sample failed", slog.String("error", err.Error()))
		return
	}

	mb := check.ToMB(int64(bytes))
	now := time.Now()

	if mb > m.cfg.FatalMB {
		limit := m.cfg.FatalMB
		msg := fmt.Sprintf("memory: %.2f MB exceeds fatal limit of %.2f MB, aborting build", mb, limit)
		m.logger.Error(msg, slog.Time("at", now))
		m.pub.Publish(relay.Event{
			Level:    relay.LevelError,
			Name:     "memory",
			Message:  msg,
			Measured: mb,
			Limit:    &limit,
			Time:     now,
		})
		m.exitOnce.Do(func() { m.exit(1) })
		return
	}

	if mb > m.cfg.WarnMB {
		limit := m.cfg.WarnMB
		m.coalescer.notify(relay.Event{
			Level:    relay.LevelWarning,
			Name:     "memory",
			Message:  fmt.Sprintf("memory: %.2f MB above warning limit of %.2f MB", mb, limit),
			Measured: mb,
			Limit:    &limit,
			Time:     now,
		})
	}

	m.mu.Lock()
	if mb > m.peakMB {
		m.peakMB = mb
		m.peakAt = now
	}
	m.mu.Unlock()
}

// Stop cancels the sampling loop and waits for any in-flight tick to finish,
// so the peak cannot move after Stop returns. Safe to call multiple times.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if m.st != stateRunning {
		m.mu.Unlock()
		return
	}
	m.st = stateStopped
	m.mu.Unlock()

	m.stopOnce.Do(func() {
		close(m.stopCh)
		<-m.done
		m.coalescer.stop()
		m.logger.Debug("memory monitor stopped")
	})
}

// Peak returns the highest sample observed since Start and when it was seen.
// Valid during the run and after Stop.
func (m *Monitor) Peak() (mb float64, at time.Time) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.peakMB, m.peakAt
}

func (m *Monitor) publish(ev relay.Event) {
	m.logger.Warn(ev.Message, slog.Float64("measured_mb", ev.Measured))
	m.pub.Publish(ev)
}
