// Package session orchestrates a single monitored build: the memory monitor
// runs for the build's duration, the dependency count is checked at start,
// and bundle and dependency-tree sizes are checked at completion.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/buildwatch/internal/check"
	"github.com/Aman-CERP/buildwatch/internal/config"
	"github.com/Aman-CERP/buildwatch/internal/manifest"
	"github.com/Aman-CERP/buildwatch/internal/monitor"
	"github.com/Aman-CERP/buildwatch/internal/output"
	"github.com/Aman-CERP/buildwatch/internal/relay"
	"github.com/Aman-CERP/buildwatch/internal/sizer"
)

var (
	// ErrNotStarted is returned by Complete before Start.
	ErrNotStarted = errors.New("session: not started")
	// ErrAlreadyStarted is returned by Start on a running session.
	ErrAlreadyStarted = errors.New("session: already started")
	// ErrAlreadyCompleted is returned by Complete after it has run once.
	ErrAlreadyCompleted = errors.New("session: already completed")
)

// Result summarizes a completed session.
type Result struct {
	PeakMB   float64         `json:"peak_mb"`
	PeakAt   time.Time       `json:"peak_at"`
	Outcomes []check.Outcome `json:"outcomes"`
}

// Session ties one build's lifecycle to the monitor and the size checks.
// Start and Complete each fire at most once.
type Session struct {
	cfg    *config.Config
	mon    *monitor.Monitor
	prober *sizer.Prober
	pub    relay.Publisher
	out    *output.Writer
	logger *slog.Logger

	mu        sync.Mutex
	started   bool
	completed bool
}

type settings struct {
	sampler monitor.Sampler
	exit    func(int)
	pub     relay.Publisher
	console io.Writer
	logger  *slog.Logger
	prober  *sizer.Prober
}

// Option configures a Session.
type Option func(*settings)

// WithSampler sets the resident-memory sampler (e.g. for a child pid).
func WithSampler(s monitor.Sampler) Option {
	return func(o *settings) {
		o.sampler = s
	}
}

// WithExitFunc overrides the fatal-abort primitive.
func WithExitFunc(exit func(int)) Option {
	return func(o *settings) {
		o.exit = exit
	}
}

// WithPublisher sets the notification relay publisher.
func WithPublisher(p relay.Publisher) Option {
	return func(o *settings) {
		o.pub = p
	}
}

// WithConsole sets the console output destination.
func WithConsole(w io.Writer) Option {
	return func(o *settings) {
		o.console = w
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *settings) {
		o.logger = l
	}
}

// WithProber sets the directory size prober.
func WithProber(p *sizer.Prober) Option {
	return func(o *settings) {
		o.prober = p
	}
}

// New creates a session for the given configuration. Console reporting is
// controlled by cfg.Log, threaded explicitly into the output writer.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	st := settings{
		sampler: monitor.SelfSampler(),
		exit:    os.Exit,
		pub:     relay.NopPublisher{},
		console: os.Stdout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(&st)
	}

	if st.prober == nil {
		prober, err := sizer.NewProber()
		if err != nil {
			return nil, err
		}
		st.prober = prober
	}

	mon := monitor.New(
		monitor.Config{
			WarnMB:   cfg.MemoryWarnMB,
			FatalMB:  cfg.MemoryFatalMB,
			Interval: cfg.Interval(),
		},
		monitor.WithSampler(st.sampler),
		monitor.WithExitFunc(st.exit),
		monitor.WithPublisher(st.pub),
		monitor.WithLogger(st.logger),
	)

	return &Session{
		cfg:    cfg,
		mon:    mon,
		prober: st.prober,
		pub:    st.pub,
		out:    output.New(st.console, cfg.Log),
		logger: st.logger,
	}, nil
}

// Start begins the session: the memory monitor starts sampling and the
// declared dependency count is checked once. An unreadable manifest fails
// Start; the monitor keeps running so a still-in-flight build stays covered.
func (s *Session) Start(_ context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.mu.Unlock()

	if err := s.mon.Start(); err != nil {
		return err
	}

	counts, err := manifest.Read(s.cfg.ManifestPath)
	if err != nil {
		return fmt.Errorf("dependency count check: %w", err)
	}

	s.report(check.Count("node modules", counts.Total(), s.cfg.MaxNodeModules))
	return nil
}

// Complete ends the session: the monitor is stopped before its peak is
// read, then bundle and dependency-tree sizes are probed concurrently and
// checked. Probe failures are isolated per directory; the check for a
// successful probe still runs. Fires at most once.
func (s *Session) Complete(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil, ErrNotStarted
	}
	if s.completed {
		s.mu.Unlock()
		return nil, ErrAlreadyCompleted
	}
	s.completed = true
	s.mu.Unlock()

	s.mon.Stop()
	peakMB, peakAt := s.mon.Peak()

	s.out.Infof("peak memory %.2f MB at %s", peakMB, peakAt.Format(time.RFC3339))
	s.pub.Publish(relay.Event{
		Level:    relay.LevelInfo,
		Name:     "memory peak",
		Message:  fmt.Sprintf("peak memory %.2f MB", peakMB),
		Measured: peakMB,
		Time:     peakAt,
	})

	var (
		bundleBytes, modulesBytes int64
		bundleErr, modulesErr     error
	)

	// Both probes finish before any threshold check runs.
	var g errgroup.Group
	g.Go(func() error {
		bundleBytes, bundleErr = s.prober.DirSize(ctx, s.cfg.BundlePath)
		return nil
	})
	g.Go(func() error {
		modulesBytes, modulesErr = s.prober.DirSize(ctx, s.cfg.NodeModulesPath)
		return nil
	})
	_ = g.Wait()

	result := &Result{PeakMB: peakMB, PeakAt: peakAt}

	if bundleErr != nil {
		s.probeFailed("bundle size", s.cfg.BundlePath, bundleErr)
	} else {
		o := check.Against("bundle size", check.ToMB(bundleBytes), s.cfg.BundleMaxMB)
		s.report(o)
		result.Outcomes = append(result.Outcomes, o)
	}

	if modulesErr != nil {
		s.probeFailed("node_modules size", s.cfg.NodeModulesPath, modulesErr)
	} else {
		o := check.Against("node_modules size", check.ToMB(modulesBytes), s.cfg.NodeModulesMaxMB)
		s.report(o)
		result.Outcomes = append(result.Outcomes, o)
	}

	if err := writeReport(s.cfg.ReportDir, result); err != nil {
		// Losing the report file never fails the build
		s.logger.Warn("write run report failed", slog.String("error", err.Error()))
	}

	return result, errors.Join(bundleErr, modulesErr)
}

// Close stops the memory monitor without running the completion checks.
// Used when the build fails or the session is abandoned. Safe to call at
// any point, including after Complete.
func (s *Session) Close() {
	s.mon.Stop()
}

// report sends an outcome to the console, the log, and the relay.
func (s *Session) report(o check.Outcome) {
	s.out.Outcome(o)
	s.pub.Publish(relay.FromOutcome(o))

	switch o.Status {
	case check.StatusFail:
		s.logger.Error(o.Message)
	case check.StatusWarn:
		s.logger.Warn(o.Message)
	default:
		s.logger.Info(o.Message)
	}
}

func (s *Session) probeFailed(name, path string, err error) {
	s.logger.Error("size probe failed",
		slog.String("check", name),
		slog.String("path", path),
		slog.String("error", err.Error()),
	)
	s.pub.Publish(relay.Event{
		Level:   relay.LevelError,
		Name:    name,
		Message: fmt.Sprintf("%s: probe of %s failed: %v", name, path, err),
		Time:    time.Now(),
	})
}
