package runner

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/buildwatch/internal/config"
	"github.com/Aman-CERP/buildwatch/internal/monitor"
	"github.com/Aman-CERP/buildwatch/internal/session"
)

func testProject(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	bundle := filepath.Join(dir, "public", "build")
	require.NoError(t, os.MkdirAll(bundle, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bundle, "main.js"), make([]byte, 1000), 0o644))

	modules := filepath.Join(dir, "node_modules")
	require.NoError(t, os.MkdirAll(modules, 0o755))

	manifestJSON := `{"dependencies": {"a": "1"}, "devDependencies": {"b": "1"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "package.json"), []byte(manifestJSON), 0o644))

	cfg := config.Default()
	cfg.BundlePath = bundle
	cfg.NodeModulesPath = modules
	cfg.ManifestPath = filepath.Join(dir, "package.json")
	cfg.ReportDir = filepath.Join(dir, ".buildwatch")
	cfg.CheckIntervalMS = 10
	return cfg
}

func quietOpts() []session.Option {
	return []session.Option{
		session.WithConsole(&bytes.Buffer{}),
		session.WithExitFunc(func(int) {}),
	}
}

func TestExec_SuccessfulBuildRunsChecks(t *testing.T) {
	cfg := testProject(t)

	code, err := Exec(context.Background(), cfg, ExecConfig{
		Args:        []string{"true"},
		Stdout:      &bytes.Buffer{},
		Stderr:      &bytes.Buffer{},
		SessionOpts: quietOpts(),
	})

	require.NoError(t, err)
	assert.Equal(t, 0, code)

	// Completion checks ran and wrote the run report
	_, statErr := os.Stat(filepath.Join(cfg.ReportDir, "report.json"))
	assert.NoError(t, statErr)
}

func TestExec_FailedBuildSkipsChecksAndPassesExitCodeThrough(t *testing.T) {
	cfg := testProject(t)

	code, err := Exec(context.Background(), cfg, ExecConfig{
		Args:        []string{"sh", "-c", "exit 7"},
		Stdout:      &bytes.Buffer{},
		Stderr:      &bytes.Buffer{},
		SessionOpts: quietOpts(),
	})

	require.NoError(t, err)
	assert.Equal(t, 7, code)

	// No completion checks, no report
	_, statErr := os.Stat(filepath.Join(cfg.ReportDir, "report.json"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExec_NoCommandFails(t *testing.T) {
	cfg := testProject(t)

	code, err := Exec(context.Background(), cfg, ExecConfig{})
	assert.ErrorIs(t, err, ErrNoCommand)
	assert.Equal(t, 1, code)
}

func TestExec_UnknownCommandFails(t *testing.T) {
	cfg := testProject(t)

	code, err := Exec(context.Background(), cfg, ExecConfig{
		Args:        []string{"definitely-not-a-real-binary-name"},
		SessionOpts: quietOpts(),
	})
	assert.Error(t, err)
	assert.Equal(t, 1, code)
}

func TestWatch_QuiescenceTriggersCompletion(t *testing.T) {
	// Given: a watch over the bundle directory with a short settle window
	cfg := testProject(t)

	factory := func() (*session.Session, error) {
		return session.New(cfg, append(quietOpts(),
			session.WithSampler(func() (uint64, error) { return 10_000_000, nil }),
		)...)
	}
	w := NewWatch(cfg.BundlePath, 100*time.Millisecond, factory, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// When: the external bundler writes output, then goes quiet
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(cfg.BundlePath, "chunk.js"), []byte("x"), 0o644))

	// Then: the completion checks run once the writes settle
	reportPath := filepath.Join(cfg.ReportDir, "report.json")
	require.Eventually(t, func() bool {
		_, err := os.Stat(reportPath)
		return err == nil
	}, 3*time.Second, 50*time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestWatch_MissingRootFails(t *testing.T) {
	w := NewWatch(filepath.Join(t.TempDir(), "gone"), time.Second, func() (*session.Session, error) {
		return nil, nil
	}, nil)

	assert.Error(t, w.Run(context.Background()))
}

func TestPidSamplerOnSelf(t *testing.T) {
	// The pid sampler reads a live process's resident memory
	s := monitor.PidSampler(int32(os.Getpid()))
	rss, err := s()
	require.NoError(t, err)
	assert.Greater(t, rss, uint64(0))
}
