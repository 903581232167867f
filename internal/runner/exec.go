// Package runner adapts build lifecycles to sessions: either wrapping the
// build command as a subprocess or watching its output directory.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"

	"github.com/Aman-CERP/buildwatch/internal/config"
	"github.com/Aman-CERP/buildwatch/internal/monitor"
	"github.com/Aman-CERP/buildwatch/internal/session"
)

// ErrNoCommand is returned when Exec is called without a build command.
var ErrNoCommand = errors.New("runner: no build command given")

// ExecConfig controls a wrapped build run.
type ExecConfig struct {
	// Args is the build command and its arguments.
	Args []string
	// Stdout and Stderr receive the build's output. Defaults to the
	// parent's streams.
	Stdout io.Writer
	Stderr io.Writer
	// Logger is the structured logger.
	Logger *slog.Logger
	// SessionOpts are passed through to the session.
	SessionOpts []session.Option
}

// Exec runs the build command as a subprocess with a session attached:
// "build started" is the process starting, "build completed" is the process
// exiting successfully. The monitor samples the child's resident memory.
//
// The returned code is the build's own exit code; completion check failures
// are reported but never change it. The error covers wrapper-level failures
// only (bad arguments, spawn failure, session start failure).
func Exec(ctx context.Context, cfg *config.Config, ec ExecConfig) (int, error) {
	if len(ec.Args) == 0 {
		return 1, ErrNoCommand
	}
	if ec.Stdout == nil {
		ec.Stdout = os.Stdout
	}
	if ec.Stderr == nil {
		ec.Stderr = os.Stderr
	}
	logger := ec.Logger
	if logger == nil {
		logger = slog.Default()
	}

	cmd := exec.CommandContext(ctx, ec.Args[0], ec.Args[1:]...)
	cmd.Stdout = ec.Stdout
	cmd.Stderr = ec.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		return 1, fmt.Errorf("start build command: %w", err)
	}

	opts := append([]session.Option{
		session.WithSampler(monitor.PidSampler(int32(cmd.Process.Pid))),
		session.WithLogger(logger),
	}, ec.SessionOpts...)

	sess, err := session.New(cfg, opts...)
	if err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return 1, err
	}
	defer sess.Close()

	if err := sess.Start(ctx); err != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return 1, fmt.Errorf("start session: %w", err)
	}

	buildErr := cmd.Wait()
	if buildErr != nil {
		// A failed build never runs the completion checks; its exit code
		// passes through untouched.
		sess.Close()
		var exitErr *exec.ExitError
		if errors.As(buildErr, &exitErr) {
			logger.Warn("build failed, skipping completion checks",
				slog.Int("exit_code", exitErr.ExitCode()),
			)
			return exitErr.ExitCode(), nil
		}
		return 1, fmt.Errorf("wait for build command: %w", buildErr)
	}

	if _, err := sess.Complete(ctx); err != nil {
		logger.Warn("completion checks incomplete", slog.String("error", err.Error()))
	}

	return 0, nil
}
