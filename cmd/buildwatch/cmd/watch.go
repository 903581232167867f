package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/buildwatch/internal/monitor"
	"github.com/Aman-CERP/buildwatch/internal/runner"
	"github.com/Aman-CERP/buildwatch/internal/session"
)

func newWatchCmd() *cobra.Command {
	var pid int32

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Attach to an externally-run build",
		Long: `Watches the bundle output directory. Each burst of writes is treated
as a build in progress; when the writes quiesce the completion checks run.
By default the monitor samples this process's memory; pass --pid to sample
the bundler's process instead. Runs until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			sampler := monitor.SelfSampler()
			if pid > 0 {
				sampler = monitor.PidSampler(pid)
			}

			factory := func() (*session.Session, error) {
				return session.New(cfg, session.WithSampler(sampler))
			}

			w := runner.NewWatch(cfg.BundlePath, cfg.WatchSettle(), factory, nil)
			if err := w.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().Int32Var(&pid, "pid", 0, "Process to sample resident memory from")

	return cmd
}
