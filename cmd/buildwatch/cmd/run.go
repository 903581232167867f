package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/buildwatch/internal/runner"
)

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run -- <build command> [args...]",
		Short: "Run a build command under the watchdog",
		Long: `Runs the build command as a child process. The memory monitor samples
the child's resident memory; when the build exits successfully the bundle
and dependency checks run. The build's own exit code passes through.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			code, err := runner.Exec(cmd.Context(), cfg, runner.ExecConfig{Args: args})
			if err != nil {
				return err
			}
			if code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
}
