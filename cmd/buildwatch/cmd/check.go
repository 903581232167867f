package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/buildwatch/internal/check"
	"github.com/Aman-CERP/buildwatch/internal/manifest"
	"github.com/Aman-CERP/buildwatch/internal/output"
	"github.com/Aman-CERP/buildwatch/internal/sizer"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Run the size and dependency checks once, without monitoring",
		Long: `Checks bundle output size, dependency-tree size, and declared
dependency count against the configured limits. Exceeded limits are
reported but never change the exit code.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := output.New(os.Stdout, cfg.Log)

			counts, err := manifest.Read(cfg.ManifestPath)
			if err != nil {
				return err
			}
			out.Outcome(check.Count("node modules", counts.Total(), cfg.MaxNodeModules))

			prober, err := sizer.NewProber()
			if err != nil {
				return err
			}

			bundleBytes, err := prober.DirSize(cmd.Context(), cfg.BundlePath)
			if err != nil {
				return err
			}
			out.Outcome(check.Against("bundle size", check.ToMB(bundleBytes), cfg.BundleMaxMB))

			modulesBytes, err := prober.DirSize(cmd.Context(), cfg.NodeModulesPath)
			if err != nil {
				return err
			}
			out.Outcome(check.Against("node_modules size", check.ToMB(modulesBytes), cfg.NodeModulesMaxMB))

			return nil
		},
	}
}
