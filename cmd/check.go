package cmd

import (
	"github.com/huangsam/fragmeter/core"
	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/spf13/cobra"
)

// checkCmd focused on CI/CD policy enforcement.
var checkCmd = &cobra.Command{
	Use:   "check [user...]",
	Short: "Fail when any user's score reaches the threshold (for CI/CD and alerting)",
	Long: `Score each user over the rolling window and enforce a fragmentation threshold.

Exits with a non-zero code when any user scores at or above --check-threshold,
or when a user cannot be scored at all. The full report is printed either way.

Default threshold: 3.5 (the start of the High risk level)

Examples:
  # Gate the whole directory with the default threshold
  fragmeter check --data-dir ./activity

  # Stricter gate over the last 3 days
  fragmeter check alice bob --days 3 --check-threshold 2.5`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCheck(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Fragmentation check failed", err)
		}
	},
}
