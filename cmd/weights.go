package cmd

import (
	"github.com/huangsam/fragmeter/core"
	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/spf13/cobra"
)

// weightsCmd displays the scoring factors and their active weights.
var weightsCmd = &cobra.Command{
	Use:   "weights",
	Short: "Display the scoring factors and their active weights",
	Long: `Show every factor of the fragmentation score with the weight in effect.

Custom weights come from the weights section of .fragmeter.yaml. Factors that
are not overridden show their defaults.

No activity data is read - this is purely informational.

Examples:
  # Show the default weights
  fragmeter weights

  # View with custom weights from config file
  fragmeter weights --config .fragmeter.yaml --output json`,
	PreRunE: sharedSetupNoUsers,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteWeights(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot display weights", err)
		}
	},
}
