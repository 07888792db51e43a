package cmd

import (
	"github.com/huangsam/fragmeter/core"
	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/spf13/cobra"
)

// trendCmd scores every day in a range for one or more users.
var trendCmd = &cobra.Command{
	Use:   "trend <user...>",
	Short: "Track how fragmentation scores change day by day",
	Long: `Score every calendar day in the range for each user and summarize the trend.

Shows the daily score series, helping you:
- See which days were the most fragmented
- Smooth out noise with rolling averages
- Catch anomalous spikes against the user's own baseline

Days without activity score 0. Days that could not be scored are listed as
failures and left out of the averages.

Examples:
  # Last 7 days for alice
  fragmeter trend alice --data-dir ./activity

  # A fixed range with a 5-day rolling average
  fragmeter trend alice --start 2024-06-01 --end 2024-06-30 --rolling-window 5

  # Record the run for later history queries
  fragmeter trend alice --history-backend sqlite --record-history`,
	Args:    cobra.MinimumNArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTrend(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run trend analysis", err)
		}
	},
}
