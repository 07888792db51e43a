package cmd

import (
	"github.com/huangsam/fragmeter/core"
	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/spf13/cobra"
)

// scoreCmd scores users over a rolling window that ends now.
var scoreCmd = &cobra.Command{
	Use:   "score [user...]",
	Short: "Score cognitive fragmentation for one or more users.",
	Long: `Score each user's activity over a rolling window of days that ends now.

The score runs from 0 to 5 and combines:
- Meetings and issue updates, weighted per activity
- Switches between sources (teams to jira) and activity types
- A bonus for using many platforms and for dense activity

Each result carries a risk level (Low, Moderate, High) and a short summary.
Without user arguments every user found in --data-dir is scored.

Examples:
  # Score one user over today
  fragmeter score alice --data-dir ./activity

  # Score the whole directory over the last 3 days
  fragmeter score --data-dir ./activity --days 3

  # Export scores to CSV
  fragmeter score alice bob --data-dir ./activity --output csv --output-file scores.csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteScore(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run scoring", err)
		}
	},
}
