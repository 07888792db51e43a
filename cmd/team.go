package cmd

import (
	"github.com/huangsam/fragmeter/core"
	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/spf13/cobra"
)

// teamCmd aggregates member trends into one team view.
var teamCmd = &cobra.Command{
	Use:   "team [user...]",
	Short: "Show the team-wide daily fragmentation average",
	Long: `Build the daily trend of every team member and average them per day.

The team view lists each member's average and the team average per day.
Members whose data cannot be read are reported and excluded.
Without user arguments every user found in --data-dir is a member.

Examples:
  # Whole directory as one team
  fragmeter team --data-dir ./activity

  # A named group over two weeks
  fragmeter team alice bob carol --start "2 weeks ago"`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteTeam(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run team analysis", err)
		}
	},
}
