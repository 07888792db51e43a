package cmd

import (
	"github.com/huangsam/fragmeter/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the fragmeter MCP server",
	Long:  `Launch an MCP server over stdio that lets AI agents score activities, read trends and detect anomalies.`,
	// Setup output goes to stderr only, since stdio carries the protocol.
	PreRunE: sharedSetupNoUsers,
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}
