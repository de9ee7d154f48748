package cmd

import (
	"github.com/huangsam/binforecast/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the binforecast MCP server",
	Long:  `Launch an MCP server that allows AI agents to query waste forecasts via standard tools.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Logs go to stderr so stdio stays reserved for the protocol
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		eng, err := buildEngine()
		if err != nil {
			return err
		}
		eng.Initialize(rootCtx)
		return mcp.StartMCPServer(rootCtx, eng, cfg, logger)
	},
}
