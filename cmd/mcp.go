package cmd

import (
	"github.com/spf13/cobra"

	"github.com/fleetdash/fleetdash/internal/mcp"
	"github.com/fleetdash/fleetdash/internal/version"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start MCP server on stdio",
	Long: `Start an MCP (Model Context Protocol) server on stdio.

This lets AI agents browse the fleet through the same server and saved
session the dashboard uses.

Example configuration for .mcp.json:
  {
    "mcpServers": {
      "fleetdash": {
        "command": "fleetdash",
        "args": ["mcp"]
      }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		server := mcp.NewServer(version.Version, connect)
		return server.Serve()
	},
}

func init() {
	RootCmd.AddCommand(mcpCmd)
}
