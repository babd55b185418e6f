package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/diagramdive/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the describe_diagram and deep_dive tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeSvc, err := createService(cfg, logger)
		if err != nil {
			return err
		}
		defer closeSvc()

		engines, err := createEngines(cfg, logger)
		if err != nil {
			return fmt.Errorf("creating render engine: %w", err)
		}
		engines.Start(cmd.Context())

		// Set version from the cmd package variable.
		mcpserver.Version = Version

		logger.Info("diagramdive MCP server started on stdio")
		return mcpserver.NewServer(svc, engines, logger).Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
