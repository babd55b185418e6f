package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/diagramdive/internal/mcp"
)

// Version is set via ldflags at build time.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of diagramdive",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("diagramdive %s (mcp server %s)\n", Version, mcpserver.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
