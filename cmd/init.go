package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/diagramdive/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize diagramdive configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to choose the LLM provider, quality tier, server port and render engine, and writes them to the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
