package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/diagramdive/internal/logging"
	"github.com/ziadkadry99/diagramdive/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui [query]",
	Short: "Explore diagrams interactively in the terminal",
	Long: `Opens a terminal UI: enter a query to generate a diagram, move through its
nodes and edge labels, select one and ask follow-up questions about it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The terminal belongs to the UI; only a log file may receive logs.
		log := zap.NewNop()
		if cfg.Log.File != "" {
			fileLog, err := logging.New(logging.Options{
				Level:     cfg.Log.Level,
				File:      cfg.Log.File,
				NoConsole: true,
			})
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}
			defer fileLog.Sync()
			log = fileLog
		}

		svc, closeSvc, err := createService(cfg, log)
		if err != nil {
			return err
		}
		defer closeSvc()

		engines, err := createEngines(cfg, log)
		if err != nil {
			return fmt.Errorf("creating render engine: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		engines.Start(ctx)

		return tui.Run(ctx, tui.Options{
			Service: svc,
			Engines: engines,
			Logger:  log,
			Query:   strings.Join(args, " "),
			Timeout: cfg.Server.RequestTimeout,
		})
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
