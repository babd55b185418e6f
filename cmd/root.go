package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/diagramdive/internal/config"
	"github.com/ziadkadry99/diagramdive/internal/logging"
	"github.com/ziadkadry99/diagramdive/internal/tracer"
)

var (
	cfgFile string
	verbose bool

	// Set by the root command before any subcommand runs.
	cfg            *config.Config
	logger         = zap.NewNop()
	shutdownTracer = func(context.Context) error { return nil }
)

var rootCmd = &cobra.Command{
	Use:   "diagramdive",
	Short: "Generate diagrams from plain-language queries and dig into their parts",
	Long: `diagramdive turns a natural-language query into a Mermaid diagram, renders it,
and lets you select a node or edge label to ask follow-up questions scoped to
that element. It runs as an HTTP service with a browser UI, as a terminal UI,
as a one-shot CLI and as an MCP server for AI agents.`,
	SilenceUsage:       true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// setup loads .env, the config file and environment overrides, then builds
// the logger and tracer shared by every command.
func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	var err error
	cfg, err = loadConfig()
	if err != nil {
		return err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}

	logger, err = logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	shutdownTracer, err = tracer.Init(cmd.Context(), tracer.Options{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		ServiceName: "diagramdive",
		SampleRatio: cfg.Tracing.SampleRatio,
	}, logger)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if err := shutdownTracer(context.Background()); err != nil {
		logger.Warn("flushing traces", zap.Error(err))
	}
	_ = logger.Sync()
	return nil
}
