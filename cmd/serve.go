package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/diagramdive/internal/live"
	"github.com/ziadkadry99/diagramdive/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the diagram service with its browser UI",
	Long: `Starts the HTTP diagram service: POST /describe and POST /deep-dive, health
checks, and the browser UI at / backed by a websocket session per tab.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		port := cfg.Server.Port
		if servePort > 0 {
			port = servePort
		}

		svc, closeSvc, err := createService(cfg, logger)
		if err != nil {
			return err
		}
		defer closeSvc()

		engines, err := createEngines(cfg, logger)
		if err != nil {
			return fmt.Errorf("creating render engine: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		engines.Start(ctx)

		lh := live.NewHandler(svc, engines, live.Options{
			SessionTTL:     cfg.Server.SessionTTL,
			RequestTimeout: cfg.Server.RequestTimeout,
			Logger:         logger,
		})
		srv := server.New(server.Config{
			Port:           port,
			AllowAll:       cfg.Server.CORSAllowAll,
			RequestTimeout: cfg.Server.RequestTimeout,
		}, svc, lh, logger)

		// Graceful shutdown.
		go func() {
			<-ctx.Done()
			logger.Info("shutting down server")
			sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(sctx); err != nil {
				logger.Warn("server shutdown", zap.Error(err))
			}
		}()

		logger.Info("diagramdive server starting",
			zap.String("version", Version),
			zap.Int("port", port),
			zap.String("provider", string(cfg.LLM.Provider)),
			zap.String("model", cfg.LLM.Model),
			zap.String("engine", cfg.Render.Engine))

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
