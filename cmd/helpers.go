package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/ziadkadry99/diagramdive/internal/api"
	"github.com/ziadkadry99/diagramdive/internal/config"
	"github.com/ziadkadry99/diagramdive/internal/db"
	"github.com/ziadkadry99/diagramdive/internal/llm"
	"github.com/ziadkadry99/diagramdive/internal/pipeline"
	"github.com/ziadkadry99/diagramdive/internal/render"
	"github.com/ziadkadry99/diagramdive/internal/usage"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	c, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `diagramdive init` to create a config file", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return c, nil
}

// createLLMProviderFromConfig creates the LLM provider behind the generation
// pipeline, rate limited and instrumented. recorder may be nil.
func createLLMProviderFromConfig(c *config.Config, recorder llm.Recorder, log *zap.Logger) (llm.Provider, error) {
	p, err := llm.NewProvider(llm.ProviderConfig{
		Type:    string(c.LLM.Provider),
		Model:   c.LLM.Model,
		BaseURL: c.LLM.BaseURL,
	})
	if err != nil {
		return nil, err
	}
	if c.LLM.RequestsPerMinute > 0 {
		p = llm.NewRateLimitedProvider(p, c.LLM.RequestsPerMinute)
	}
	return llm.Instrument(p, recorder, log), nil
}

// openUsage opens the usage ledger when it is enabled. The returned close
// function is always safe to call.
func openUsage(c *config.Config) (*usage.Store, func() error, error) {
	if !c.Usage.Enabled {
		return nil, func() error { return nil }, nil
	}
	database, err := db.Open(c.Usage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening usage ledger: %w", err)
	}
	return usage.NewStore(database), database.Close, nil
}

// createService returns the diagram service: a remote one when service.url
// is configured, otherwise the generation pipeline running in-process.
func createService(c *config.Config, log *zap.Logger) (api.Service, func() error, error) {
	if c.Service.URL != "" {
		log.Info("using remote diagram service", zap.String("url", c.Service.URL))
		return api.NewClient(c.Service.URL, c.Service.Timeout, log), func() error { return nil }, nil
	}

	store, closeUsage, err := openUsage(c)
	if err != nil {
		return nil, nil, err
	}
	var recorder llm.Recorder
	if store != nil {
		recorder = store
	}
	provider, err := createLLMProviderFromConfig(c, recorder, log)
	if err != nil {
		closeUsage()
		return nil, nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	return pipeline.NewLocal(pipeline.New(provider, c.LLM.Model, log)), closeUsage, nil
}

// createEngines returns the loader for the configured render engine.
func createEngines(c *config.Config, log *zap.Logger) (*render.Loader, error) {
	return render.New(render.Options{
		Engine:     c.Render.Engine,
		MermaidCLI: c.Render.MermaidCLI,
		Timeout:    c.Render.Timeout,
		Logger:     log,
	})
}
