package config

import "time"

// DefaultPath is where the config file is looked up when --config is not given.
const DefaultPath = ".diagramdive.yml"

// qualityPresets maps each provider+quality combination to its model.
var qualityPresets = map[ProviderType]map[QualityTier]string{
	ProviderAnthropic: {
		QualityLite:   "claude-haiku-4-5-20251001",
		QualityNormal: "claude-sonnet-4-5-20250929",
		QualityMax:    "claude-opus-4-1",
	},
	ProviderOpenAI: {
		QualityLite:   "gpt-4o-mini",
		QualityNormal: "gpt-4o",
		QualityMax:    "gpt-4.1",
	},
	ProviderOllama: {
		QualityLite:   "llama3",
		QualityNormal: "llama3",
		QualityMax:    "llama3:70b",
	},
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8000,
			CORSAllowAll:   true,
			RequestTimeout: 2 * time.Minute,
			SessionTTL:     30 * time.Minute,
		},
		Service: ServiceConfig{
			Timeout: 2 * time.Minute,
		},
		LLM: LLMConfig{
			Provider: ProviderOpenAI,
			Model:    "gpt-4o-mini",
			Quality:  QualityLite,
		},
		Render: RenderConfig{
			Engine:     "builtin",
			MermaidCLI: "mmdc",
			Timeout:    30 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Usage: UsageConfig{
			Enabled: true,
			Path:    ".diagramdive/usage.db",
		},
		Tracing: TracingConfig{
			Endpoint:    "localhost:4318",
			Insecure:    true,
			SampleRatio: 1,
		},
	}
}

// PresetModel returns the model for the given provider and tier.
// Returns the lite OpenAI model if the combination is not found.
func PresetModel(provider ProviderType, tier QualityTier) string {
	if tiers, ok := qualityPresets[provider]; ok {
		if model, ok := tiers[tier]; ok {
			return model
		}
	}
	return qualityPresets[ProviderOpenAI][QualityLite]
}
