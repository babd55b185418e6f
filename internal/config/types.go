package config

import "time"

// QualityTier controls the model selection and trade-off between speed/cost and quality.
type QualityTier string

const (
	QualityLite   QualityTier = "lite"
	QualityNormal QualityTier = "normal"
	QualityMax    QualityTier = "max"
)

// ProviderType identifies an LLM provider.
type ProviderType string

const (
	ProviderAnthropic ProviderType = "anthropic"
	ProviderOpenAI    ProviderType = "openai"
	ProviderOllama    ProviderType = "ollama"
)

// Config is the top-level diagramdive configuration, corresponding to .diagramdive.yml.
type Config struct {
	Server  ServerConfig  `yaml:"server" koanf:"server"`
	Service ServiceConfig `yaml:"service" koanf:"service"`
	LLM     LLMConfig     `yaml:"llm" koanf:"llm"`
	Render  RenderConfig  `yaml:"render" koanf:"render"`
	Log     LogConfig     `yaml:"log" koanf:"log"`
	Usage   UsageConfig   `yaml:"usage" koanf:"usage"`
	Tracing TracingConfig `yaml:"tracing" koanf:"tracing"`
}

// ServerConfig configures `diagramdive serve`.
type ServerConfig struct {
	Port           int           `yaml:"port" koanf:"port"`
	CORSAllowAll   bool          `yaml:"cors_allow_all" koanf:"cors_allow_all"`
	RequestTimeout time.Duration `yaml:"request_timeout" koanf:"request_timeout"`
	SessionTTL     time.Duration `yaml:"session_ttl" koanf:"session_ttl"`
}

// ServiceConfig tells clients where the diagram service lives. An empty URL
// runs the generation pipeline in-process.
type ServiceConfig struct {
	URL     string        `yaml:"url" koanf:"url"`
	Timeout time.Duration `yaml:"timeout" koanf:"timeout"`
}

// LLMConfig selects the model behind the generation pipeline.
type LLMConfig struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	Quality           QualityTier  `yaml:"quality" koanf:"quality"`
	BaseURL           string       `yaml:"base_url" koanf:"base_url"`
	RequestsPerMinute int          `yaml:"requests_per_minute" koanf:"requests_per_minute"`
}

// RenderConfig selects the rendering engine.
type RenderConfig struct {
	Engine     string        `yaml:"engine" koanf:"engine"`
	MermaidCLI string        `yaml:"mermaid_cli" koanf:"mermaid_cli"`
	Timeout    time.Duration `yaml:"timeout" koanf:"timeout"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
	File   string `yaml:"file" koanf:"file"`
}

// UsageConfig configures the LLM usage ledger.
type UsageConfig struct {
	Enabled bool   `yaml:"enabled" koanf:"enabled"`
	Path    string `yaml:"path" koanf:"path"`
}

// TracingConfig configures OpenTelemetry export.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled" koanf:"enabled"`
	Endpoint    string  `yaml:"endpoint" koanf:"endpoint"`
	Insecure    bool    `yaml:"insecure" koanf:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio" koanf:"sample_ratio"`
}
