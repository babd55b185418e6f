package llm

import (
	"fmt"
	"os"
)

// Provider type names accepted by NewProvider.
const (
	TypeOpenAI    = "openai"
	TypeAnthropic = "anthropic"
	TypeOllama    = "ollama"
)

// ProviderConfig selects and configures a provider. API keys are always
// read from the environment.
type ProviderConfig struct {
	Type    string
	Model   string
	BaseURL string
}

// NewProvider creates a provider from cfg. The openai type also serves any
// OpenAI-compatible endpoint when BaseURL is set (OPENAI_BASE_URL is used
// otherwise).
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Type {
	case TypeOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = os.Getenv("OPENAI_BASE_URL")
		}
		return NewOpenAIProvider(apiKey, cfg.Model, baseURL), nil

	case TypeAnthropic:
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		return NewAnthropicProvider(apiKey, cfg.Model, cfg.BaseURL), nil

	case TypeOllama:
		host := cfg.BaseURL
		if host == "" {
			host = os.Getenv("OLLAMA_HOST")
		}
		if host == "" {
			host = "http://localhost:11434"
		}
		return NewOllamaProvider(host, cfg.Model), nil

	default:
		return nil, fmt.Errorf("unsupported provider type: %s", cfg.Type)
	}
}
