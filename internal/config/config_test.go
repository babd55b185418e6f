package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.LLM.Provider != ProviderOpenAI {
		t.Errorf("expected default provider %q, got %q", ProviderOpenAI, cfg.LLM.Provider)
	}
	if cfg.Server.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Server.Port)
	}
	if cfg.Render.Engine != "builtin" {
		t.Errorf("expected builtin engine, got %q", cfg.Render.Engine)
	}
	if cfg.Service.URL != "" {
		t.Errorf("expected in-process service by default, got %q", cfg.Service.URL)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.diagramdive.yml")

	original := DefaultConfig()
	original.LLM.Provider = ProviderAnthropic
	original.LLM.Model = "claude-sonnet-4-5-20250929"
	original.LLM.Quality = QualityNormal
	original.Server.Port = 9090
	original.Server.RequestTimeout = 45 * time.Second
	original.Render.Engine = "mmdc"
	original.Tracing.SampleRatio = 0.25

	// Save.
	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// Load back.
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	// Verify round-trip.
	if loaded.LLM != original.LLM {
		t.Errorf("llm: got %+v, want %+v", loaded.LLM, original.LLM)
	}
	if loaded.Server != original.Server {
		t.Errorf("server: got %+v, want %+v", loaded.Server, original.Server)
	}
	if loaded.Render != original.Render {
		t.Errorf("render: got %+v, want %+v", loaded.Render, original.Render)
	}
	if loaded.Tracing.SampleRatio != 0.25 {
		t.Errorf("sample_ratio: got %v", loaded.Tracing.SampleRatio)
	}
}

func TestLoadHumanYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yml")
	yml := `
server:
  port: 7000
  request_timeout: 90s
llm:
  provider: ollama
  model: llama3
render:
  timeout: 5s
`
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Port != 7000 || cfg.Server.RequestTimeout != 90*time.Second {
		t.Errorf("server: %+v", cfg.Server)
	}
	if cfg.Render.Timeout != 5*time.Second {
		t.Errorf("render timeout: %v", cfg.Render.Timeout)
	}
	// Untouched keys keep their defaults.
	if cfg.Render.Engine != "builtin" || cfg.Server.SessionTTL != 30*time.Minute {
		t.Errorf("defaults lost: %+v %+v", cfg.Render, cfg.Server)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.LLM.Provider != ProviderOpenAI {
		t.Errorf("expected default provider, got %q", cfg.LLM.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("DIAGRAMDIVE_LLM__PROVIDER", "anthropic")
	t.Setenv("DIAGRAMDIVE_SERVER__PORT", "9999")
	t.Setenv("DIAGRAMDIVE_SERVICE__URL", "http://localhost:8000")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.LLM.Provider != ProviderAnthropic {
		t.Errorf("env override failed: got %q, want %q", loaded.LLM.Provider, ProviderAnthropic)
	}
	if loaded.Server.Port != 9999 {
		t.Errorf("port override failed: got %d", loaded.Server.Port)
	}
	if loaded.Service.URL != "http://localhost:8000" {
		t.Errorf("service url override failed: got %q", loaded.Service.URL)
	}
}

func TestEnvKey(t *testing.T) {
	tests := map[string]string{
		"DIAGRAMDIVE_SERVER__PORT":           "server.port",
		"DIAGRAMDIVE_LLM__BASE_URL":          "llm.base_url",
		"DIAGRAMDIVE_SERVER__CORS_ALLOW_ALL": "server.cors_allow_all",
	}
	for in, want := range tests {
		if got := envKey(in); got != want {
			t.Errorf("envKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"invalid provider", func(c *Config) { c.LLM.Provider = "invalid" }},
		{"empty provider", func(c *Config) { c.LLM.Provider = "" }},
		{"empty model", func(c *Config) { c.LLM.Model = "" }},
		{"invalid quality", func(c *Config) { c.LLM.Quality = "ultra" }},
		{"negative rpm", func(c *Config) { c.LLM.RequestsPerMinute = -1 }},
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"unknown engine", func(c *Config) { c.Render.Engine = "graphviz" }},
		{"negative timeout", func(c *Config) { c.Service.Timeout = -time.Second }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"usage without path", func(c *Config) { c.Usage.Path = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestPresetModel(t *testing.T) {
	if m := PresetModel(ProviderAnthropic, QualityLite); m != "claude-haiku-4-5-20251001" {
		t.Errorf("expected haiku model, got %q", m)
	}
	if m := PresetModel(ProviderOpenAI, QualityNormal); m != "gpt-4o" {
		t.Errorf("expected gpt-4o, got %q", m)
	}

	// Unknown combination falls back.
	if m := PresetModel("unknown", QualityLite); m != "gpt-4o-mini" {
		t.Errorf("expected fallback to gpt-4o-mini, got %q", m)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderAnthropic, "ANTHROPIC_API_KEY"},
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestValidatePort(t *testing.T) {
	for _, ok := range []string{"1", "8000", "65535"} {
		if err := validatePort(ok); err != nil {
			t.Errorf("validatePort(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "abc", "0", "65536"} {
		if err := validatePort(bad); err == nil {
			t.Errorf("validatePort(%q) should fail", bad)
		}
	}
}
