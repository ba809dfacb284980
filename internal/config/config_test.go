package config

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MOYASHI_VISION_API_KEY", "")
	t.Setenv("MOYASHI_STAGE_TIMEOUT", "")
	t.Setenv("MOYASHI_MAX_RETRIES", "")
	t.Setenv("MOYASHI_CATALOG_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.CatalogURL != DefaultCatalogURL {
		t.Errorf("CatalogURL = %q, want %q", cfg.CatalogURL, DefaultCatalogURL)
	}
	if cfg.StageTimeout != 30*time.Second {
		t.Errorf("StageTimeout = %v, want 30s", cfg.StageTimeout)
	}
	if cfg.MaxRetries != 0 {
		t.Errorf("MaxRetries = %d, want 0", cfg.MaxRetries)
	}
	if cfg.ReverseImageMarker != DefaultReverseImageMarker {
		t.Errorf("ReverseImageMarker = %q", cfg.ReverseImageMarker)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MOYASHI_VISION_API_KEY", "secret-key")
	t.Setenv("MOYASHI_STAGE_TIMEOUT", "5s")
	t.Setenv("MOYASHI_MAX_RETRIES", "2")
	t.Setenv("MOYASHI_REQUESTS_PER_SECOND", "0.5")
	t.Setenv("MOYASHI_CATALOG_URL", "http://catalog.test/volumes")
	t.Setenv("OLLAMA_MODEL", "llama3")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.VisionAPIKey != "secret-key" {
		t.Errorf("VisionAPIKey not loaded")
	}
	if cfg.StageTimeout != 5*time.Second {
		t.Errorf("StageTimeout = %v, want 5s", cfg.StageTimeout)
	}
	if cfg.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", cfg.MaxRetries)
	}
	if cfg.RequestsPerSecond != 0.5 {
		t.Errorf("RequestsPerSecond = %v, want 0.5", cfg.RequestsPerSecond)
	}
	if cfg.CatalogURL != "http://catalog.test/volumes" {
		t.Errorf("CatalogURL = %q", cfg.CatalogURL)
	}
	if cfg.OllamaModel != "llama3" || cfg.OllamaURL != DefaultOllamaURL {
		t.Errorf("Ollama = %q at %q", cfg.OllamaModel, cfg.OllamaURL)
	}
	if cfg.OpenAIAPIKey != "sk-test" || cfg.OpenAIModel != DefaultOpenAIModel {
		t.Errorf("OpenAI key or model not loaded")
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "timeout", key: "MOYASHI_STAGE_TIMEOUT", value: "soon"},
		{name: "retries", key: "MOYASHI_MAX_RETRIES", value: "-1"},
		{name: "rate", key: "MOYASHI_REQUESTS_PER_SECOND", value: "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLogValueRedactsCredentials(t *testing.T) {
	cfg := Default()
	cfg.VisionAPIKey = "super-secret"
	cfg.GeminiAPIKey = "also-secret"
	cfg.OpenAIAPIKey = "openai-secret"

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("config", "config", cfg)

	out := buf.String()
	if strings.Contains(out, "super-secret") || strings.Contains(out, "also-secret") || strings.Contains(out, "openai-secret") {
		t.Errorf("credentials leaked into log output: %s", out)
	}
	if !strings.Contains(out, "vision_api_key_set=true") {
		t.Errorf("expected key presence flag in log output: %s", out)
	}
}
