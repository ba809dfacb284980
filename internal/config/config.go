package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultVisionURL          = "https://vision.googleapis.com/v1/images:annotate"
	DefaultReverseImageURL    = "https://images.google.com/searchbyimage?hl=ja-JP"
	DefaultReverseImageMarker = "fKDtNb"
	DefaultCatalogURL         = "https://www.googleapis.com/books/v1/volumes"

	// DefaultUserAgent is sent to the reverse image service only; it rejects
	// clients that do not look like a browser.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:64.0) Gecko/20100101 Firefox/64.0"

	DefaultGeminiModel = "gemini-1.5-flash"
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultOllamaModel = "mistral-small3.2:24b"
	DefaultOpenAIURL   = "https://api.openai.com/v1/chat/completions"
	DefaultOpenAIModel = "gpt-4o"
)

// Config holds everything needed to build a photo pipeline.
type Config struct {
	VisionAPIKey string

	VisionURL          string
	ReverseImageURL    string
	ReverseImageMarker string
	CatalogURL         string
	UserAgent          string

	StageTimeout      time.Duration
	RequestsPerSecond float64
	MaxRetries        int

	Parser string

	GeminiAPIKey string
	GeminiModel  string

	OllamaURL   string
	OllamaModel string

	OpenAIAPIKey string
	OpenAIURL    string
	OpenAIModel  string
}

// Default returns a Config pointing at the public Google endpoints.
func Default() *Config {
	return &Config{
		VisionURL:          DefaultVisionURL,
		ReverseImageURL:    DefaultReverseImageURL,
		ReverseImageMarker: DefaultReverseImageMarker,
		CatalogURL:         DefaultCatalogURL,
		UserAgent:          DefaultUserAgent,
		StageTimeout:       30 * time.Second,
		RequestsPerSecond:  2,
		Parser:             "title",
		GeminiModel:        DefaultGeminiModel,
		OllamaURL:          DefaultOllamaURL,
		OllamaModel:        DefaultOllamaModel,
		OpenAIURL:          DefaultOpenAIURL,
		OpenAIModel:        DefaultOpenAIModel,
	}
}

// Load reads the configuration from the environment on top of Default.
// A missing API key is not an error here; stages that need it fail when
// they are used.
func Load() (*Config, error) {
	cfg := Default()

	cfg.VisionAPIKey = os.Getenv("MOYASHI_VISION_API_KEY")
	cfg.VisionURL = getEnv("MOYASHI_VISION_URL", cfg.VisionURL)
	cfg.ReverseImageURL = getEnv("MOYASHI_REVERSE_IMAGE_URL", cfg.ReverseImageURL)
	cfg.ReverseImageMarker = getEnv("MOYASHI_REVERSE_IMAGE_MARKER", cfg.ReverseImageMarker)
	cfg.CatalogURL = getEnv("MOYASHI_CATALOG_URL", cfg.CatalogURL)
	cfg.UserAgent = getEnv("MOYASHI_USER_AGENT", cfg.UserAgent)
	cfg.Parser = getEnv("MOYASHI_PARSER", cfg.Parser)
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.GeminiModel = getEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.OllamaURL = getEnv("OLLAMA_URL", cfg.OllamaURL)
	cfg.OllamaModel = getEnv("OLLAMA_MODEL", cfg.OllamaModel)
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.OpenAIURL = getEnv("OPENAI_URL", cfg.OpenAIURL)
	cfg.OpenAIModel = getEnv("OPENAI_MODEL", cfg.OpenAIModel)

	if v := os.Getenv("MOYASHI_STAGE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MOYASHI_STAGE_TIMEOUT %q: %w", v, err)
		}
		cfg.StageTimeout = d
	}

	if v := os.Getenv("MOYASHI_REQUESTS_PER_SECOND"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MOYASHI_REQUESTS_PER_SECOND %q: %w", v, err)
		}
		cfg.RequestsPerSecond = rps
	}

	if v := os.Getenv("MOYASHI_MAX_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MOYASHI_MAX_RETRIES %q: %w", v, err)
		}
		if n < 0 {
			return nil, fmt.Errorf("MOYASHI_MAX_RETRIES must not be negative, got %d", n)
		}
		cfg.MaxRetries = n
	}

	return cfg, nil
}

// LogValue keeps credentials out of logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("vision_url", c.VisionURL),
		slog.String("reverse_image_url", c.ReverseImageURL),
		slog.String("catalog_url", c.CatalogURL),
		slog.Duration("stage_timeout", c.StageTimeout),
		slog.Float64("requests_per_second", c.RequestsPerSecond),
		slog.Int("max_retries", c.MaxRetries),
		slog.String("parser", c.Parser),
		slog.Bool("vision_api_key_set", c.VisionAPIKey != ""),
		slog.Bool("gemini_api_key_set", c.GeminiAPIKey != ""),
		slog.Bool("openai_api_key_set", c.OpenAIAPIKey != ""),
	)
}

func getEnv(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}
