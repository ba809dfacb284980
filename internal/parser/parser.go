// Package parser turns raw OCR text into a short catalog query.
//
// Parsers never modify their input and return "" without an error when the
// text holds nothing usable. Only parsers that call out to a remote service
// return errors.
package parser

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/moyashi-books/moyashi/internal/config"
	"github.com/moyashi-books/moyashi/internal/ollama"
	"github.com/moyashi-books/moyashi/internal/openai"
	"github.com/moyashi-books/moyashi/internal/upstream"
	"golang.org/x/text/unicode/norm"
)

// Parser converts raw OCR text into a query string.
type Parser interface {
	Parse(ctx context.Context, text string) (string, error)
}

// ParserFunc adapts a plain function to Parser.
type ParserFunc func(ctx context.Context, text string) (string, error)

func (f ParserFunc) Parse(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

// BaseParser does minimal cleanup: width folding, whitespace collapsing and
// joining the remaining lines with single spaces.
type BaseParser struct{}

func (BaseParser) Parse(_ context.Context, text string) (string, error) {
	return strings.Join(cleanLines(text), " "), nil
}

// ByName returns the built-in parser registered under name.
func ByName(name string) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "base":
		return BaseParser{}, nil
	case "title":
		return NewTitleParser(), nil
	default:
		return nil, fmt.Errorf("unknown parser %q (available: base, title, gemini, ollama, openai)", name)
	}
}

// Open returns the parser registered under name. Besides the built-in
// parsers it knows the model-backed "gemini", "ollama" and "openai", which
// are configured from cfg. Call the returned func when done with the
// parser.
func Open(ctx context.Context, name string, cfg *config.Config) (Parser, func() error, error) {
	noop := func() error { return nil }

	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gemini":
		g, err := NewGeminiParser(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	case "ollama":
		return &LLMParser{Provider: ollama.New(newLLMClient(cfg), cfg.OllamaURL), Model: cfg.OllamaModel}, noop, nil
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, nil, openai.ErrMissingAPIKey
		}
		return &LLMParser{Provider: openai.New(newLLMClient(cfg), cfg.OpenAIURL, cfg.OpenAIAPIKey), Model: cfg.OpenAIModel}, noop, nil
	}

	p, err := ByName(name)
	if err != nil {
		return nil, nil, err
	}
	return p, noop, nil
}

// newLLMClient is not rate limited; the limit only applies to the lookup
// services.
func newLLMClient(cfg *config.Config) *upstream.Client {
	return upstream.New(upstream.Options{
		HTTPClient: &http.Client{},
		MaxRetries: cfg.MaxRetries,
	})
}

// cleanLines folds full-width characters to their plain forms, collapses
// runs of whitespace and drops blank lines.
func cleanLines(text string) []string {
	text = norm.NFKC.String(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
