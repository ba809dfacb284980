package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/moyashi-books/moyashi/internal/providers"
)

// LLMParser asks a chat model behind a providers.Provider to pick the title
// out of OCR text.
type LLMParser struct {
	Provider providers.Provider
	Model    string
}

func (p *LLMParser) Parse(ctx context.Context, text string) (string, error) {
	lines := cleanLines(text)
	if len(lines) == 0 {
		return "", nil
	}

	reply, err := p.Provider.Complete(ctx, providers.Config{
		Model:       p.Model,
		Temperature: 0,
		Prompt:      buildTitlePrompt(strings.Join(lines, "\n")),
	})
	if err != nil {
		return "", fmt.Errorf("failed to extract title with %s: %w", p.Model, err)
	}

	return cleanModelTitle(reply), nil
}
