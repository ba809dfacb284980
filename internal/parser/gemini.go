package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiParser asks a Gemini model to pick the title out of OCR text.
type GeminiParser struct {
	client *genai.Client
	model  string
}

// NewGeminiParser creates a parser backed by the Gemini API. Call Close
// when done.
func NewGeminiParser(ctx context.Context, apiKey, model string) (*GeminiParser, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}

	return &GeminiParser{client: client, model: model}, nil
}

// Close releases the underlying client.
func (g *GeminiParser) Close() error {
	return g.client.Close()
}

func (g *GeminiParser) Parse(ctx context.Context, text string) (string, error) {
	lines := cleanLines(text)
	if len(lines) == 0 {
		return "", nil
	}

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx, genai.Text(buildTitlePrompt(strings.Join(lines, "\n"))))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates returned from Gemini")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("empty content returned from Gemini")
	}

	if txt, ok := candidate.Content.Parts[0].(genai.Text); ok {
		return cleanModelTitle(string(txt)), nil
	}

	return "", fmt.Errorf("unexpected response format from Gemini")
}

func buildTitlePrompt(ocrText string) string {
	return `The following text was read by OCR from the cover or spine of a comic book.
It may contain the series title, a volume number, the author, the publisher,
furigana readings, page numbers and copyright notices.

Reply with the series title only, exactly as printed, without the volume
number, quotes or any explanation. If no title is present, reply NONE.

OCR text:
` + ocrText
}

// cleanModelTitle strips code fences, quotes and trailing commentary from a
// model reply.
func cleanModelTitle(reply string) string {
	reply = strings.TrimSpace(reply)
	reply = strings.TrimPrefix(reply, "```text")
	reply = strings.TrimPrefix(reply, "```")
	reply = strings.TrimSuffix(reply, "```")

	lines := cleanLines(reply)
	if len(lines) == 0 {
		return ""
	}

	title := strings.Trim(lines[0], "\"'「」『』")
	title = strings.TrimSpace(title)
	if strings.EqualFold(title, "NONE") {
		return ""
	}
	return title
}
