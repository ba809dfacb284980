package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/moyashi-books/moyashi/internal/providers"
	"github.com/moyashi-books/moyashi/internal/upstream"
)

// Ollama is a provider for a local Ollama server
type Ollama struct {
	client  *upstream.Client
	baseURL string
}

// New returns a new Ollama provider talking to baseURL
func New(client *upstream.Client, baseURL string) *Ollama {
	return &Ollama{client: client, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Complete sends the prompt to Ollama's generate endpoint
func (o *Ollama) Complete(ctx context.Context, config providers.Config) (string, error) {
	url := o.baseURL + "/api/generate"

	requestBody, err := json.Marshal(map[string]interface{}{
		"model":  config.Model,
		"prompt": config.Prompt,
		"stream": false,
		"options": map[string]interface{}{
			"temperature": config.Temperature,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}

	var response struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	return response.Response, nil
}
