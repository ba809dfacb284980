package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/moyashi-books/moyashi/internal/upstream"
)

// ErrNoText means the OCR request succeeded but no text was detected.
var ErrNoText = errors.New("no text detected in image")

// ErrMissingAPIKey is returned when the service has no credential.
var ErrMissingAPIKey = errors.New("vision API key not set")

// Service extracts text from images with the Cloud Vision annotate API.
type Service struct {
	client   *upstream.Client
	endpoint string
	apiKey   string
}

// NewService creates a new OCR service. The API key is sent as a query
// parameter and never logged.
func NewService(client *upstream.Client, endpoint, apiKey string) *Service {
	return &Service{
		client:   client,
		endpoint: endpoint,
		apiKey:   apiKey,
	}
}

type annotateRequest struct {
	Requests []imageRequest `json:"requests"`
}

type imageRequest struct {
	Image struct {
		Source struct {
			ImageURI string `json:"imageUri"`
		} `json:"source"`
	} `json:"image"`
	Features []feature `json:"features"`
}

type feature struct {
	Type string `json:"type"`
}

type annotateResponse struct {
	Responses []struct {
		FullTextAnnotation *struct {
			Text string `json:"text"`
		} `json:"fullTextAnnotation"`
		Error *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	} `json:"responses"`
}

// ExtractTextFromImage runs TEXT_DETECTION on the image at imageURL and
// returns the full detected text.
func (s *Service) ExtractTextFromImage(ctx context.Context, imageURL string) (string, error) {
	if s.apiKey == "" {
		return "", ErrMissingAPIKey
	}

	var item imageRequest
	item.Image.Source.ImageURI = imageURL
	item.Features = []feature{{Type: "TEXT_DETECTION"}}

	jsonData, err := json.Marshal(annotateRequest{Requests: []imageRequest{item}})
	if err != nil {
		return "", fmt.Errorf("failed to marshal OCR request: %w", err)
	}

	endpoint, err := s.annotateURL()
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create OCR request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call Vision API for OCR: %w", redact(err, s.apiKey))
	}

	var visionResp annotateResponse
	if err := json.Unmarshal(body, &visionResp); err != nil {
		return "", fmt.Errorf("failed to decode Vision OCR response: %w", err)
	}

	if len(visionResp.Responses) == 0 {
		return "", fmt.Errorf("vision OCR response has no responses")
	}

	first := visionResp.Responses[0]
	if first.Error != nil {
		return "", fmt.Errorf("vision OCR failed for image: code %d: %s", first.Error.Code, first.Error.Message)
	}
	if first.FullTextAnnotation == nil || first.FullTextAnnotation.Text == "" {
		return "", ErrNoText
	}

	text := first.FullTextAnnotation.Text
	slog.Info("Extracted OCR text", "provider", "vision", "length", len(text))
	return text, nil
}

func (s *Service) annotateURL() (string, error) {
	u, err := url.Parse(s.endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid Vision API URL: %w", err)
	}
	q := u.Query()
	q.Set("key", s.apiKey)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// redact strips the credential from transport errors, which quote the
// request URL.
func redact(err error, secret string) error {
	var urlErr *url.Error
	if secret != "" && errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, url.QueryEscape(secret), "REDACTED")
		urlErr.URL = strings.ReplaceAll(urlErr.URL, secret, "REDACTED")
	}
	return err
}
