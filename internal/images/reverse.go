package images

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/moyashi-books/moyashi/internal/upstream"
)

// ErrNoGuess means the results page loaded but carried no best-guess title.
// The page layout is unversioned, so callers should treat this as "no
// result" for the image rather than a broken service.
var ErrNoGuess = errors.New("no best-guess title in reverse image results")

// ReverseSearcher asks a reverse image search page for its best guess of
// what a photo shows.
type ReverseSearcher struct {
	client    *upstream.Client
	baseURL   string
	marker    string
	userAgent string
}

// NewReverseSearcher creates a searcher. marker is the CSS class of the
// element holding the best-guess text.
func NewReverseSearcher(client *upstream.Client, baseURL, marker, userAgent string) *ReverseSearcher {
	return &ReverseSearcher{
		client:    client,
		baseURL:   baseURL,
		marker:    marker,
		userAgent: userAgent,
	}
}

// BestGuess returns the best-guess title for the image at photoURL.
func (s *ReverseSearcher) BestGuess(ctx context.Context, photoURL string) (string, error) {
	searchURL, err := s.searchURL(photoURL)
	if err != nil {
		return "", err
	}

	body, err := s.client.Get(ctx, searchURL, s.userAgent)
	if err != nil {
		return "", fmt.Errorf("failed to query reverse image search: %w", err)
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to parse reverse image results: %w", err)
	}

	title := findMarkerText(doc, s.marker)
	if title == "" {
		slog.Debug("Reverse image marker not found", "marker", s.marker, "length", len(body))
		return "", ErrNoGuess
	}

	slog.Info("Resolved reverse image title", "title", title)
	return title, nil
}

func (s *ReverseSearcher) searchURL(photoURL string) (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid reverse image URL %q: %w", s.baseURL, err)
	}
	q := u.Query()
	q.Set("image_url", photoURL)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// findMarkerText returns the text of the first element carrying class, or
// "" if no such element has any text.
func findMarkerText(n *html.Node, class string) string {
	if n.Type == html.ElementNode && hasClass(n, class) {
		if text := strings.Join(strings.Fields(textContent(n)), " "); text != "" {
			return text
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if text := findMarkerText(c, class); text != "" {
			return text
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
