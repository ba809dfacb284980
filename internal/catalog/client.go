package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/moyashi-books/moyashi/internal/upstream"
)

// ErrMalformedResponse means the catalog answered without an item list.
var ErrMalformedResponse = errors.New("catalog response has no item list")

// Client searches a Google Books compatible volume catalog.
type Client struct {
	client     *upstream.Client
	BaseURL    string
	MaxResults int
}

// Volume is one catalog hit.
type Volume struct {
	Title      string   `json:"title" yaml:"title"`
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
	ISBN13     string   `json:"isbn13,omitempty" yaml:"isbn13,omitempty"`
	ISBN10     string   `json:"isbn10,omitempty" yaml:"isbn10,omitempty"`
	InfoLink   string   `json:"info_link,omitempty" yaml:"info_link,omitempty"`
}

// IsComic reports whether the volume's primary category mentions comics.
// Volumes without categories are not comics.
func (v Volume) IsComic() bool {
	if len(v.Categories) == 0 {
		return false
	}
	return strings.Contains(strings.ToLower(v.Categories[0]), "comic")
}

// NewClient creates a new catalog client
func NewClient(client *upstream.Client, baseURL string) *Client {
	return &Client{
		client:  client,
		BaseURL: baseURL,
	}
}

type volumesResponse struct {
	TotalItems *int `json:"totalItems"`
	Items      *[]struct {
		VolumeInfo *struct {
			Title               string   `json:"title"`
			Categories          []string `json:"categories"`
			InfoLink            string   `json:"infoLink"`
			IndustryIdentifiers []struct {
				Type       string `json:"type"`
				Identifier string `json:"identifier"`
			} `json:"industryIdentifiers"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// Search returns the volumes matching query in catalog order. An empty
// slice means the catalog legitimately found nothing.
func (c *Client) Search(ctx context.Context, query string) ([]Volume, error) {
	searchURL, err := c.searchURL(query)
	if err != nil {
		return nil, err
	}

	body, err := c.client.Get(ctx, searchURL, "")
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}

	var resp volumesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode catalog response: %w", err)
	}

	if resp.Items == nil {
		// The Books API omits "items" entirely when nothing matched.
		if resp.TotalItems != nil && *resp.TotalItems == 0 {
			slog.Info("Catalog search returned no items", "query", query)
			return []Volume{}, nil
		}
		return nil, ErrMalformedResponse
	}

	volumes := make([]Volume, 0, len(*resp.Items))
	for i, item := range *resp.Items {
		if item.VolumeInfo == nil {
			return nil, fmt.Errorf("%w: item %d has no volumeInfo", ErrMalformedResponse, i)
		}
		v := Volume{
			Title:      item.VolumeInfo.Title,
			Categories: item.VolumeInfo.Categories,
			InfoLink:   item.VolumeInfo.InfoLink,
		}
		for _, id := range item.VolumeInfo.IndustryIdentifiers {
			switch id.Type {
			case "ISBN_13":
				v.ISBN13 = id.Identifier
			case "ISBN_10":
				v.ISBN10 = id.Identifier
			}
		}
		volumes = append(volumes, v)
	}

	slog.Info("Catalog search complete", "query", query, "items", len(volumes))
	return volumes, nil
}

func (c *Client) searchURL(query string) (string, error) {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", fmt.Errorf("invalid catalog URL %q: %w", c.BaseURL, err)
	}
	q := u.Query()
	q.Set("q", query)
	if c.MaxResults > 0 {
		q.Set("maxResults", strconv.Itoa(c.MaxResults))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
