package models

import "time"

// Well-known keys of BookRecord.URLs.
const (
	URLGoogleBooks = "google_books"
	URLRakuten     = "rakuten"
	URLAmazon      = "amazon"
)

// BookRecord is everything known about one candidate title. Unknown values
// are left empty or zero.
type BookRecord struct {
	Title                 string            `json:"title" yaml:"title"`
	TitleFromReverseImage string            `json:"title_from_reverse_image" yaml:"title_from_reverse_image"`
	TitleFromOCR          string            `json:"title_from_ocr" yaml:"title_from_ocr"`
	ISBN13                string            `json:"isbn13" yaml:"isbn13"`
	ISBN10                string            `json:"isbn10" yaml:"isbn10"`
	Volume                int               `json:"volume" yaml:"volume"`
	Categories            []string          `json:"categories" yaml:"categories"`
	URLs                  map[string]string `json:"urls" yaml:"urls"`
	MatchRate             float64           `json:"match_rate" yaml:"match_rate"`
}

// Lookup is one completed pipeline run kept by the server.
type Lookup struct {
	ID             string       `json:"id"`
	PhotoURL       string       `json:"photo_url,omitempty"`
	ReferenceTitle string       `json:"reference_title,omitempty"`
	Query          string       `json:"query,omitempty"`
	Records        []BookRecord `json:"records"`
	NoResult       bool         `json:"no_result,omitempty"`
	Stage          string       `json:"stage"`
	FailedOp       string       `json:"failed_op,omitempty"`
	Error          string       `json:"error,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}
