package photo

import (
	"context"
	"log/slog"
	"maps"

	"github.com/moyashi-books/moyashi/internal/models"
	"github.com/moyashi-books/moyashi/internal/parser"
)

// Request describes one full lookup. The pipeline enters at the latest
// stage whose input is supplied: NormalizedText skips OCR and parsing,
// OCRText skips OCR.
type Request struct {
	PhotoURL       string
	OCRText        string
	NormalizedText string
	ReferenceTitle string
	Parser         parser.Parser

	// AllCategories disables the comics-only filter.
	AllCategories bool
	// ReverseImage also asks the reverse image service for a title; it
	// becomes the default reference.
	ReverseImage bool
	FoldCase     bool

	// RetailURLs are copied into every record unchanged.
	RetailURLs map[string]string
}

// Result is the outcome of Run.
type Result struct {
	Records []models.BookRecord `json:"records" yaml:"records"`
	State   State               `json:"state" yaml:"state"`
}

// Run executes every stage needed by req. On failure the error is returned
// and State keeps whatever was resolved before it.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	slog.Info("Starting lookup", "photo_url", req.PhotoURL, "has_ocr_text", req.OCRText != "", "has_query", req.NormalizedText != "")

	if req.ReverseImage {
		if _, err := p.ResolveTitleFromReverseImage(ctx, req.PhotoURL); err != nil {
			return nil, err
		}
	}

	switch {
	case req.NormalizedText != "":
	case req.OCRText != "":
		if _, err := p.NormalizeText(ctx, req.OCRText, req.Parser); err != nil {
			return nil, err
		}
	default:
		if _, err := p.ExtractText(ctx, req.PhotoURL); err != nil {
			return nil, err
		}
		if _, err := p.NormalizeText(ctx, "", req.Parser); err != nil {
			return nil, err
		}
	}

	if _, err := p.SearchCatalog(ctx, req.NormalizedText, !req.AllCategories); err != nil {
		return nil, err
	}

	records, err := p.Rank(req.ReferenceTitle, req.FoldCase)
	if err != nil {
		return nil, err
	}

	for i := range records {
		maps.Copy(records[i].URLs, req.RetailURLs)
	}

	if len(records) > 0 {
		slog.Info("Lookup complete", "candidates", len(records), "best", records[0].Title, "match_rate", records[0].MatchRate)
	}

	return &Result{Records: records, State: p.State()}, nil
}
