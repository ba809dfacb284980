// Package photo identifies a comic title from a photograph.
//
// A Pipeline chains reverse image search, OCR, text normalization and a
// catalog search, then ranks the catalog's titles by similarity to a
// reference title. Each stage can be called on its own; an explicit input
// replaces whatever an earlier stage stored, and an empty input falls back
// to the stored value.
//
// A Pipeline belongs to a single lookup and is not safe for concurrent use.
package photo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/moyashi-books/moyashi/internal/catalog"
	"github.com/moyashi-books/moyashi/internal/config"
	"github.com/moyashi-books/moyashi/internal/images"
	"github.com/moyashi-books/moyashi/internal/models"
	"github.com/moyashi-books/moyashi/internal/ocr"
	"github.com/moyashi-books/moyashi/internal/parser"
	"github.com/moyashi-books/moyashi/internal/similarity"
	"github.com/moyashi-books/moyashi/internal/upstream"
)

// ReverseImageSearcher guesses a title from a photo URL.
type ReverseImageSearcher interface {
	BestGuess(ctx context.Context, photoURL string) (string, error)
}

// TextExtractor runs OCR on a photo URL.
type TextExtractor interface {
	ExtractTextFromImage(ctx context.Context, imageURL string) (string, error)
}

// CatalogSearcher looks up volumes by query text.
type CatalogSearcher interface {
	Search(ctx context.Context, query string) ([]catalog.Volume, error)
}

// Pipeline resolves a photo to ranked candidate titles.
type Pipeline struct {
	reverse      ReverseImageSearcher
	extractor    TextExtractor
	catalog      CatalogSearcher
	parser       parser.Parser
	client       *upstream.Client
	stageTimeout time.Duration

	state state
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithParser sets the default parser used by NormalizeText.
func WithParser(p parser.Parser) Option {
	return func(pl *Pipeline) { pl.parser = p }
}

// WithReverseImageSearcher replaces the reverse image service.
func WithReverseImageSearcher(s ReverseImageSearcher) Option {
	return func(pl *Pipeline) { pl.reverse = s }
}

// WithTextExtractor replaces the OCR service.
func WithTextExtractor(e TextExtractor) Option {
	return func(pl *Pipeline) { pl.extractor = e }
}

// WithCatalogSearcher replaces the catalog service.
func WithCatalogSearcher(c CatalogSearcher) Option {
	return func(pl *Pipeline) { pl.catalog = c }
}

// WithUpstreamClient shares one outbound client, and so one rate limit,
// between pipelines.
func WithUpstreamClient(c *upstream.Client) Option {
	return func(pl *Pipeline) { pl.client = c }
}

// WithStageTimeout bounds every stage call. Zero disables the bound.
func WithStageTimeout(d time.Duration) Option {
	return func(pl *Pipeline) { pl.stageTimeout = d }
}

// New builds a Pipeline from cfg. Services not replaced through options
// talk to the endpoints in cfg.
func New(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	p := &Pipeline{stageTimeout: cfg.StageTimeout}
	for _, opt := range opts {
		opt(p)
	}

	if p.parser == nil {
		prs, err := parser.ByName(cfg.Parser)
		if err != nil {
			return nil, err
		}
		p.parser = prs
	}

	if p.client == nil {
		p.client = NewUpstreamClient(cfg)
	}
	if p.reverse == nil {
		p.reverse = images.NewReverseSearcher(p.client, cfg.ReverseImageURL, cfg.ReverseImageMarker, cfg.UserAgent)
	}
	if p.extractor == nil {
		p.extractor = ocr.NewService(p.client, cfg.VisionURL, cfg.VisionAPIKey)
	}
	if p.catalog == nil {
		p.catalog = catalog.NewClient(p.client, cfg.CatalogURL)
	}

	return p, nil
}

// NewUpstreamClient builds the outbound client described by cfg.
func NewUpstreamClient(cfg *config.Config) *upstream.Client {
	return upstream.New(upstream.Options{
		HTTPClient:        &http.Client{},
		RequestsPerSecond: cfg.RequestsPerSecond,
		MaxRetries:        cfg.MaxRetries,
	})
}

// State returns a snapshot of the pipeline's progress.
func (p *Pipeline) State() State {
	return p.state.snapshot()
}

// ResolveTitleFromReverseImage returns the reverse image search's best
// guess for the photo. An empty photoURL reuses the stored one.
func (p *Pipeline) ResolveTitleFromReverseImage(ctx context.Context, photoURL string) (string, error) {
	photoURL, err := p.usePhotoURL(OpReverseImage, photoURL)
	if err != nil {
		return "", err
	}

	ctx, cancel := p.stageContext(ctx)
	defer cancel()

	title, err := p.reverse.BestGuess(ctx, photoURL)
	if err != nil {
		return "", p.fail(OpReverseImage, ErrUpstream, err)
	}

	p.state.titleFromReverseImage = title
	p.state.failedOp = ""
	return title, nil
}

// ExtractText runs OCR on the photo. An empty photoURL reuses the stored
// one. A photo without text fails with ErrUpstream wrapping ocr.ErrNoText.
func (p *Pipeline) ExtractText(ctx context.Context, photoURL string) (string, error) {
	photoURL, err := p.usePhotoURL(OpExtractText, photoURL)
	if err != nil {
		return "", err
	}

	ctx, cancel := p.stageContext(ctx)
	defer cancel()

	text, err := p.extractor.ExtractTextFromImage(ctx, photoURL)
	if err != nil {
		return "", p.fail(OpExtractText, ErrUpstream, err)
	}

	p.state.setExtractedText(text)
	p.state.failedOp = ""
	return text, nil
}

// NormalizeText turns raw OCR text into a catalog query using prs, or the
// pipeline's parser when prs is nil. An empty rawText reuses the stored
// OCR text. Text with nothing usable in it yields ErrNoResult.
func (p *Pipeline) NormalizeText(ctx context.Context, rawText string, prs parser.Parser) (string, error) {
	if rawText != "" {
		p.state.setExtractedText(rawText)
	} else if p.state.extractedText == "" {
		return "", p.fail(OpNormalize, ErrInvalidInput, errors.New("no text to normalize"))
	}
	if prs == nil {
		prs = p.parser
	}

	ctx, cancel := p.stageContext(ctx)
	defer cancel()

	raw := p.state.extractedText
	normalized, err := prs.Parse(ctx, raw)
	if err != nil {
		return "", p.fail(OpNormalize, ErrUpstream, err)
	}

	if volume, ok := parser.DetectVolume(raw); ok {
		p.state.volume = volume
	}

	p.state.failedOp = ""
	if normalized == "" {
		p.state.setNormalizedText("")
		return "", &StageError{Op: OpNormalize, Kind: ErrNoResult, Err: errors.New("no usable text after parsing")}
	}

	p.state.setNormalizedText(normalized)
	slog.Debug("Normalized OCR text", "query", normalized, "volume", p.state.volume)
	return normalized, nil
}

// SearchCatalog queries the catalog and returns candidate titles in catalog
// order. With comicsOnly, only volumes whose first category mentions
// comics are kept. An empty normalizedText reuses the stored query.
// Finding nothing, including everything being filtered out, is
// ErrNoResult.
func (p *Pipeline) SearchCatalog(ctx context.Context, normalizedText string, comicsOnly bool) ([]string, error) {
	if normalizedText != "" {
		p.state.setNormalizedText(normalizedText)
	} else if p.state.normalizedText == "" {
		return nil, p.fail(OpSearch, ErrInvalidInput, errors.New("no query text"))
	}

	ctx, cancel := p.stageContext(ctx)
	defer cancel()

	query := p.state.normalizedText
	volumes, err := p.catalog.Search(ctx, query)
	if err != nil {
		return nil, p.fail(OpSearch, ErrUpstream, err)
	}

	candidates := make([]catalog.Volume, 0, len(volumes))
	for _, v := range volumes {
		if comicsOnly && !v.IsComic() {
			continue
		}
		candidates = append(candidates, v)
	}

	p.state.candidates = candidates
	p.state.searched = true
	p.state.failedOp = ""

	slog.Info("Catalog candidates", "query", query, "returned", len(volumes), "kept", len(candidates), "comics_only", comicsOnly)

	if len(candidates) == 0 {
		if len(volumes) == 0 {
			return []string{}, &StageError{Op: OpSearch, Kind: ErrNoResult, Err: fmt.Errorf("no catalog items for %q", query)}
		}
		return []string{}, &StageError{Op: OpSearch, Kind: ErrNoResult, Err: fmt.Errorf("none of %d catalog items are comics", len(volumes))}
	}

	titles := make([]string, 0, len(candidates))
	for _, v := range candidates {
		titles = append(titles, v.Title)
	}
	return titles, nil
}

// Rank scores the stored candidates against reference and returns one
// BookRecord per candidate, best match first; ties keep catalog order. An
// empty reference falls back to the reverse image title, then the
// normalized query. With foldCase both sides are lowercased before scoring.
func (p *Pipeline) Rank(reference string, foldCase bool) ([]models.BookRecord, error) {
	if p.state.failedOp == OpSearch {
		return nil, &StageError{Op: OpRank, Kind: ErrInvalidInput, Err: errors.New("last catalog search failed")}
	}
	if !p.state.searched {
		return nil, p.fail(OpRank, ErrInvalidInput, errors.New("catalog has not been searched"))
	}

	if reference == "" {
		reference = p.state.titleFromReverseImage
	}
	if reference == "" {
		reference = p.state.normalizedText
	}
	if reference == "" {
		return nil, p.fail(OpRank, ErrInvalidInput, errors.New("no reference title"))
	}

	candidates := p.state.candidates
	if len(candidates) == 0 {
		return []models.BookRecord{}, &StageError{Op: OpRank, Kind: ErrNoResult}
	}

	titles := make([]string, len(candidates))
	for i, v := range candidates {
		titles[i] = v.Title
		if foldCase {
			titles[i] = strings.ToLower(titles[i])
		}
	}
	if foldCase {
		reference = strings.ToLower(reference)
	}
	scores := similarity.Score(reference, titles)

	records := make([]models.BookRecord, len(candidates))
	for i, v := range candidates {
		records[i] = p.newRecord(v, scores[i])
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].MatchRate > records[j].MatchRate
	})

	return records, nil
}

func (p *Pipeline) newRecord(v catalog.Volume, score float64) models.BookRecord {
	record := models.BookRecord{
		Title:                 v.Title,
		TitleFromReverseImage: p.state.titleFromReverseImage,
		TitleFromOCR:          p.state.normalizedText,
		ISBN13:                v.ISBN13,
		ISBN10:                v.ISBN10,
		Volume:                p.state.volume,
		Categories:            append([]string{}, v.Categories...),
		URLs:                  map[string]string{},
		MatchRate:             score,
	}
	if v.InfoLink != "" {
		record.URLs[models.URLGoogleBooks] = v.InfoLink
	}
	return record
}

func (p *Pipeline) usePhotoURL(op Op, photoURL string) (string, error) {
	if photoURL != "" {
		p.state.setPhotoURL(photoURL)
	} else if p.state.photoURL == "" {
		return "", p.fail(op, ErrInvalidInput, errors.New("no photo URL"))
	}
	return p.state.photoURL, nil
}

func (p *Pipeline) fail(op Op, kind, err error) error {
	p.state.discardOutput(op)
	p.state.failedOp = op
	slog.Warn("Pipeline stage failed", "op", string(op), "kind", kind, "err", err)
	return &StageError{Op: op, Kind: kind, Err: err}
}

func (p *Pipeline) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.stageTimeout > 0 {
		return context.WithTimeout(ctx, p.stageTimeout)
	}
	return context.WithCancel(ctx)
}
