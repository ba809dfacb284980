package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/moyashi-books/moyashi/internal/config"
	"github.com/moyashi-books/moyashi/internal/models"
	"github.com/moyashi-books/moyashi/internal/parser"
	"github.com/moyashi-books/moyashi/internal/photo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

type lookupOptions struct {
	photoURL      string
	ocrText       string
	query         string
	reference     string
	parser        string
	allCategories bool
	reverseImage  bool
	foldCase      bool
	rakutenURL    string
	amazonURL     string
	jsonOutput    bool
	showState     bool
}

type lookupOutput struct {
	Records  []models.BookRecord `json:"records" yaml:"records"`
	NoResult bool                `json:"no_result,omitempty" yaml:"no_result,omitempty"`
	State    *photo.State        `json:"state,omitempty" yaml:"state,omitempty"`
}

func newLookupCmd() *cobra.Command {
	var opts lookupOptions

	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Identify the comic in one photo",
		Long: `Runs the lookup pipeline once and prints the ranked candidates.

The pipeline starts from the most processed input given: --query skips OCR
and parsing, --text skips OCR, otherwise the photo is sent to OCR.
Requires MOYASHI_VISION_API_KEY when OCR runs.`,
		Example: `  # Look up a photo
  moyashi lookup --photo https://example.com/cover.jpg

  # Use reverse image search for the reference title, output JSON
  moyashi lookup --photo https://example.com/cover.jpg --reverse-image --json

  # Skip OCR
  moyashi lookup --text "ONE PIECE
vol. 42"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.photoURL == "" && opts.ocrText == "" && opts.query == "" {
				return fmt.Errorf("one of --photo, --text or --query is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			slog.Debug("Loaded configuration", "config", cfg)

			if !cmd.Flags().Changed("parser") {
				opts.parser = cfg.Parser
			}
			prs, closeParser, err := parser.Open(cmd.Context(), opts.parser, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeParser() }()

			return runLookup(cmd.Context(), cmd.OutOrStdout(), cfg, opts, photo.WithParser(prs))
		},
	}

	cmd.Flags().StringVar(&opts.photoURL, "photo", "", "URL of the photo")
	cmd.Flags().StringVar(&opts.ocrText, "text", "", "OCR text to use instead of running OCR")
	cmd.Flags().StringVar(&opts.query, "query", "", "Catalog query to use instead of parsing text")
	cmd.Flags().StringVar(&opts.reference, "reference", "", "Reference title for ranking (defaults to the reverse image title, then the query)")
	cmd.Flags().StringVar(&opts.parser, "parser", "title", "Text parser (base, title, gemini, ollama or openai)")
	cmd.Flags().BoolVar(&opts.allCategories, "all-categories", false, "Keep catalog results that are not comics")
	cmd.Flags().BoolVar(&opts.reverseImage, "reverse-image", false, "Ask reverse image search for a reference title")
	cmd.Flags().BoolVar(&opts.foldCase, "fold-case", false, "Ignore case when ranking candidates")
	cmd.Flags().StringVar(&opts.rakutenURL, "rakuten-url", "", "Rakuten link to attach to every record")
	cmd.Flags().StringVar(&opts.amazonURL, "amazon-url", "", "Amazon link to attach to every record")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print JSON instead of YAML")
	cmd.Flags().BoolVar(&opts.showState, "state", false, "Include the pipeline state in the output")

	return cmd
}

func runLookup(ctx context.Context, w io.Writer, cfg *config.Config, opts lookupOptions, pipelineOpts ...photo.Option) error {
	pipeline, err := photo.New(cfg, pipelineOpts...)
	if err != nil {
		return err
	}

	retail := map[string]string{}
	if opts.rakutenURL != "" {
		retail[models.URLRakuten] = opts.rakutenURL
	}
	if opts.amazonURL != "" {
		retail[models.URLAmazon] = opts.amazonURL
	}

	result, err := pipeline.Run(ctx, photo.Request{
		PhotoURL:       opts.photoURL,
		OCRText:        opts.ocrText,
		NormalizedText: opts.query,
		ReferenceTitle: opts.reference,
		AllCategories:  opts.allCategories,
		ReverseImage:   opts.reverseImage,
		FoldCase:       opts.foldCase,
		RetailURLs:     retail,
	})

	out := lookupOutput{Records: []models.BookRecord{}}
	switch {
	case errors.Is(err, photo.ErrNoResult):
		out.NoResult = true
	case err != nil:
		slog.Debug("Lookup failed", "state", pipeline.State())
		return err
	default:
		out.Records = result.Records
	}
	if opts.showState {
		state := pipeline.State()
		out.State = &state
	}

	if opts.jsonOutput {
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(out)
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(out); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return encoder.Close()
}
