package evalcmd

import (
	"fmt"
	"os"

	"github.com/moyashi-books/moyashi/internal/config"
	"github.com/moyashi-books/moyashi/internal/parser"
	"github.com/spf13/cobra"
)

// NewRunCmd creates the run command
func NewRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the lookup pipeline over a labelled dataset",
		Long: `Run every sample of a dataset through the lookup pipeline and compare the
best ranked title with the expected one.

Samples are read from a .jsonl or .parquet file with the columns
id, photo_url, ocr_text and expected_title. Samples carrying ocr_text skip
OCR. Results are written as YAML to the output directory.`,
		Example: `  # Evaluate 20 samples with the title parser
  moyashi eval run --dataset ./samples.jsonl --sample 20

  # Evaluate everything with Gemini, four lookups at a time
  moyashi eval run --dataset ./samples.parquet --sample -1 --parser gemini --concurrency 4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(opts.DatasetPath); err != nil {
				return fmt.Errorf("dataset file not found: %s", opts.DatasetPath)
			}
			if opts.HitThreshold < 0 || opts.HitThreshold > 1 {
				return fmt.Errorf("--hit-threshold must be between 0 and 1")
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("parser") {
				opts.Parser = cfg.Parser
			}

			return executeRun(cmd.Context(), cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.DatasetPath, "dataset", "", "Path to .jsonl or .parquet dataset (required)")
	cmd.Flags().StringVar(&opts.OutputDir, "output", "evals", "Directory for the results YAML")
	cmd.Flags().IntVar(&opts.SampleSize, "sample", 10, "Number of samples to evaluate (-1 for all)")
	cmd.Flags().IntVar(&opts.Concurrency, "concurrency", 1, "Number of lookups to run at once")
	cmd.Flags().StringVar(&opts.Parser, "parser", "title", "Text parser (base, title, gemini, ollama or openai)")
	cmd.Flags().BoolVar(&opts.ComicsOnly, "comics-only", true, "Keep only catalog results categorised as comics")
	cmd.Flags().BoolVar(&opts.ReverseImage, "reverse-image", false, "Use reverse image search for the reference title")
	cmd.Flags().BoolVar(&opts.FoldCase, "fold-case", false, "Ignore case when ranking candidates")
	cmd.Flags().Float64Var(&opts.HitThreshold, "hit-threshold", 0.9, "Title score at or above which a sample counts as a hit")

	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}

// NewReportCmd creates the report command
func NewReportCmd() *cobra.Command {
	var resultsPath string
	var format string
	var onlyMisses bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a report from an evaluation results file",
		Example: `  # Text report
  moyashi eval report --results evals/title-2024-01-01_00-00-00.yaml

  # Misses only, as CSV
  moyashi eval report --results evals/title-2024-01-01_00-00-00.yaml --format csv --misses`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return executeReport(cmd.OutOrStdout(), resultsPath, format, onlyMisses)
		},
	}

	cmd.Flags().StringVar(&resultsPath, "results", "", "Path to a results YAML file (required)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json, csv)")
	cmd.Flags().BoolVar(&onlyMisses, "misses", false, "Only show samples that were not hits")

	_ = cmd.MarkFlagRequired("results")
	return cmd
}

// NewInspectCmd creates the inspect command
func NewInspectCmd() *cobra.Command {
	var datasetPath string
	var limit int
	var interactive bool
	var parserName string

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Inspect dataset samples and preview parsed queries",
		Long: `Inspect samples from a .jsonl or .parquet dataset.

For samples carrying OCR text, the query the selected parser would send to
the catalog is shown, which helps when tuning the title parser.`,
		Example: `  # Inspect first 5 samples interactively
  moyashi eval inspect --dataset ./samples.jsonl --limit 5 --interactive

  # Preview Gemini queries
  moyashi eval inspect --dataset ./samples.jsonl --parser gemini`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			prs, closeParser, err := parser.Open(cmd.Context(), parserName, cfg)
			if err != nil {
				return err
			}
			defer func() { _ = closeParser() }()

			return executeInspect(cmd.Context(), cmd.OutOrStdout(), datasetPath, limit, interactive, prs)
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to .jsonl or .parquet dataset (required)")
	cmd.Flags().IntVar(&limit, "limit", 10, "Number of samples to inspect (0 for all)")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "Pause after each sample (press Enter to continue)")
	cmd.Flags().StringVar(&parserName, "parser", "title", "Parser used for the query preview (base, title, gemini, ollama or openai)")

	_ = cmd.MarkFlagRequired("dataset")
	return cmd
}
