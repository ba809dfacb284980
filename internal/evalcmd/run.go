package evalcmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/moyashi-books/moyashi/internal/config"
	"github.com/moyashi-books/moyashi/internal/eval/dataset"
	"github.com/moyashi-books/moyashi/internal/eval/results"
	"github.com/moyashi-books/moyashi/internal/parser"
	"github.com/moyashi-books/moyashi/internal/photo"
	"github.com/moyashi-books/moyashi/internal/similarity"
	"golang.org/x/text/unicode/norm"
)

type runOptions struct {
	DatasetPath  string
	OutputDir    string
	SampleSize   int
	Concurrency  int
	Parser       string
	ComicsOnly   bool
	ReverseImage bool
	FoldCase     bool
	HitThreshold float64
}

// pipelineFactory builds one pipeline per sample.
type pipelineFactory func() (*photo.Pipeline, error)

func executeRun(ctx context.Context, cfg *config.Config, opts runOptions) error {
	slog.Info("Starting evaluation run", "dataset", opts.DatasetPath, "parser", opts.Parser, "concurrency", opts.Concurrency)

	loader := dataset.NewLoader(opts.DatasetPath)
	samples, err := loader.LoadSample(opts.SampleSize)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	slog.Info("Dataset loaded", "samples", len(samples))

	prs, closeParser, err := parser.Open(ctx, opts.Parser, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeParser(); err != nil {
			slog.Warn("Failed to close parser", "err", err)
		}
	}()

	// One client so the rate limit covers the whole run.
	client := photo.NewUpstreamClient(cfg)
	newPipeline := func() (*photo.Pipeline, error) {
		return photo.New(cfg, photo.WithUpstreamClient(client), photo.WithParser(prs))
	}

	evalResults := evaluate(ctx, samples, newPipeline, opts)

	spec := &results.EvalSpec{
		Config: results.EvalConfig{
			Parser:       opts.Parser,
			ComicsOnly:   opts.ComicsOnly,
			ReverseImage: opts.ReverseImage,
			FoldCase:     opts.FoldCase,
			DatasetPath:  opts.DatasetPath,
			SampleSize:   opts.SampleSize,
			Concurrency:  opts.Concurrency,
			HitThreshold: opts.HitThreshold,
			Timestamp:    time.Now().Format("2006-01-02_15-04-05"),
		},
		Summary: results.Summarize(evalResults),
		Results: evalResults,
	}

	path, err := results.SaveToYAML(opts.OutputDir, spec)
	if err != nil {
		return fmt.Errorf("failed to save results: %w", err)
	}

	printSummary(spec.Summary)

	fmt.Printf("\nResults saved to: %s\n", path)
	fmt.Printf("\nGenerate detailed report with:\n")
	fmt.Printf("  moyashi eval report --results %s\n", path)

	return nil
}

// evaluate runs every sample through its own pipeline, at most
// opts.Concurrency at a time. Results keep dataset order.
func evaluate(ctx context.Context, samples []dataset.Sample, newPipeline pipelineFactory, opts runOptions) []results.EvalResult {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	evalResults := make([]results.EvalResult, len(samples))

	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

	for i, sample := range samples {
		wg.Add(1)
		go func(idx int, sample dataset.Sample) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			slog.Info("Processing sample", "id", sample.Key(), "progress", fmt.Sprintf("%d/%d", idx+1, len(samples)))

			evalResults[idx] = processSample(ctx, sample, newPipeline, opts)
		}(i, sample)
	}

	wg.Wait()
	return evalResults
}

func processSample(ctx context.Context, sample dataset.Sample, newPipeline pipelineFactory, opts runOptions) results.EvalResult {
	result := results.EvalResult{
		Identifier:    sample.Key(),
		PhotoURL:      sample.PhotoURL,
		ExpectedTitle: sample.ExpectedTitle,
	}

	if !sample.HasInput() {
		result.Error = "sample has neither photo_url nor ocr_text"
		return result
	}

	pipeline, err := newPipeline()
	if err != nil {
		result.Error = fmt.Sprintf("failed to create pipeline: %v", err)
		return result
	}

	res, err := pipeline.Run(ctx, photo.Request{
		PhotoURL:      sample.PhotoURL,
		OCRText:       sample.OCRText,
		AllCategories: !opts.ComicsOnly,
		ReverseImage:  opts.ReverseImage && sample.PhotoURL != "",
		FoldCase:      opts.FoldCase,
	})

	state := pipeline.State()
	result.Query = state.NormalizedText

	switch {
	case errors.Is(err, photo.ErrNoResult):
		result.NoResult = true
		return result
	case err != nil:
		result.Error = err.Error()
		result.FailedOp = string(state.FailedOp)
		slog.Warn("Sample failed", "id", result.Identifier, "err", err)
		return result
	}

	result.Candidates = len(res.Records)
	best := res.Records[0]
	result.BestTitle = best.Title
	result.MatchRate = best.MatchRate
	result.TitleScore = similarity.Ratio(foldTitle(best.Title), foldTitle(sample.ExpectedTitle))
	result.Hit = result.TitleScore >= opts.HitThreshold

	return result
}

// foldTitle makes titles comparable regardless of width, case and spacing.
func foldTitle(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))
	return strings.Join(strings.Fields(s), " ")
}

func printSummary(summary results.Summary) {
	fmt.Println("\n========================================")
	fmt.Println("Evaluation Summary")
	fmt.Println("========================================")
	fmt.Printf("Total Samples:      %d\n", summary.TotalSamples)
	fmt.Printf("Resolved:           %d\n", summary.Resolved)
	fmt.Printf("No Result:          %d\n", summary.NoResult)
	fmt.Printf("Failed:             %d\n", summary.Failed)
	fmt.Println()
	fmt.Printf("Hits:               %d (%.2f%%)\n", summary.Hits, summary.HitRate*100)
	fmt.Printf("Average Score:      %.2f%%\n", summary.AverageScore*100)
	fmt.Printf("Median Score:       %.2f%%\n", summary.MedianScore*100)
	fmt.Printf("Min Score:          %.2f%%\n", summary.MinScore*100)
	fmt.Printf("Max Score:          %.2f%%\n", summary.MaxScore*100)
	fmt.Println("========================================")
}
