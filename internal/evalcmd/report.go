package evalcmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/moyashi-books/moyashi/internal/eval/results"
)

func executeReport(w io.Writer, resultsPath, format string, onlyMisses bool) error {
	spec, err := results.LoadFromYAML(resultsPath)
	if err != nil {
		return fmt.Errorf("failed to load results: %w", err)
	}

	if onlyMisses {
		misses := make([]results.EvalResult, 0, len(spec.Results))
		for _, r := range spec.Results {
			if !r.Hit {
				misses = append(misses, r)
			}
		}
		spec.Results = misses
	}

	switch format {
	case "text":
		return printTextReport(w, spec)
	case "json":
		return printJSONReport(w, spec)
	case "csv":
		return printCSVReport(w, spec)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printTextReport(w io.Writer, spec *results.EvalSpec) error {
	fmt.Fprintln(w, "========================================")
	fmt.Fprintln(w, "Title Identification Evaluation Report")
	fmt.Fprintln(w, "========================================")
	fmt.Fprintf(w, "Dataset:    %s\n", spec.Config.DatasetPath)
	fmt.Fprintf(w, "Parser:     %s\n", spec.Config.Parser)
	fmt.Fprintf(w, "Comics only: %v\n", spec.Config.ComicsOnly)
	fmt.Fprintf(w, "Timestamp:  %s\n", spec.Config.Timestamp)
	fmt.Fprintln(w)

	s := spec.Summary
	fmt.Fprintf(w, "Samples: %d  resolved: %d  no result: %d  failed: %d\n", s.TotalSamples, s.Resolved, s.NoResult, s.Failed)
	fmt.Fprintf(w, "Hit rate: %.2f%%  average score: %.2f%%  median: %.2f%%\n", s.HitRate*100, s.AverageScore*100, s.MedianScore*100)

	fmt.Fprintln(w, "\nDetailed Results:")
	fmt.Fprintln(w, "========================================")

	for i, r := range spec.Results {
		fmt.Fprintf(w, "\n[%d] %s\n", i+1, r.Identifier)
		fmt.Fprintf(w, "  Expected: %s\n", r.ExpectedTitle)
		if r.Query != "" {
			fmt.Fprintf(w, "  Query:    %s\n", truncate(r.Query, 80))
		}

		switch {
		case r.Error != "":
			fmt.Fprintf(w, "  ❌ Error: %s\n", r.Error)
		case r.NoResult:
			fmt.Fprintln(w, "  No catalog result")
		default:
			mark := "❌"
			if r.Hit {
				mark = "✅"
			}
			fmt.Fprintf(w, "  %s Best:   %s (match %.2f, title score %.2f, %d candidates)\n", mark, r.BestTitle, r.MatchRate, r.TitleScore, r.Candidates)
		}
	}

	return nil
}

func printJSONReport(w io.Writer, spec *results.EvalSpec) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(spec)
}

func printCSVReport(w io.Writer, spec *results.EvalSpec) error {
	writer := csv.NewWriter(w)

	header := []string{"ID", "Expected Title", "Query", "Best Title", "Match Rate", "Title Score", "Hit", "Candidates", "No Result", "Error"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range spec.Results {
		row := []string{
			r.Identifier,
			r.ExpectedTitle,
			r.Query,
			r.BestTitle,
			fmt.Sprintf("%.4f", r.MatchRate),
			fmt.Sprintf("%.4f", r.TitleScore),
			strconv.FormatBool(r.Hit),
			strconv.Itoa(r.Candidates),
			strconv.FormatBool(r.NoResult),
			r.Error,
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
