package evalcmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/moyashi-books/moyashi/internal/eval/dataset"
	"github.com/moyashi-books/moyashi/internal/parser"
)

func executeInspect(ctx context.Context, w io.Writer, datasetPath string, limit int, interactive bool, prs parser.Parser) error {
	loader := dataset.NewLoader(datasetPath)

	if limit <= 0 {
		limit = -1
	}
	samples, err := loader.LoadSample(limit)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	fmt.Fprintf(w, "Loaded %d samples from %s\n", len(samples), datasetPath)
	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w)

	reader := bufio.NewReader(os.Stdin)

	for i, sample := range samples {
		select {
		case <-ctx.Done():
			fmt.Fprintln(w, "\nInspection interrupted.")
			return nil
		default:
		}

		fmt.Fprintf(w, "SAMPLE %d/%d\n", i+1, len(samples))
		fmt.Fprintln(w, strings.Repeat("-", 80))
		fmt.Fprintf(w, "ID:             %s\n", sample.ID)
		fmt.Fprintf(w, "Expected Title: %s\n", sample.ExpectedTitle)
		if sample.PhotoURL != "" {
			fmt.Fprintf(w, "Photo URL:      %s\n", sample.PhotoURL)
		}

		if sample.OCRText != "" {
			fmt.Fprintln(w, "OCR TEXT:")
			fmt.Fprintln(w, strings.Repeat("-", 80))
			fmt.Fprintln(w, truncate(sample.OCRText, 500))
			fmt.Fprintln(w, strings.Repeat("-", 80))

			if prs != nil {
				query, err := prs.Parse(ctx, sample.OCRText)
				if err != nil {
					fmt.Fprintf(w, "Parsed Query:   error: %v\n", err)
				} else {
					fmt.Fprintf(w, "Parsed Query:   %s\n", query)
				}
				if volume, ok := parser.DetectVolume(sample.OCRText); ok {
					fmt.Fprintf(w, "Volume:         %d\n", volume)
				}
			}
		}

		fmt.Fprintln(w)

		if interactive {
			fmt.Fprint(w, "Press Enter to continue to next sample (or Ctrl+C to quit)...")

			inputCh := make(chan struct{})
			go func() {
				_, _ = reader.ReadString('\n')
				close(inputCh)
			}()

			select {
			case <-ctx.Done():
				fmt.Fprintln(w, "\nInspection interrupted.")
				return nil
			case <-inputCh:
				fmt.Fprintln(w)
			}
		}
	}

	return nil
}
