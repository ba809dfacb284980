package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/moyashi-books/moyashi/internal/catalog"
	"github.com/moyashi-books/moyashi/internal/config"
	"github.com/moyashi-books/moyashi/internal/photo"
	"gopkg.in/yaml.v3"
)

type stubCatalog struct {
	volumes []catalog.Volume
	err     error
}

func (s stubCatalog) Search(context.Context, string) ([]catalog.Volume, error) {
	return s.volumes, s.err
}

var comics = []catalog.Volume{
	{Title: "ONE PUNCH MAN", Categories: []string{"Comics"}},
	{Title: "ONE PIECE", Categories: []string{"Comics"}, ISBN13: "9784088708416"},
}

func TestRunLookupYAML(t *testing.T) {
	var buf bytes.Buffer
	opts := lookupOptions{ocrText: "ONE PIECE\nvol. 42", amazonURL: "http://amazon/1", showState: true}

	err := runLookup(context.Background(), &buf, config.Default(), opts, photo.WithCatalogSearcher(stubCatalog{volumes: comics}))
	if err != nil {
		t.Fatalf("runLookup() error = %v", err)
	}

	var out struct {
		Records []struct {
			Title     string            `yaml:"title"`
			ISBN13    string            `yaml:"isbn13"`
			Volume    int               `yaml:"volume"`
			URLs      map[string]string `yaml:"urls"`
			MatchRate float64           `yaml:"match_rate"`
		} `yaml:"records"`
		State struct {
			Stage string `yaml:"stage"`
		} `yaml:"state"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, buf.String())
	}
	if len(out.Records) != 2 {
		t.Fatalf("records = %d", len(out.Records))
	}
	best := out.Records[0]
	if best.Title != "ONE PIECE" || best.MatchRate != 1 || best.Volume != 42 || best.ISBN13 != "9784088708416" || best.URLs["amazon"] != "http://amazon/1" {
		t.Errorf("best = %+v", best)
	}
	if out.State.Stage != "has_results" {
		t.Errorf("stage = %q", out.State.Stage)
	}
}

func TestRunLookupJSONNoResult(t *testing.T) {
	var buf bytes.Buffer
	opts := lookupOptions{query: "NOTHING", jsonOutput: true}

	err := runLookup(context.Background(), &buf, config.Default(), opts, photo.WithCatalogSearcher(stubCatalog{volumes: []catalog.Volume{}}))
	if err != nil {
		t.Fatalf("no result should not be an error, got %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if out["no_result"] != true {
		t.Errorf("output = %s", buf.String())
	}
	if records, ok := out["records"].([]any); !ok || len(records) != 0 {
		t.Errorf("records = %v", out["records"])
	}
}

func TestRunLookupUpstreamError(t *testing.T) {
	var buf bytes.Buffer
	err := runLookup(context.Background(), &buf, config.Default(), lookupOptions{query: "X"},
		photo.WithCatalogSearcher(stubCatalog{err: errors.New("connection refused")}))

	if !errors.Is(err, photo.ErrUpstream) {
		t.Errorf("error = %v, want upstream", err)
	}
	if strings.TrimSpace(buf.String()) != "" {
		t.Errorf("unexpected output on failure: %s", buf.String())
	}
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()
	for _, path := range [][]string{{"lookup"}, {"serve"}, {"eval", "run"}, {"eval", "report"}, {"eval", "inspect"}} {
		found, _, err := root.Find(path)
		if err != nil || found.Name() != path[len(path)-1] {
			t.Errorf("command %v not found: %v", path, err)
		}
	}
	if root.PersistentFlags().Lookup("verbose") == nil {
		t.Error("missing --verbose flag")
	}
}
