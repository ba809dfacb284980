package results

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSummarize(t *testing.T) {
	results := []EvalResult{
		{Identifier: "1", Hit: true, TitleScore: 1.0},
		{Identifier: "2", TitleScore: 0.5},
		{Identifier: "3", Hit: true, TitleScore: 0.9},
		{Identifier: "4", NoResult: true},
		{Identifier: "5", Error: "catalog search: upstream error"},
	}

	got := Summarize(results)

	if got.TotalSamples != 5 || got.Resolved != 3 || got.NoResult != 1 || got.Failed != 1 || got.Hits != 2 {
		t.Errorf("counts = %+v", got)
	}
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"hit rate", got.HitRate, 0.4},
		{"average", got.AverageScore, 0.8},
		{"median", got.MedianScore, 0.9},
		{"min", got.MinScore, 0.5},
		{"max", got.MaxScore, 1.0},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > 1e-9 {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestSummarizeEvenMedianAndEmpty(t *testing.T) {
	got := Summarize([]EvalResult{{TitleScore: 0.2}, {TitleScore: 0.6}})
	if math.Abs(got.MedianScore-0.4) > 1e-9 {
		t.Errorf("median = %v, want 0.4", got.MedianScore)
	}

	empty := Summarize(nil)
	if empty.TotalSamples != 0 || empty.HitRate != 0 || empty.AverageScore != 0 {
		t.Errorf("empty summary = %+v", empty)
	}
}

func TestSaveAndLoadYAML(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "evals")
	spec := &EvalSpec{
		Config: EvalConfig{Parser: "title", DatasetPath: "samples.jsonl", Timestamp: "2024-01-01_00-00-00"},
		Results: []EvalResult{
			{Identifier: "1", ExpectedTitle: "ONE PIECE", BestTitle: "ONE PIECE", MatchRate: 1, TitleScore: 1, Hit: true, Candidates: 2},
			{Identifier: "2", ExpectedTitle: "NARUTO", Error: "extract text: upstream error", FailedOp: "extract text"},
		},
	}
	spec.Summary = Summarize(spec.Results)

	path, err := SaveToYAML(dir, spec)
	if err != nil {
		t.Fatalf("SaveToYAML() error = %v", err)
	}
	if filepath.Base(path) != "title-2024-01-01_00-00-00.yaml" {
		t.Errorf("path = %s", path)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), "besttitle: ONE PIECE") {
		t.Errorf("unexpected YAML:\n%s", raw)
	}

	loaded, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML() error = %v", err)
	}
	if loaded.Config.Parser != "title" || len(loaded.Results) != 2 || !loaded.Results[0].Hit || loaded.Results[1].FailedOp != "extract text" {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Summary.Hits != 1 || loaded.Summary.Failed != 1 {
		t.Errorf("summary = %+v", loaded.Summary)
	}
}

func TestLoadFromYAMLMissing(t *testing.T) {
	if _, err := LoadFromYAML(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
