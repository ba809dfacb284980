package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
)

func TestNewLoader(t *testing.T) {
	path := "./test.parquet"
	loader := NewLoader(path)

	if loader.datasetPath != path {
		t.Errorf("Expected path %s, got %s", path, loader.datasetPath)
	}
}

func writeJSONL(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "samples.jsonl")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

func TestLoadJSONL(t *testing.T) {
	path := writeJSONL(t, `{"id":"1","photo_url":"http://x/1.jpg","expected_title":"ONE PIECE"}

{"id":"2","ocr_text":"NARUTO\n第3巻","expected_title":"NARUTO"}
{"id":"3","photo_url":"http://x/3.jpg","expected_title":"BLEACH"}
`)

	tests := []struct {
		name    string
		limit   int
		wantIDs []string
	}{
		{name: "all", limit: -1, wantIDs: []string{"1", "2", "3"}},
		{name: "sample", limit: 2, wantIDs: []string{"1", "2"}},
		{name: "zero", limit: 0, wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples, err := NewLoader(path).LoadSample(tt.limit)
			if err != nil {
				t.Fatalf("LoadSample() error = %v", err)
			}
			if len(samples) != len(tt.wantIDs) {
				t.Fatalf("got %d samples, want %d", len(samples), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if samples[i].ID != id {
					t.Errorf("samples[%d].ID = %q, want %q", i, samples[i].ID, id)
				}
			}
		})
	}

	samples, err := NewLoader(path).Load()
	if err != nil {
		t.Fatal(err)
	}
	if samples[1].OCRText != "NARUTO\n第3巻" || samples[1].ExpectedTitle != "NARUTO" {
		t.Errorf("sample = %+v", samples[1])
	}
}

func TestLoadJSONLMalformed(t *testing.T) {
	path := writeJSONL(t, "{\"id\":\"1\"}\nnot json\n")
	if _, err := NewLoader(path).Load(); err == nil {
		t.Error("expected error for malformed line")
	}
}

func TestLoadParquet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "samples.parquet")
	rows := []Sample{
		{ID: "1", PhotoURL: "http://x/1.jpg", ExpectedTitle: "ONE PIECE"},
		{ID: "2", OCRText: "NARUTO", ExpectedTitle: "NARUTO"},
		{ID: "3", PhotoURL: "http://x/3.jpg", ExpectedTitle: "BLEACH"},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	samples, err := NewLoader(path).Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(samples) != 3 || samples[1].OCRText != "NARUTO" || samples[2].ExpectedTitle != "BLEACH" {
		t.Errorf("samples = %+v", samples)
	}

	samples, err = NewLoader(path).LoadSample(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 1 || samples[0].ID != "1" {
		t.Errorf("sample = %+v", samples)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := NewLoader("samples.csv").Load(); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestSampleKey(t *testing.T) {
	tests := []struct {
		name   string
		sample Sample
		key    string
		input  bool
	}{
		{"id", Sample{ID: "a", PhotoURL: "http://x"}, "a", true},
		{"photo fallback", Sample{PhotoURL: "http://x"}, "http://x", true},
		{"ocr only", Sample{ID: "b", OCRText: "text"}, "b", true},
		{"empty", Sample{ID: "c"}, "c", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sample.Key(); got != tt.key {
				t.Errorf("Key() = %q, want %q", got, tt.key)
			}
			if got := tt.sample.HasInput(); got != tt.input {
				t.Errorf("HasInput() = %v, want %v", got, tt.input)
			}
		})
	}
}
