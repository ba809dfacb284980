package results

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

// EvalConfig represents the configuration section of the eval YAML
type EvalConfig struct {
	Parser       string  `yaml:"parser"`
	ComicsOnly   bool    `yaml:"comicsonly"`
	ReverseImage bool    `yaml:"reverseimage"`
	FoldCase     bool    `yaml:"foldcase"`
	DatasetPath  string  `yaml:"datasetpath"`
	SampleSize   int     `yaml:"samplesize"`
	Concurrency  int     `yaml:"concurrency"`
	HitThreshold float64 `yaml:"hitthreshold"`
	Timestamp    string  `yaml:"timestamp"`
}

// EvalResult is the outcome of one sample.
type EvalResult struct {
	Identifier    string  `yaml:"identifier"`
	PhotoURL      string  `yaml:"photourl,omitempty"`
	ExpectedTitle string  `yaml:"expectedtitle"`
	Query         string  `yaml:"query,omitempty"`
	BestTitle     string  `yaml:"besttitle,omitempty"`
	MatchRate     float64 `yaml:"matchrate"`
	TitleScore    float64 `yaml:"titlescore"`
	Hit           bool    `yaml:"hit"`
	Candidates    int     `yaml:"candidates"`
	NoResult      bool    `yaml:"noresult,omitempty"`
	FailedOp      string  `yaml:"failedop,omitempty"`
	Error         string  `yaml:"error,omitempty"`
}

// Summary aggregates the title scores of samples that produced a best
// title.
type Summary struct {
	TotalSamples int     `yaml:"totalsamples"`
	Resolved     int     `yaml:"resolved"`
	NoResult     int     `yaml:"noresult"`
	Failed       int     `yaml:"failed"`
	Hits         int     `yaml:"hits"`
	HitRate      float64 `yaml:"hitrate"`
	AverageScore float64 `yaml:"averagescore"`
	MedianScore  float64 `yaml:"medianscore"`
	MinScore     float64 `yaml:"minscore"`
	MaxScore     float64 `yaml:"maxscore"`
}

// EvalSpec represents the complete evaluation specification
type EvalSpec struct {
	Config  EvalConfig   `yaml:"config"`
	Summary Summary      `yaml:"summary"`
	Results []EvalResult `yaml:"results"`
}

// Summarize computes the summary statistics for results.
func Summarize(results []EvalResult) Summary {
	summary := Summary{TotalSamples: len(results)}

	var scores []float64
	for _, r := range results {
		switch {
		case r.Error != "":
			summary.Failed++
			continue
		case r.NoResult:
			summary.NoResult++
			continue
		}

		summary.Resolved++
		if r.Hit {
			summary.Hits++
		}
		scores = append(scores, r.TitleScore)
	}

	if summary.TotalSamples > 0 {
		summary.HitRate = float64(summary.Hits) / float64(summary.TotalSamples)
	}

	if len(scores) > 0 {
		var total float64
		for _, score := range scores {
			total += score
		}
		summary.AverageScore = total / float64(len(scores))

		sort.Float64s(scores)
		mid := len(scores) / 2
		if len(scores)%2 == 0 {
			summary.MedianScore = (scores[mid-1] + scores[mid]) / 2
		} else {
			summary.MedianScore = scores[mid]
		}

		summary.MinScore = scores[0]
		summary.MaxScore = scores[len(scores)-1]
	}

	return summary
}

// SaveToYAML writes spec to dir, naming the file after the parser and the
// run's timestamp, and returns the path written.
func SaveToYAML(dir string, spec *EvalSpec) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", dir, err)
	}

	if spec.Config.Timestamp == "" {
		spec.Config.Timestamp = time.Now().Format("2006-01-02_15-04-05")
	}

	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", spec.Config.Parser, spec.Config.Timestamp))

	data, err := yaml.Marshal(spec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}

	return filename, nil
}

// LoadFromYAML reads a results file written by SaveToYAML.
func LoadFromYAML(path string) (*EvalSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read results file: %w", err)
	}

	var spec EvalSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse results YAML: %w", err)
	}
	return &spec, nil
}
