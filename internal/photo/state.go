package photo

import (
	"slices"

	"github.com/moyashi-books/moyashi/internal/catalog"
)

// Stage is how far a pipeline has progressed.
type Stage int

const (
	StageIdle Stage = iota
	StageHasPhotoURL
	StageHasExtractedText
	StageHasNormalizedText
	StageHasResults
	StageFailed
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageHasPhotoURL:
		return "has_photo_url"
	case StageHasExtractedText:
		return "has_extracted_text"
	case StageHasNormalizedText:
		return "has_normalized_text"
	case StageHasResults:
		return "has_results"
	case StageFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// MarshalText renders the stage name in JSON and YAML output.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// State is a snapshot of what a pipeline has resolved so far. Outputs of
// earlier stages survive failures of later ones; a failed stage leaves no
// output of its own.
type State struct {
	PhotoURL              string           `json:"photo_url,omitempty" yaml:"photo_url,omitempty"`
	TitleFromReverseImage string           `json:"title_from_reverse_image,omitempty" yaml:"title_from_reverse_image,omitempty"`
	ExtractedText         string           `json:"extracted_text,omitempty" yaml:"extracted_text,omitempty"`
	NormalizedText        string           `json:"normalized_text,omitempty" yaml:"normalized_text,omitempty"`
	Volume                int              `json:"volume,omitempty" yaml:"volume,omitempty"`
	Candidates            []catalog.Volume `json:"candidates,omitempty" yaml:"candidates,omitempty"`
	Stage                 Stage            `json:"stage" yaml:"stage"`
	FailedOp              Op               `json:"failed_op,omitempty" yaml:"failed_op,omitempty"`
}

type state struct {
	photoURL              string
	titleFromReverseImage string
	extractedText         string
	normalizedText        string
	volume                int
	candidates            []catalog.Volume
	searched              bool
	failedOp              Op
}

func (s *state) stage() Stage {
	switch {
	case s.failedOp != "":
		return StageFailed
	case s.searched:
		return StageHasResults
	case s.normalizedText != "":
		return StageHasNormalizedText
	case s.extractedText != "":
		return StageHasExtractedText
	case s.photoURL != "":
		return StageHasPhotoURL
	default:
		return StageIdle
	}
}

func (s *state) snapshot() State {
	return State{
		PhotoURL:              s.photoURL,
		TitleFromReverseImage: s.titleFromReverseImage,
		ExtractedText:         s.extractedText,
		NormalizedText:        s.normalizedText,
		Volume:                s.volume,
		Candidates:            slices.Clone(s.candidates),
		Stage:                 s.stage(),
		FailedOp:              s.failedOp,
	}
}

// setPhotoURL replaces the photo and drops everything derived from the
// previous one.
func (s *state) setPhotoURL(u string) {
	if u == s.photoURL {
		return
	}
	s.photoURL = u
	s.titleFromReverseImage = ""
	s.setExtractedText("")
}

func (s *state) setExtractedText(text string) {
	if text == s.extractedText {
		return
	}
	s.extractedText = text
	s.volume = 0
	s.setNormalizedText("")
}

func (s *state) setNormalizedText(text string) {
	if text == s.normalizedText {
		return
	}
	s.normalizedText = text
	s.clearResults()
}

// discardOutput drops what op produces and everything derived from it. The
// inputs op consumed are kept.
func (s *state) discardOutput(op Op) {
	switch op {
	case OpReverseImage:
		s.titleFromReverseImage = ""
	case OpExtractText:
		s.extractedText = ""
		fallthrough
	case OpNormalize:
		s.normalizedText = ""
		s.volume = 0
		fallthrough
	case OpSearch:
		s.clearResults()
	}
}

func (s *state) clearResults() {
	s.candidates = nil
	s.searched = false
}
