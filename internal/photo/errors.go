package photo

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by a Pipeline stage matches exactly one
// of them with errors.Is.
var (
	// ErrInvalidInput means a required stage input was neither supplied nor
	// produced by an earlier stage.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream covers transport failures, non-2xx responses and responses
	// missing the fields the stage depends on.
	ErrUpstream = errors.New("upstream error")
	// ErrNoResult is a well-formed empty outcome, such as a catalog search
	// with no matching items. It is not a failure.
	ErrNoResult = errors.New("no result")
)

// Op names a pipeline stage operation.
type Op string

const (
	OpReverseImage Op = "reverse image"
	OpExtractText  Op = "extract text"
	OpNormalize    Op = "normalize text"
	OpSearch       Op = "catalog search"
	OpRank         Op = "rank"
)

// StageError reports which operation failed and why. It matches both its
// Kind and its cause with errors.Is.
type StageError struct {
	Op   Op
	Kind error
	Err  error
}

func (e *StageError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}
