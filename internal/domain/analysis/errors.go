package analysis

import (
	"errors"
	"fmt"
)

// ErrNotFound indicates the claim (or document) does not exist or the
// caller has no access to it. Fatal to the request, never retried.
var ErrNotFound = errors.New("claim not found")

// ErrNotConfigured indicates an optional capability has no credentials.
// The capability's contribution degrades to a status string; the run
// continues.
var ErrNotConfigured = errors.New("capability not configured")

// ErrMissingParentTurn indicates a conversation follow-up arrived without
// the correlation id of the previous turn.
var ErrMissingParentTurn = errors.New("parent turn id is required")

// ExtractionError wraps a per-file failure. It is contained at the file:
// the orchestrator records a diagnostic evidence item and keeps going.
type ExtractionError struct {
	FileKey string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed for %s: %v", e.FileKey, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// SynthesisError wraps a model invocation or response-parse failure.
// Contained at the single synthesis boundary by substituting the fixed
// fallback report.
type SynthesisError struct {
	Stage string // invoke | parse
	Err   error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("synthesis %s failed: %v", e.Stage, e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }
