// Package models defines the typed error kinds used across IntakePipe.
//
// Each kind carries a declared fallback policy applied by the orchestrator:
// validation errors re-prompt without mutating state, persistence errors force
// the session into AI mode, generation errors resolve to a fixed apology, and
// handoff errors are logged but never fatal.
package models

import (
	"errors"
	"fmt"
)

// Sentinel validation errors. These are recoverable: the caller re-prompts
// and leaves session state untouched.
var (
	// ErrIrrelevantResponse marks a guided answer rejected by the relevance heuristic.
	ErrIrrelevantResponse = errors.New("response not relevant to current step")
	// ErrInvalidPhone marks a phone submission with a digit count outside {10, 11}.
	ErrInvalidPhone = errors.New("phone number must have 10 or 11 digits including area code")
	// ErrSessionNotFound marks a lookup for a session id with no stored state.
	ErrSessionNotFound = errors.New("session not found")
	// ErrStepNotFound marks a session pointing at a step id absent from the cached flow.
	ErrStepNotFound = errors.New("step not found in conversation flow")
)

// PersistenceError wraps a session, lead, or flow store failure.
type PersistenceError struct {
	Op  string // operation that failed, e.g. "save session"
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// NewPersistenceError wraps err as a PersistenceError for the given operation.
func NewPersistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistenceError reports whether err is (or wraps) a PersistenceError.
func IsPersistenceError(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// GenerationError wraps a text-generation service failure.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("text generation failed: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// HandoffError wraps a messaging bridge send failure. It is informational:
// the handoff confirmation is still returned with sent=false.
type HandoffError struct {
	To  string
	Err error
}

func (e *HandoffError) Error() string {
	return fmt.Sprintf("handoff send to %s failed: %v", e.To, e.Err)
}

func (e *HandoffError) Unwrap() error { return e.Err }
