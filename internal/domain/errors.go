package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the lock and transition rules. Stage operations
// surface these without touching any state.
var (
	ErrGuideLocked       = errors.New("guide is locked")
	ErrGuideNotLocked    = errors.New("guide must be locked first")
	ErrInvalidTransition = errors.New("invalid theme status transition")
	ErrNotFound          = errors.New("not found")
)

// ValidationError marks malformed input, such as an unparsable guide or
// a redaction span that no longer matches the transcript.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InvalidStateError is returned when a stage operation is invoked out of
// order. The session is left exactly as it was.
type InvalidStateError struct {
	Current SessionStatus
	Want    SessionStatus
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("session is %s, operation requires %s", e.Current, e.Want)
}

// EngineError wraps an analysis engine failure. It is retryable, but the
// pipeline itself never retries; it only guarantees no partial state
// advance happened.
type EngineError struct {
	Op  string
	Err error
}

func (e *EngineError) Error() string { return fmt.Sprintf("analysis engine %s: %v", e.Op, e.Err) }
func (e *EngineError) Unwrap() error { return e.Err }
