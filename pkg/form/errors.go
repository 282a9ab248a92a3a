package form

import (
	"errors"
	"fmt"
)

var (
	// ErrSchemaLookup is returned when a path has no schema. Callers treat it
	// as "no validation".
	ErrSchemaLookup = errors.New("form: no schema for path")

	// ErrMalformedSchema is returned when a schema cannot be compiled.
	ErrMalformedSchema = errors.New("form: malformed schema")

	// ErrUnknownPath is returned when a path does not address any value, for
	// example an element index past the end of its array.
	ErrUnknownPath = errors.New("form: unknown path")

	// ErrNotArray is returned when an array operation targets a non-array path.
	ErrNotArray = errors.New("form: path is not an array field")

	// ErrArrayPath is returned when a scalar operation targets a whole array.
	ErrArrayPath = errors.New("form: path is an array field")

	// ErrUnknownItem is returned when an ItemID is not part of the array.
	ErrUnknownItem = errors.New("form: unknown array item")

	// ErrSubmitInProgress is returned when Submit is called while another
	// submission of the same engine is running.
	ErrSubmitInProgress = errors.New("form: submission already in progress")

	// ErrNilAction is returned when Submit is called without an action.
	ErrNilAction = errors.New("form: nil submit action")

	// ErrInvalidConfig is returned by New when the engine configuration is unusable.
	ErrInvalidConfig = errors.New("form: invalid config")

	// ErrClosed is returned by triggers on a closed engine.
	ErrClosed = errors.New("form: engine closed")
)

// Global error kinds written by the submission lifecycle.
const (
	GlobalKindSubmission = "submission"
	GlobalKindTransport  = "transport"
)

// SubmissionError is returned by an Action to report an explicit failure.
// Kind and Message end up in the form's global error.
type SubmissionError struct {
	Kind    string
	Message string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.kind(), e.Message)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

func (e *SubmissionError) kind() string {
	if e.Kind == "" {
		return GlobalKindSubmission
	}
	return e.Kind
}

// GlobalError is the non-field error slot of a form.
type GlobalError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}
