package form

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/formkit/pkg/async"
	"github.com/dmitrymomot/formkit/pkg/logger"
	"github.com/dmitrymomot/formkit/pkg/validator"
)

// Action performs the side effect of a valid submission. The snapshot is
// the nested value tree of the form. A returned *SubmissionError sets the
// global error kind and message; a *validator.TransportError sets kind
// "transport".
type Action interface {
	Submit(ctx context.Context, snapshot map[string]any) (any, error)
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc func(ctx context.Context, snapshot map[string]any) (any, error)

func (f ActionFunc) Submit(ctx context.Context, snapshot map[string]any) (any, error) {
	return f(ctx, snapshot)
}

// SubmitStatus is the outcome of a submit attempt.
type SubmitStatus string

const (
	// SubmitInvalid means validation failed and the action was not invoked.
	SubmitInvalid SubmitStatus = "invalid"
	// SubmitFailed means the action reported a failure.
	SubmitFailed SubmitStatus = "failed"
	// SubmitSucceeded means the action succeeded and the form was reset.
	SubmitSucceeded SubmitStatus = "succeeded"
)

// SubmitResult describes a finished submit attempt.
type SubmitResult struct {
	Status SubmitStatus
	// Payload is the opaque value returned by a successful action.
	Payload any
	// Errors holds the field errors of an invalid attempt.
	Errors map[string]validator.ValidationErrors
	// Err is the failure returned by the action.
	Err error
}

// Submit validates the whole form and, when every field passes, invokes
// action once with the value snapshot. Success resets the form to its
// defaults; failure sets the global error and keeps the values.
//
// The returned error is only non-nil when the attempt did not run: a nil
// action, a closed engine or another submission in flight.
func (e *Engine) Submit(ctx context.Context, action Action) (SubmitResult, error) {
	if action == nil {
		return SubmitResult{}, ErrNilAction
	}
	if e.closed.Load() {
		return SubmitResult{}, ErrClosed
	}
	if !e.submitting.CompareAndSwap(false, true) {
		return SubmitResult{}, ErrSubmitInProgress
	}
	defer e.submitting.Store(false)

	count := e.state.IncrementSubmitCount()
	e.state.ClearGlobalError()

	valid, err := e.validateAll(ctx, TriggerSubmit, e.allTargets())
	if err != nil {
		e.logger.ErrorContext(ctx, "submit validation failed unexpectedly",
			logger.SubmitCount(count),
			logger.Error(err),
		)
	}
	if !valid {
		errs := e.state.Errors()
		e.logger.InfoContext(ctx, "submit blocked by invalid fields",
			logger.SubmitCount(count),
			logger.Errors(invalidFieldErrors(errs)...),
		)
		e.publish(EventSubmitInvalid, "")
		return SubmitResult{Status: SubmitInvalid, Errors: errs}, nil
	}

	start := time.Now()
	snapshot := e.state.Snapshot()
	payload, err := async.Async(ctx, snapshot, action.Submit).Await()
	if err != nil {
		kind, message := classifySubmitError(err)
		e.state.SetGlobalError(kind, message)
		e.logger.WarnContext(ctx, "submit action failed",
			logger.SubmitCount(count),
			logger.Duration(time.Since(start)),
			logger.Error(err),
		)
		e.publish(EventSubmitFailed, "")
		return SubmitResult{Status: SubmitFailed, Err: err}, nil
	}

	e.Reset(nil)
	e.logger.InfoContext(ctx, "form submitted",
		logger.SubmitCount(count),
		logger.Duration(time.Since(start)),
	)
	e.publish(EventSubmitted, "")
	return SubmitResult{Status: SubmitSucceeded, Payload: payload}, nil
}

func classifySubmitError(err error) (kind, message string) {
	var serr *SubmissionError
	if errors.As(err, &serr) {
		return serr.kind(), serr.Message
	}
	var perr *async.PanicError
	if errors.As(err, &perr) {
		return GlobalKindSubmission, "submission action failed unexpectedly"
	}
	if validator.IsTransportError(err) || errors.Is(err, context.DeadlineExceeded) {
		return GlobalKindTransport, err.Error()
	}
	return GlobalKindSubmission, err.Error()
}

func invalidFieldErrors(byPath map[string]validator.ValidationErrors) []error {
	out := make([]error, 0, len(byPath))
	for _, errs := range byPath {
		out = append(out, errs)
	}
	return out
}
