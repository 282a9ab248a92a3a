package formhttp

import (
	"errors"

	"github.com/dmitrymomot/formkit/handler"
	"github.com/dmitrymomot/formkit/pkg/binder"
	"github.com/dmitrymomot/formkit/pkg/form"
)

var (
	ErrSessionNotFound = errors.New("form session not found")
	ErrTooManySessions = errors.New("too many open form sessions")
	ErrRegistryClosed  = errors.New("form session registry closed")
)

// httpError attaches a status to errors returned by the engine and the
// binders.
func httpError(err error) error {
	var status handler.HTTPError
	switch {
	case errors.As(err, &status):
		return err
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, form.ErrClosed):
		status = handler.ErrNotFound
	case errors.Is(err, ErrTooManySessions), errors.Is(err, ErrRegistryClosed):
		status = handler.ErrServiceUnavailable
	case errors.Is(err, form.ErrSubmitInProgress):
		status = handler.ErrConflict
	case errors.Is(err, form.ErrUnknownPath),
		errors.Is(err, form.ErrNotArray),
		errors.Is(err, form.ErrArrayPath),
		errors.Is(err, form.ErrUnknownItem),
		errors.Is(err, binder.ErrFailedToParseJSON),
		errors.Is(err, binder.ErrFailedToParsePath),
		errors.Is(err, binder.ErrFailedToReadSignals),
		errors.Is(err, binder.ErrMissingContentType):
		status = handler.ErrBadRequest
	case errors.Is(err, binder.ErrUnsupportedMediaType):
		status = handler.ErrUnsupportedMedia
	default:
		return err
	}
	return errors.Join(status, err)
}
