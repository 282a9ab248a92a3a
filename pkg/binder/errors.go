package binder

import "errors"

var (
	ErrBinderNotApplicable  = errors.New("binder not applicable to this request")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFailedToParseJSON    = errors.New("failed to parse JSON request body")
	ErrFailedToParsePath    = errors.New("failed to parse path parameters")
	ErrFailedToReadSignals  = errors.New("failed to read datastar signals")
	ErrMissingContentType   = errors.New("missing content type")
)
