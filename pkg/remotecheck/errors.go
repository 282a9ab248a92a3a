package remotecheck

import "errors"

var (
	ErrUnexpectedStatus = errors.New("unexpected status from remote check")
	ErrMalformedAnswer  = errors.New("malformed remote check answer")
	ErrEmptyEndpoint    = errors.New("remote check endpoint is empty")
)
