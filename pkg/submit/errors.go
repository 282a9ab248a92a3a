package submit

import "errors"

// KindConflict marks submissions rejected as duplicates.
const KindConflict = "conflict"

var (
	ErrEmptyEndpoint = errors.New("submit endpoint is empty")
	ErrRejected      = errors.New("submission rejected")
	ErrEncode        = errors.New("failed to encode submission")
)
