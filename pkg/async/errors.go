package async

import (
	"errors"
	"fmt"
)

var (
	ErrAwaitAborted = errors.New("async: stopped waiting before the future completed")
	ErrPanicked     = errors.New("async: computation panicked")
)

// PanicError carries the value recovered from a panicking computation.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("async: computation panicked: %v", e.Value)
}

func (e *PanicError) Is(target error) bool { return target == ErrPanicked }
