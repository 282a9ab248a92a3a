package validator

import (
	"context"
	"errors"
	"fmt"
)

// RemoteChecker answers a yes/no question about a value using an external
// service. An error means no answer could be obtained.
type RemoteChecker interface {
	Check(ctx context.Context, value any) (bool, error)
}

// RemoteCheckFunc adapts a function to the RemoteChecker interface.
type RemoteCheckFunc func(ctx context.Context, value any) (bool, error)

func (f RemoteCheckFunc) Check(ctx context.Context, value any) (bool, error) {
	return f(ctx, value)
}

// Remote builds an asynchronous rule backed by checker.
func Remote(checker RemoteChecker) Rule {
	return Rule{Kind: KindRemote, Checker: checker}
}

func (r Rule) evaluateRemote(ctx context.Context, field string, value any) (verr ValidationError, ok bool) {
	if r.Checker == nil {
		return r.transportFailure(field, errors.New("no remote checker configured")), false
	}

	defer func() {
		if p := recover(); p != nil {
			verr, ok = r.transportFailure(field, fmt.Errorf("remote checker panicked: %v", p)), false
		}
	}()

	passed, err := r.Checker.Check(ctx, value)
	if err != nil {
		return r.transportFailure(field, err), false
	}
	if !passed {
		return r.failure(field, KindRemote, r.message()), false
	}
	return ValidationError{}, true
}

func (r Rule) transportFailure(field string, err error) ValidationError {
	terr := &TransportError{Op: r.Key(), Err: err}
	verr := r.failure(field, KindTransport, terr.Error())
	verr.TranslationValues["error"] = err.Error()
	return verr
}
