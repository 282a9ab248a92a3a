package binder

import (
	"errors"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"
)

// Signals returns a binder reading datastar signals into v. Requests that
// do not come from a datastar client are not applicable.
func Signals() func(r *http.Request, v any) error {
	return func(r *http.Request, v any) error {
		if !isDataStar(r) {
			return ErrBinderNotApplicable
		}
		if err := datastar.ReadSignals(r, v); err != nil {
			return errors.Join(ErrFailedToReadSignals, err)
		}
		return nil
	}
}

func isDataStar(r *http.Request) bool {
	return r.Header.Get("Datastar-Request") == "true" || strings.Contains(r.URL.RawQuery, "datastar=")
}
