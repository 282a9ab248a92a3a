package submit

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrymomot/formkit/pkg/form"
)

// HashFields wraps next so that the top-level string fields named in secret
// reach it as bcrypt hashes. Fields named in drop are removed entirely,
// which suits confirmation fields. The caller's snapshot is not modified.
func HashFields(next form.Action, secret []string, drop ...string) form.Action {
	return form.ActionFunc(func(ctx context.Context, snapshot map[string]any) (any, error) {
		out := make(map[string]any, len(snapshot))
		for k, v := range snapshot {
			out[k] = v
		}
		for _, name := range drop {
			delete(out, name)
		}
		for _, name := range secret {
			plain, ok := out[name].(string)
			if !ok {
				continue
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
			if err != nil {
				return nil, fmt.Errorf("hash %s: %w", name, err)
			}
			out[name] = string(hash)
		}
		return next.Submit(ctx, out)
	})
}
