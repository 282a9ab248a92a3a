package validator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/validator"
)

func TestRemote(t *testing.T) {
	ctx := context.Background()

	t.Run("yes passes", func(t *testing.T) {
		rule := validator.Remote(validator.RemoteCheckFunc(func(context.Context, any) (bool, error) {
			return true, nil
		}))
		assert.True(t, rule.IsAsync())
		_, ok := rule.Evaluate(ctx, "name", "ab", nil)
		assert.True(t, ok)
	})

	t.Run("no fails with rule message", func(t *testing.T) {
		rule := validator.Remote(validator.RemoteCheckFunc(func(context.Context, any) (bool, error) {
			return false, nil
		})).Named("is_lucky").WithMessage("no luck")

		verr, ok := rule.Evaluate(ctx, "name", "ab", nil)
		require.False(t, ok)
		assert.Equal(t, "is_lucky", verr.Rule)
		assert.Equal(t, validator.KindRemote, verr.Kind)
		assert.Equal(t, "no luck", verr.Message)
	})

	t.Run("checker error becomes transport failure", func(t *testing.T) {
		rule := validator.Remote(validator.RemoteCheckFunc(func(context.Context, any) (bool, error) {
			return false, errors.New("dial tcp: timeout")
		})).Named("is_lucky")

		verr, ok := rule.Evaluate(ctx, "name", "ab", nil)
		require.False(t, ok)
		assert.Equal(t, "is_lucky", verr.Rule)
		assert.Equal(t, validator.KindTransport, verr.Kind)
		assert.Contains(t, verr.Message, "dial tcp: timeout")
		assert.Equal(t, "validation.transport", verr.TranslationKey)
	})

	t.Run("panicking checker is recovered", func(t *testing.T) {
		rule := validator.Remote(validator.RemoteCheckFunc(func(context.Context, any) (bool, error) {
			panic("boom")
		}))

		verr, ok := rule.Evaluate(ctx, "name", "ab", nil)
		require.False(t, ok)
		assert.Equal(t, validator.KindTransport, verr.Kind)
		assert.Contains(t, verr.Message, "boom")
	})
}
