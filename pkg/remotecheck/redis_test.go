package remotecheck_test

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/remotecheck"
	"github.com/dmitrymomot/formkit/pkg/validator"
)

type fakeSet struct {
	members map[string]bool
	err     error
	gotKey  string
}

func (f *fakeSet) SIsMember(_ context.Context, key string, member any) *redis.BoolCmd {
	f.gotKey = key
	if f.err != nil {
		return redis.NewBoolResult(false, f.err)
	}
	return redis.NewBoolResult(f.members[member.(string)], nil)
}

func TestRedisSet_Check(t *testing.T) {
	t.Parallel()

	set := &fakeSet{members: map[string]bool{"abc": true}}

	t.Run("member passes", func(t *testing.T) {
		ok, err := remotecheck.NewRedisSet(set, "lucky").Check(context.Background(), "abc")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "lucky", set.gotKey)
	})

	t.Run("non member fails", func(t *testing.T) {
		ok, err := remotecheck.NewRedisSet(set, "lucky").Check(context.Background(), "abd")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("negated", func(t *testing.T) {
		checker := remotecheck.NewRedisSet(set, "taken", remotecheck.Negate())
		ok, err := checker.Check(context.Background(), "abc")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = checker.Check(context.Background(), "free")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestRedisSet_Check_Error(t *testing.T) {
	t.Parallel()

	set := &fakeSet{err: errors.New("connection refused")}
	_, err := remotecheck.NewRedisSet(set, "lucky").Check(context.Background(), "abc")
	require.Error(t, err)
	assert.True(t, validator.IsTransportError(err))
	assert.Contains(t, err.Error(), "connection refused")
}
