package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/async"
)

func TestAsync(t *testing.T) {
	t.Parallel()

	t.Run("returns result", func(t *testing.T) {
		f := async.Async(context.Background(), 21, func(_ context.Context, n int) (int, error) {
			time.Sleep(10 * time.Millisecond)
			return n * 2, nil
		})
		res, err := f.Await()
		require.NoError(t, err)
		assert.Equal(t, 42, res)
		assert.True(t, f.IsComplete())
	})

	t.Run("returns callback error", func(t *testing.T) {
		boom := errors.New("boom")
		f := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
			return 0, boom
		})
		_, err := f.Await()
		assert.ErrorIs(t, err, boom)
	})

	t.Run("cancelled context skips work", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		called := false
		f := async.Async(ctx, 0, func(context.Context, int) (int, error) {
			called = true
			return 1, nil
		})
		_, err := f.Await()
		assert.ErrorIs(t, err, context.Canceled)
		assert.False(t, called)
	})

	t.Run("recovers panic", func(t *testing.T) {
		f := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
			panic("kaboom")
		})
		_, err := f.Await()
		require.Error(t, err)
		assert.ErrorIs(t, err, async.ErrPanicked)
		assert.Contains(t, err.Error(), "kaboom")
	})
}

func TestFuture_AwaitContext(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	f := async.Async(context.Background(), 0, func(context.Context, int) (int, error) {
		<-release
		return 7, nil
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := f.AwaitContext(ctx)
	assert.ErrorIs(t, err, async.ErrAwaitAborted)
	assert.False(t, f.IsComplete())

	close(release)
	res, err := f.AwaitContext(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, res)
}

func TestResolved(t *testing.T) {
	f := async.Resolved("ok", nil)
	assert.True(t, f.IsComplete())
	res, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
}

func TestWaitAll(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	errA := errors.New("a failed")
	errC := errors.New("c failed")
	futures := []*async.Future[string]{
		async.Async(ctx, "a", func(context.Context, string) (string, error) { return "", errA }),
		async.Async(ctx, "b", func(_ context.Context, s string) (string, error) {
			time.Sleep(10 * time.Millisecond)
			return s, nil
		}),
		async.Async(ctx, "c", func(context.Context, string) (string, error) { return "", errC }),
	}

	results, err := async.WaitAll(futures...)
	require.Error(t, err)
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errC)
	assert.Equal(t, "b", results[1])
	for _, f := range futures {
		assert.True(t, f.IsComplete())
	}

	results, err = async.WaitAll[string]()
	assert.NoError(t, err)
	assert.Empty(t, results)
}
