package ratelimiter_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/ratelimiter"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newBucket(t *testing.T, c *clock, cfg ratelimiter.Config) *ratelimiter.Bucket {
	t.Helper()
	store := ratelimiter.NewMemoryStore(ratelimiter.WithSweepInterval(0), ratelimiter.WithClock(c.now))
	t.Cleanup(store.Close)
	b, err := ratelimiter.NewBucket(store, cfg)
	require.NoError(t, err)
	return b
}

func TestBucket(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	cfg := ratelimiter.Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Second}

	t.Run("burst then reject", func(t *testing.T) {
		t.Parallel()
		c := &clock{t: time.Unix(1000, 0)}
		b := newBucket(t, c, cfg)

		for range 2 {
			res, err := b.Allow(ctx, "k")
			require.NoError(t, err)
			assert.True(t, res.Allowed())
		}
		res, err := b.Allow(ctx, "k")
		require.NoError(t, err)
		assert.False(t, res.Allowed())
		assert.Equal(t, time.Second, res.RetryAfter(c.t))
	})

	t.Run("rejection does not drain", func(t *testing.T) {
		t.Parallel()
		c := &clock{t: time.Unix(1000, 0)}
		b := newBucket(t, c, cfg)

		for range 5 {
			_, err := b.Allow(ctx, "k")
			require.NoError(t, err)
		}
		c.t = c.t.Add(time.Second)
		res, err := b.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
		assert.Equal(t, 0, res.Remaining)
	})

	t.Run("refill is capped", func(t *testing.T) {
		t.Parallel()
		c := &clock{t: time.Unix(1000, 0)}
		b := newBucket(t, c, cfg)

		_, err := b.Allow(ctx, "k")
		require.NoError(t, err)
		c.t = c.t.Add(time.Hour)
		res, err := b.Allow(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, 1, res.Remaining)
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()
		c := &clock{t: time.Unix(1000, 0)}
		b := newBucket(t, c, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Minute})

		res, err := b.Allow(ctx, "a")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
		res, err = b.Allow(ctx, "b")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
	})

	t.Run("reset refills", func(t *testing.T) {
		t.Parallel()
		c := &clock{t: time.Unix(1000, 0)}
		b := newBucket(t, c, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Minute})

		_, err := b.Allow(ctx, "k")
		require.NoError(t, err)
		require.NoError(t, b.Reset(ctx, "k"))
		res, err := b.Allow(ctx, "k")
		require.NoError(t, err)
		assert.True(t, res.Allowed())
	})

	t.Run("invalid token count", func(t *testing.T) {
		t.Parallel()
		b := newBucket(t, &clock{t: time.Unix(1000, 0)}, cfg)
		_, err := b.AllowN(ctx, "k", 0)
		assert.ErrorIs(t, err, ratelimiter.ErrInvalidTokenCount)
	})
}

func TestNewBucketInvalidConfig(t *testing.T) {
	t.Parallel()
	store := ratelimiter.NewMemoryStore(ratelimiter.WithSweepInterval(0))
	defer store.Close()

	for name, cfg := range map[string]ratelimiter.Config{
		"capacity": {Capacity: 0, RefillRate: 1, RefillInterval: time.Second},
		"rate":     {Capacity: 1, RefillRate: 0, RefillInterval: time.Second},
		"interval": {Capacity: 1, RefillRate: 1},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ratelimiter.NewBucket(store, cfg)
			assert.ErrorIs(t, err, ratelimiter.ErrInvalidConfig)
		})
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	t.Parallel()
	c := &clock{t: time.Unix(1000, 0)}
	store := ratelimiter.NewMemoryStore(
		ratelimiter.WithSweepInterval(0),
		ratelimiter.WithStaleAfter(time.Minute),
		ratelimiter.WithClock(c.now),
	)
	defer store.Close()

	cfg := ratelimiter.DefaultConfig()
	_, _, err := store.ConsumeTokens(context.Background(), "old", 1, cfg)
	require.NoError(t, err)
	c.t = c.t.Add(2 * time.Minute)
	_, _, err = store.ConsumeTokens(context.Background(), "fresh", 1, cfg)
	require.NoError(t, err)

	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 0, store.Sweep())
}

type failingLimiter struct{}

func (failingLimiter) Allow(context.Context, string) (ratelimiter.Result, error) {
	return ratelimiter.Result{}, errors.New("boom")
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
	byHeader := func(r *http.Request) string { return r.Header.Get("X-Client") }

	t.Run("limits per key", func(t *testing.T) {
		t.Parallel()
		b := newBucket(t, &clock{t: time.Now()}, ratelimiter.Config{Capacity: 1, RefillRate: 1, RefillInterval: time.Minute})
		h := ratelimiter.Middleware(b, byHeader)(ok)

		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Client", "a")

		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))

		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("Retry-After"))
		assert.JSONEq(t, `{"error":{"code":"too_many_requests","message":"too many requests"}}`, rec.Body.String())
	})

	t.Run("empty key skips", func(t *testing.T) {
		t.Parallel()
		h := ratelimiter.Middleware(failingLimiter{}, byHeader)(ok)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("limiter failure", func(t *testing.T) {
		t.Parallel()
		h := ratelimiter.Middleware(failingLimiter{}, byHeader)(ok)
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		req.Header.Set("X-Client", "a")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
