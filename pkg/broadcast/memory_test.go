package broadcast_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/broadcast"
)

func TestMemoryBroadcaster_Subscribe(t *testing.T) {
	t.Run("subscribe after close returns closed subscriber", func(t *testing.T) {
		b := broadcast.NewMemoryBroadcaster[string](10)
		require.NoError(t, b.Close())

		sub := b.Subscribe(context.Background())
		_, ok := <-sub.Receive()
		assert.False(t, ok)
	})

	t.Run("context cancellation unsubscribes", func(t *testing.T) {
		b := broadcast.NewMemoryBroadcaster[string](10)
		defer b.Close()

		ctx, cancel := context.WithCancel(context.Background())
		sub := b.Subscribe(ctx)
		assert.Equal(t, 1, b.Len())

		cancel()
		assert.Eventually(t, func() bool { return b.Len() == 0 }, time.Second, 5*time.Millisecond)

		_, ok := <-sub.Receive()
		assert.False(t, ok)
	})

	t.Run("close is idempotent and unsubscribes", func(t *testing.T) {
		b := broadcast.NewMemoryBroadcaster[int](1)
		defer b.Close()

		sub := b.Subscribe(context.Background())
		require.NoError(t, sub.Close())
		require.NoError(t, sub.Close())
		assert.Equal(t, 0, b.Len())
	})
}

func TestMemoryBroadcaster_Broadcast(t *testing.T) {
	t.Run("delivers to every subscriber", func(t *testing.T) {
		b := broadcast.NewMemoryBroadcaster[int](10)
		defer b.Close()

		ctx := context.Background()
		subs := []broadcast.Subscriber[int]{b.Subscribe(ctx), b.Subscribe(ctx)}

		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 7}))
		for _, sub := range subs {
			msg := <-sub.Receive()
			assert.Equal(t, 7, msg.Data)
		}
	})

	t.Run("slow subscriber misses messages but stays subscribed", func(t *testing.T) {
		b := broadcast.NewMemoryBroadcaster[int](1)
		defer b.Close()

		ctx := context.Background()
		sub := b.Subscribe(ctx)

		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 1}))
		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 2}))

		assert.Equal(t, 1, (<-sub.Receive()).Data)
		assert.Equal(t, 1, b.Len())

		require.NoError(t, b.Broadcast(ctx, broadcast.Message[int]{Data: 3}))
		assert.Equal(t, 3, (<-sub.Receive()).Data)
	})

	t.Run("broadcast after close is a no-op", func(t *testing.T) {
		b := broadcast.NewMemoryBroadcaster[int](1)
		sub := b.Subscribe(context.Background())
		require.NoError(t, b.Close())
		require.NoError(t, b.Broadcast(context.Background(), broadcast.Message[int]{Data: 1}))

		_, ok := <-sub.Receive()
		assert.False(t, ok)
	})
}
