// Package broadcast provides type-safe one-to-many message fanout.
//
// The form engine publishes a state-change event after every mutation; the
// HTTP bridge subscribes per open stream and re-renders on each event. A
// subscriber that falls behind simply misses events, which is harmless when
// every event only means "state changed, read it again".
//
// Basic usage:
//
//	b := broadcast.NewMemoryBroadcaster[string](10)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	_ = b.Broadcast(ctx, broadcast.Message[string]{Data: "hello"})
//	for msg := range sub.Receive() {
//		fmt.Println(msg.Data)
//	}
package broadcast
