package broadcast

import (
	"context"
	"sync"
)

// Message wraps data of type T for type-safe broadcasting.
type Message[T any] struct {
	Data T
}

// Subscriber receives messages from a Broadcaster.
type Subscriber[T any] interface {
	// Receive returns the channel messages are delivered on. It is closed
	// when the subscriber or the broadcaster is closed.
	Receive() <-chan Message[T]

	// Close releases the subscription. Safe to call more than once.
	Close() error
}

// Broadcaster sends messages to multiple subscribers.
type Broadcaster[T any] interface {
	// Subscribe registers a subscriber that lives until ctx is done or
	// Close is called on it.
	Subscribe(ctx context.Context) Subscriber[T]

	// Broadcast delivers msg to every subscriber without blocking.
	// Subscribers whose buffer is full miss the message.
	Broadcast(ctx context.Context, msg Message[T]) error

	// Close closes every subscriber. Later broadcasts are no-ops.
	Close() error
}

type subscriber[T any] struct {
	ch     chan Message[T]
	closed bool
	mu     sync.RWMutex
	onDone func()
}

func newSubscriber[T any](bufferSize int) *subscriber[T] {
	return &subscriber[T]{ch: make(chan Message[T], bufferSize)}
}

func (s *subscriber[T]) Receive() <-chan Message[T] {
	return s.ch
}

func (s *subscriber[T]) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	close(s.ch)
	s.closed = true
	onDone := s.onDone
	s.mu.Unlock()

	if onDone != nil {
		onDone()
	}
	return nil
}

// send reports whether the message was queued.
func (s *subscriber[T]) send(msg Message[T]) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return false
	}

	select {
	case s.ch <- msg:
		return true
	default:
		return false
	}
}
