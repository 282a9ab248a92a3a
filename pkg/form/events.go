package form

import (
	"context"

	"github.com/dmitrymomot/formkit/pkg/broadcast"
	"github.com/dmitrymomot/formkit/pkg/logger"
)

// EventType names a state change.
type EventType string

const (
	EventValueChanged  EventType = "value_changed"
	EventTouched       EventType = "touched"
	EventErrorsChanged EventType = "errors_changed"
	EventArrayChanged  EventType = "array_changed"
	EventSubmitInvalid EventType = "submit_invalid"
	EventSubmitFailed  EventType = "submit_failed"
	EventSubmitted     EventType = "submitted"
	EventReset         EventType = "reset"
)

// Event is published after every state mutation. Path is empty for
// form-wide events.
type Event struct {
	Type EventType `json:"type"`
	Path string    `json:"path,omitempty"`
}

// Subscribe returns a subscriber receiving the engine's events until ctx is
// done or the subscriber is closed.
func (e *Engine) Subscribe(ctx context.Context) broadcast.Subscriber[Event] {
	return e.events.Subscribe(ctx)
}

func (e *Engine) publish(typ EventType, path string) {
	err := e.events.Broadcast(context.Background(), broadcast.Message[Event]{Data: Event{Type: typ, Path: path}})
	if err != nil {
		e.logger.Debug("event not published",
			logger.Path(path),
			logger.Error(err),
		)
	}
}
