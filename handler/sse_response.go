package handler

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/starfederation/datastar-go/datastar"
)

// StreamContext is a Context with an open datastar stream.
type StreamContext interface {
	Context

	// SendSignals patches the client's signals with v, which must marshal
	// to a JSON object.
	SendSignals(v any) error
}

// SSEHandler runs for the lifetime of a stream.
type SSEHandler func(ctx StreamContext) error

type sseResponse struct {
	handler SSEHandler
}

func (s sseResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if !IsDataStar(r) {
		return NewHTTPError(http.StatusBadRequest, "datastar_required")
	}
	base := NewContext(w, r)
	sse := base.SSE()
	if sse == nil {
		return ErrSSENotInitialized
	}
	return s.handler(&streamContext{Context: base, sse: sse})
}

// SSE returns a Response that opens a datastar stream and runs h on it.
func SSE(h SSEHandler) Response {
	return sseResponse{handler: h}
}

// Signals returns a one-shot SSE response patching the client's signals
// with v.
func Signals(v any) Response {
	return SSE(func(ctx StreamContext) error {
		return ctx.SendSignals(v)
	})
}

type streamContext struct {
	Context
	sse *datastar.ServerSentEventGenerator
}

func (c *streamContext) SendSignals(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.sse.PatchSignals(data)
}
