package submit

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/dmitrymomot/formkit/pkg/form"
	"github.com/dmitrymomot/formkit/pkg/validator"
)

const maxResponseSize = 64 << 10

// HTTP posts snapshots to a JSON endpoint.
type HTTP struct {
	endpoint string
	client   *http.Client
	headers  map[string]string
}

// HTTPOption configures an HTTP action.
type HTTPOption func(*HTTP)

// WithClient replaces the default HTTP client.
func WithClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		if client != nil {
			h.client = client
		}
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) HTTPOption {
	return func(h *HTTP) { h.headers[key] = value }
}

// NewHTTP returns an action posting to endpoint.
func NewHTTP(endpoint string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 30 * time.Second},
		headers:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// rejection is the optional body of a non-2xx response.
type rejection struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Submit implements form.Action. The decoded response body, if any, is the
// payload of a successful submission.
func (h *HTTP) Submit(ctx context.Context, snapshot map[string]any) (any, error) {
	if h.endpoint == "" {
		return nil, ErrEmptyEndpoint
	}
	body, err := json.Marshal(snapshot)
	if err != nil {
		return nil, errors.Join(ErrEncode, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "formkit-submit/1.0")
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &validator.TransportError{Op: "submit.http", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &validator.TransportError{Op: "submit.http", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, rejected(resp.StatusCode, raw)
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var payload any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return string(raw), nil
	}
	return payload, nil
}

func rejected(status int, raw []byte) error {
	serr := &form.SubmissionError{
		Message: fmt.Sprintf("submission rejected with status %d", status),
		Err:     fmt.Errorf("%w: status %d", ErrRejected, status),
	}
	var r rejection
	if json.Unmarshal(raw, &r) == nil {
		serr.Kind = r.Kind
		if msg := strings.TrimSpace(r.Message); msg != "" {
			serr.Message = msg
		}
	}
	return serr
}
