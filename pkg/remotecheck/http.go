package remotecheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/dmitrymomot/formkit/pkg/validator"
)

// maxAnswerSize bounds how much of a response body is read.
const maxAnswerSize = 64 << 10

// HTTP checks values against a remote JSON endpoint.
type HTTP struct {
	endpoint string
	param    string
	client   *http.Client
	headers  map[string]string
}

// HTTPOption configures an HTTP checker.
type HTTPOption func(*HTTP)

// WithParam sets the query parameter carrying the value. Default: "value".
func WithParam(name string) HTTPOption {
	return func(h *HTTP) {
		if name != "" {
			h.param = name
		}
	}
}

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

// NewHTTP returns a checker querying endpoint.
func NewHTTP(endpoint string, opts ...HTTPOption) *HTTP {
	h := &HTTP{
		endpoint: endpoint,
		param:    "value",
		client: &http.Client{
			Timeout: 15 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		headers: make(map[string]string),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type answer struct {
	Answer string `json:"answer"`
}

// Check implements validator.RemoteChecker.
func (h *HTTP) Check(ctx context.Context, value any) (bool, error) {
	ok, err := h.check(ctx, value)
	if err != nil {
		return false, &validator.TransportError{Op: "remotecheck.http", Err: err}
	}
	return ok, nil
}

func (h *HTTP) check(ctx context.Context, value any) (bool, error) {
	if h.endpoint == "" {
		return false, ErrEmptyEndpoint
	}
	u, err := url.Parse(h.endpoint)
	if err != nil {
		return false, fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set(h.param, fmt.Sprint(value))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxAnswerSize))
	if err != nil {
		return false, fmt.Errorf("read answer: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var a answer
	if err := json.Unmarshal(body, &a); err != nil {
		return false, errors.Join(ErrMalformedAnswer, err)
	}
	switch strings.ToLower(strings.TrimSpace(a.Answer)) {
	case "yes":
		return true, nil
	case "no":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", ErrMalformedAnswer, a.Answer)
}
