package handler_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/handler"
	"github.com/dmitrymomot/formkit/pkg/binder"
	"github.com/dmitrymomot/formkit/pkg/logger"
)

type blurRequest struct {
	Path string `json:"path"`
}

func TestWrap(t *testing.T) {
	t.Parallel()

	t.Run("binds and renders", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(
			func(ctx handler.Context, req blurRequest) handler.Response {
				return handler.JSON(map[string]string{"path": req.Path})
			},
			handler.WithBinders[handler.Context, blurRequest](binder.JSON()),
		)

		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"path":"name"}`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		var got handler.JSONResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		assert.Equal(t, map[string]any{"path": "name"}, got.Data)
	})

	t.Run("skips not applicable binders", func(t *testing.T) {
		t.Parallel()
		called := false
		h := handler.Wrap(
			func(ctx handler.Context, req blurRequest) handler.Response {
				called = true
				return handler.Empty()
			},
			handler.WithBinders[handler.Context, blurRequest](binder.JSON()),
		)
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.True(t, called)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("binding error goes to error handler", func(t *testing.T) {
		t.Parallel()
		var gotErr error
		h := handler.Wrap(
			func(ctx handler.Context, req blurRequest) handler.Response { return handler.Empty() },
			handler.WithBinders[handler.Context, blurRequest](binder.JSON()),
			handler.WithErrorHandler[handler.Context, blurRequest](func(ctx handler.Context, err error) {
				gotErr = err
				ctx.ResponseWriter().WriteHeader(http.StatusBadRequest)
			}),
		)
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
		r.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h(w, r)
		assert.ErrorIs(t, gotErr, binder.ErrFailedToParseJSON)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("nil response", func(t *testing.T) {
		t.Parallel()
		h := handler.Wrap(func(ctx handler.Context, req blurRequest) handler.Response { return nil })
		w := httptest.NewRecorder()
		h(w, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Contains(t, w.Body.String(), handler.ErrNilResponse.Error())
	})

	t.Run("decorators run outermost first", func(t *testing.T) {
		t.Parallel()
		var order []string
		mark := func(name string) handler.Decorator[handler.Context, blurRequest] {
			return func(next handler.HandlerFunc[handler.Context, blurRequest]) handler.HandlerFunc[handler.Context, blurRequest] {
				return func(ctx handler.Context, req blurRequest) handler.Response {
					order = append(order, name)
					return next(ctx, req)
				}
			}
		}
		h := handler.Wrap(
			func(ctx handler.Context, req blurRequest) handler.Response { return handler.Empty() },
			handler.WithDecorators(mark("outer"), mark("inner")),
		)
		h(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, []string{"outer", "inner"}, order)
	})
}

func TestJSONError(t *testing.T) {
	t.Parallel()

	t.Run("http error", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		err := errors.Join(handler.ErrNotFound, errors.New("form session not found"))
		require.NoError(t, handler.JSONError(err).Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))

		assert.Equal(t, http.StatusNotFound, w.Code)
		var got handler.JSONResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
		require.NotNil(t, got.Error)
		assert.Equal(t, "not_found", got.Error.Code)
		assert.Contains(t, got.Error.Message, "form session not found")
	})

	t.Run("plain error", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		require.NoError(t, handler.JSON(errors.New("boom")).Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("status option", func(t *testing.T) {
		t.Parallel()
		w := httptest.NewRecorder()
		resp := handler.JSON(map[string]any{"ok": false}, handler.WithJSONStatus(http.StatusUnprocessableEntity))
		require.NoError(t, resp.Render(w, httptest.NewRequest(http.MethodGet, "/", nil)))
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestSSE(t *testing.T) {
	t.Parallel()

	t.Run("requires datastar", func(t *testing.T) {
		t.Parallel()
		err := handler.Signals(map[string]any{"x": 1}).Render(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		var httpErr handler.HTTPError
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, http.StatusBadRequest, httpErr.Code)
	})

	t.Run("patches signals", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Accept", "text/event-stream")
		w := httptest.NewRecorder()

		require.NoError(t, handler.Signals(map[string]any{"submitCount": 1}).Render(w, r))
		assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
		assert.Contains(t, w.Body.String(), "datastar-patch-signals")
		assert.Contains(t, w.Body.String(), `"submitCount":1`)
	})
}

func TestNewErrorHandler(t *testing.T) {
	t.Parallel()

	h := handler.Wrap(
		func(ctx handler.Context, req blurRequest) handler.Response {
			return handler.JSONError(handler.ErrConflict)
		},
		handler.WithErrorHandler[handler.Context, blurRequest](handler.NewErrorHandler(logger.Discard())),
	)
	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	failing := handler.Wrap(
		func(ctx handler.Context, req blurRequest) handler.Response {
			return handler.SSE(func(handler.StreamContext) error { return nil })
		},
		handler.WithErrorHandler[handler.Context, blurRequest](handler.NewErrorHandler(logger.Discard())),
	)
	w = httptest.NewRecorder()
	failing(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var got handler.JSONResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "datastar_required", got.Error.Code)
}

func TestIsDataStar(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, handler.IsDataStar(r))

	r.Header.Set("Accept", "text/event-stream")
	assert.True(t, handler.IsDataStar(r))

	assert.True(t, handler.IsDataStar(httptest.NewRequest(http.MethodGet, "/?datastar=%7B%7D", nil)))
}
