package submit_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/form"
	"github.com/dmitrymomot/formkit/pkg/submit"
	"github.com/dmitrymomot/formkit/pkg/validator"
)

func TestHTTP_Submit(t *testing.T) {
	t.Parallel()

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer t", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		_, _ = w.Write([]byte(`{"id":"42"}`))
	}))
	t.Cleanup(srv.Close)

	action := submit.NewHTTP(srv.URL, submit.WithHeader("Authorization", "Bearer t"))
	payload, err := action.Submit(context.Background(), map[string]any{"name": "abc", "age": 20})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "42"}, payload)
	assert.Equal(t, "abc", got["name"])
	assert.EqualValues(t, 20, got["age"])
}

func TestHTTP_Submit_Rejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"kind":"conflict","message":"name already registered"}`))
	}))
	t.Cleanup(srv.Close)

	_, err := submit.NewHTTP(srv.URL).Submit(context.Background(), map[string]any{})
	var serr *form.SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "conflict", serr.Kind)
	assert.Equal(t, "name already registered", serr.Message)
	assert.ErrorIs(t, err, submit.ErrRejected)
}

func TestHTTP_Submit_RejectedWithoutBody(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	_, err := submit.NewHTTP(srv.URL).Submit(context.Background(), map[string]any{})
	var serr *form.SubmissionError
	require.ErrorAs(t, err, &serr)
	assert.Empty(t, serr.Kind)
	assert.Equal(t, "submission rejected with status 500", serr.Message)
}

func TestHTTP_Submit_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := submit.NewHTTP(url).Submit(context.Background(), map[string]any{})
	require.Error(t, err)
	assert.True(t, validator.IsTransportError(err))
}

func TestHTTP_Submit_EmptyResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)

	payload, err := submit.NewHTTP(srv.URL).Submit(context.Background(), map[string]any{})
	require.NoError(t, err)
	assert.Nil(t, payload)
}
