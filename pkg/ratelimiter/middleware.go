package ratelimiter

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// KeyFunc extracts the rate limit key from a request. An empty key skips
// limiting.
type KeyFunc func(r *http.Request) string

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

// Middleware rejects requests whose key has run out of tokens.
func Middleware(limiter Limiter, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			k := key(r)
			if k == "" {
				next.ServeHTTP(w, r)
				return
			}

			res, err := limiter.Allow(r.Context(), k)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal_error", "rate limiter unavailable")
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if res.Allowed() {
				next.ServeHTTP(w, r)
				return
			}
			if wait := res.RetryAfter(time.Now()); wait > 0 {
				h.Set("Retry-After", strconv.Itoa(int(wait.Seconds()+0.5)))
			}
			writeError(w, http.StatusTooManyRequests, "too_many_requests", "too many requests")
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: errorDetail{Code: code, Message: msg}})
}
