package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/formkit/pkg/logger"
	"github.com/dmitrymomot/formkit/pkg/requestid"
)

// NewErrorHandler returns an error handler that logs err and replies with
// a JSON error, or with an "error" signal patch for datastar requests.
// Client errors are logged at warn, server errors at error.
func NewErrorHandler(log *slog.Logger) ErrorHandler[Context] {
	return func(ctx Context, err error) {
		status := http.StatusInternalServerError
		detail := errorToDetail(err, &status)

		level := slog.LevelError
		if status < http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		log.Log(ctx, level, "request failed",
			logger.Error(err),
			slog.Int("status", status),
			slog.String("request_id", requestid.FromContext(ctx)),
		)

		r := ctx.Request()
		if IsDataStar(r) {
			if rerr := Signals(map[string]any{"error": detail}).Render(ctx.ResponseWriter(), r); rerr == nil {
				return
			}
		}
		if rerr := JSONError(err).Render(ctx.ResponseWriter(), r); rerr != nil && !errors.Is(rerr, http.ErrHandlerTimeout) {
			log.DebugContext(ctx, "failed to render error", logger.Error(rerr))
		}
	}
}
