// Package logger provides a context-aware factory around log/slog with
// functional options and attribute helpers that keep key names consistent.
//
// New builds a text or JSON handler, applies static attributes and wraps the
// result in LogHandlerDecorator, which runs registered ContextExtractor
// callbacks on every record.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment("development", "formkit"),
//	    logger.WithContextValue("session_id", sessionKey{}),
//	)
//	log.DebugContext(ctx, "stale async result discarded",
//	    logger.Path("name"),
//	    logger.Seq(4),
//	)
//
// Error and Errors return empty attributes for nil errors so they can be
// passed unconditionally.
package logger
