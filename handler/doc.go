// Package handler turns typed handler functions into http.HandlerFunc.
//
// A HandlerFunc receives a Context and a request value populated by the
// configured binders, and returns a Response that renders itself:
//
//	type changeRequest struct {
//		ID    string `path:"id"`
//		Path  string `json:"path"`
//		Value any    `json:"value"`
//	}
//
//	r.Post("/forms/{id}/change", handler.Wrap(
//		func(ctx handler.Context, req changeRequest) handler.Response {
//			return handler.JSON(view)
//		},
//		handler.WithBinders[handler.Context, changeRequest](binder.JSON(), binder.Path(chi.URLParam)),
//		handler.WithErrorHandler[handler.Context, changeRequest](handler.NewErrorHandler(log)),
//	))
//
// Responses come in three flavours: JSON for plain API clients, Empty for
// body-less replies, and SSE for datastar clients that keep an event stream
// open and receive signal patches.
package handler
