package formhttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/formkit/handler"
	"github.com/dmitrymomot/formkit/pkg/binder"
	"github.com/dmitrymomot/formkit/pkg/form"
	"github.com/dmitrymomot/formkit/pkg/logger"
	"github.com/dmitrymomot/formkit/pkg/sanitizer"
	"github.com/dmitrymomot/formkit/pkg/validator"
)

// Server serves form sessions.
type Server struct {
	registry *Registry
	action   form.Action
	onError  handler.ErrorHandler[handler.Context]
	createMW []func(http.Handler) http.Handler
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithCreateMiddleware wraps session creation, typically with a rate limiter.
func WithCreateMiddleware(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(s *Server) { s.createMW = append(s.createMW, mw...) }
}

// NewServer returns a server submitting valid forms with action.
func NewServer(registry *Registry, action form.Action, log *slog.Logger, opts ...ServerOption) *Server {
	if log == nil {
		log = logger.Discard()
	}
	base := handler.NewErrorHandler(log)
	s := &Server{
		registry: registry,
		action:   action,
		onError:  func(ctx handler.Context, err error) { base(ctx, httpError(err)) },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type sessionRequest struct {
	ID string `path:"id" json:"-"`
}

type changeRequest struct {
	ID    string `path:"id" json:"-"`
	Path  string `json:"path"`
	Value any    `json:"value"`
}

type blurRequest struct {
	ID   string `path:"id" json:"-"`
	Path string `json:"path"`
}

type validateRequest struct {
	ID    string   `path:"id" json:"-"`
	Paths []string `json:"paths"`
}

type appendRequest struct {
	ID     string         `path:"id" json:"-"`
	Array  string         `path:"array" json:"-"`
	Values map[string]any `json:"values"`
}

type removeRequest struct {
	ID    string `path:"id" json:"-"`
	Array string `path:"array" json:"-"`
	Item  string `path:"item" json:"-"`
}

// SessionResponse is returned when a session is created.
type SessionResponse struct {
	ID   string    `json:"id"`
	View form.View `json:"view"`
}

// ValidateResponse reports the outcome of an explicit validation.
type ValidateResponse struct {
	Valid bool      `json:"valid"`
	View  form.View `json:"view"`
}

// ItemResponse is returned when an element is appended.
type ItemResponse struct {
	Item form.ItemID `json:"item"`
	View form.View   `json:"view"`
}

// SubmitResponse reports a finished submission.
type SubmitResponse struct {
	Status  form.SubmitStatus                      `json:"status"`
	Payload any                                    `json:"payload,omitempty"`
	Errors  map[string]validator.ValidationErrors `json:"errors,omitempty"`
	View    form.View                              `json:"view"`
}

// Routes returns the form API.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.With(s.createMW...).Post("/", wrap(s, s.create))
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", wrap(s, s.view))
		r.Delete("/", wrap(s, s.delete))
		r.Post("/change", wrap(s, s.change))
		r.Post("/blur", wrap(s, s.blur))
		r.Post("/validate", wrap(s, s.validate))
		r.Post("/reset", wrap(s, s.reset))
		r.Post("/items/{array}", wrap(s, s.appendItem))
		r.Delete("/items/{array}/{item}", wrap(s, s.removeItem))
		r.Post("/submit", wrap(s, s.submit))
		r.Get("/stream", wrap(s, s.stream))
	})
	return r
}

func wrap[R any](s *Server, h handler.HandlerFunc[handler.Context, R]) http.HandlerFunc {
	return handler.Wrap(h,
		handler.WithBinders[handler.Context, R](
			binder.Path(chi.URLParam),
			binder.Signals(),
			binder.JSON(),
		),
		handler.WithErrorHandler[handler.Context, R](s.onError),
	)
}

// render replies with v as JSON, or as a signal patch to datastar clients.
func render(ctx handler.Context, v any, opts ...handler.JSONOption) handler.Response {
	if handler.IsDataStar(ctx.Request()) {
		return handler.Signals(v)
	}
	return handler.JSON(v, opts...)
}

func fail(err error) handler.Response {
	return handler.JSONError(httpError(err))
}

func (s *Server) create(ctx handler.Context, _ struct{}) handler.Response {
	id, engine, err := s.registry.Create(ctx)
	if err != nil {
		return fail(err)
	}
	return render(ctx, SessionResponse{ID: id, View: engine.View()}, handler.WithJSONStatus(http.StatusCreated))
}

func (s *Server) view(ctx handler.Context, req sessionRequest) handler.Response {
	engine, err := s.registry.Get(req.ID)
	if err != nil {
		return fail(err)
	}
	return render(ctx, engine.View())
}

func (s *Server) delete(ctx handler.Context, req sessionRequest) handler.Response {
	if err := s.registry.Delete(req.ID); err != nil {
		return fail(err)
	}
	return handler.Empty()
}

func (s *Server) change(ctx handler.Context, req changeRequest) handler.Response {
	engine, err := s.registry.Get(req.ID)
	if err != nil {
		return fail(err)
	}
	if err := engine.Change(ctx, sanitizer.Path(req.Path), sanitizer.Value(req.Value)); err != nil {
		return fail(err)
	}
	return render(ctx, engine.View())
}

func (s *Server) blur(ctx handler.Context, req blurRequest) handler.Response {
	engine, err := s.registry.Get(req.ID)
	if err != nil {
		return fail(err)
	}
	if err := engine.Blur(ctx, sanitizer.Path(req.Path)); err != nil {
		return fail(err)
	}
	return render(ctx, engine.View())
}

func (s *Server) validate(ctx handler.Context, req validateRequest) handler.Response {
	engine, err := s.registry.Get(req.ID)
	if err != nil {
		return fail(err)
	}
	paths := make([]string, 0, len(req.Paths))
	for _, p := range req.Paths {
		paths = append(paths, sanitizer.Path(p))
	}
	valid, err := engine.Trigger(ctx, paths...)
	if err != nil {
		return fail(err)
	}
	return render(ctx, ValidateResponse{Valid: valid, View: engine.View()})
}

func (s *Server) reset(ctx handler.Context, req sessionRequest) handler.Response {
	engine, err := s.registry.Get(req.ID)
	if err != nil {
		return fail(err)
	}
	engine.Reset(nil)
	return render(ctx, engine.View())
}

func (s *Server) appendItem(ctx handler.Context, req appendRequest) handler.Response {
	engine, err := s.registry.Get(req.ID)
	if err != nil {
		return fail(err)
	}
	arr, err := engine.Array(req.Array)
	if err != nil {
		return fail(err)
	}
	var values map[string]any
	if req.Values != nil {
		values, _ = sanitizer.Value(req.Values).(map[string]any)
	}
	id, err := arr.Append(ctx, values)
	if err != nil {
		return fail(err)
	}
	return render(ctx, ItemResponse{Item: id, View: engine.View()}, handler.WithJSONStatus(http.StatusCreated))
}

func (s *Server) removeItem(ctx handler.Context, req removeRequest) handler.Response {
	engine, err := s.registry.Get(req.ID)
	if err != nil {
		return fail(err)
	}
	arr, err := engine.Array(req.Array)
	if err != nil {
		return fail(err)
	}
	if err := arr.Remove(ctx, form.ItemID(req.Item)); err != nil {
		return fail(err)
	}
	return render(ctx, engine.View())
}

func (s *Server) submit(ctx handler.Context, req sessionRequest) handler.Response {
	engine, err := s.registry.Get(req.ID)
	if err != nil {
		return fail(err)
	}
	res, err := engine.Submit(ctx, s.action)
	if err != nil {
		return fail(err)
	}

	status := http.StatusOK
	switch res.Status {
	case form.SubmitInvalid:
		status = http.StatusUnprocessableEntity
	case form.SubmitFailed:
		status = http.StatusUnprocessableEntity
		if validator.IsTransportError(res.Err) || errors.Is(res.Err, context.DeadlineExceeded) {
			status = http.StatusBadGateway
		}
	}
	return render(ctx, SubmitResponse{
		Status:  res.Status,
		Payload: res.Payload,
		Errors:  res.Errors,
		View:    engine.View(),
	}, handler.WithJSONStatus(status))
}

// stream pushes the view to a datastar client after every state change.
// Bursts of events are coalesced into one patch.
func (s *Server) stream(ctx handler.Context, req sessionRequest) handler.Response {
	engine, err := s.registry.Get(req.ID)
	if err != nil {
		return fail(err)
	}
	return handler.SSE(func(stream handler.StreamContext) error {
		sub := engine.Subscribe(stream)
		defer func() { _ = sub.Close() }()

		if err := stream.SendSignals(engine.View()); err != nil {
			return err
		}

		// An open stream keeps its session alive.
		keepalive := time.NewTicker(s.registry.keepaliveInterval())
		defer keepalive.Stop()

		for {
			select {
			case <-stream.Done():
				return nil
			case <-keepalive.C:
				if !s.registry.Touch(req.ID) {
					return nil
				}
			case _, ok := <-sub.Receive():
				if !ok {
					return nil
				}
				drain(sub.Receive())
				if err := stream.SendSignals(engine.View()); err != nil {
					return err
				}
				s.registry.Touch(req.ID)
			}
		}
	})
}

func drain[T any](ch <-chan T) {
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
