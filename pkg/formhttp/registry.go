package formhttp

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/formkit/pkg/form"
	"github.com/dmitrymomot/formkit/pkg/logger"
)

// Factory builds the engine of a new session.
type Factory func(ctx context.Context) (*form.Engine, error)

type session struct {
	engine   *form.Engine
	lastSeen time.Time
}

// Registry owns the engines of open form sessions.
type Registry struct {
	factory Factory
	cfg     Config
	logger  *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
	pending  int // slots reserved by creates still running the factory
	closed   bool
}

// NewRegistry returns an empty registry creating engines with factory.
func NewRegistry(factory Factory, cfg Config, log *slog.Logger) *Registry {
	if log == nil {
		log = logger.Discard()
	}
	return &Registry{
		factory:  factory,
		cfg:      cfg,
		logger:   log.With(logger.Component("formhttp")),
		now:      time.Now,
		sessions: make(map[string]*session),
	}
}

// Create opens a session and returns its id.
func (r *Registry) Create(ctx context.Context) (string, *form.Engine, error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return "", nil, ErrRegistryClosed
	}
	if r.cfg.MaxSessions > 0 && len(r.sessions)+r.pending >= r.cfg.MaxSessions {
		r.mu.Unlock()
		return "", nil, ErrTooManySessions
	}
	r.pending++
	r.mu.Unlock()

	engine, err := r.factory(ctx)

	r.mu.Lock()
	r.pending--
	if err != nil {
		r.mu.Unlock()
		return "", nil, err
	}
	if r.closed {
		r.mu.Unlock()
		_ = engine.Close()
		return "", nil, ErrRegistryClosed
	}
	id := uuid.NewString()
	r.sessions[id] = &session{engine: engine, lastSeen: r.now()}
	r.mu.Unlock()

	r.logger.DebugContext(ctx, "form session opened", logger.SessionID(id))
	return id, engine, nil
}

// Touch marks session id as used without returning its engine.
func (r *Registry) Touch(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if ok {
		s.lastSeen = r.now()
	}
	return ok
}

// keepaliveInterval is how often long-lived connections touch their
// session, well within the TTL.
func (r *Registry) keepaliveInterval() time.Duration {
	if r.cfg.SessionTTL <= 0 {
		return time.Minute
	}
	return r.cfg.SessionTTL / 3
}

// Get returns the engine of session id and marks it as used.
func (r *Registry) Get(id string) (*form.Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = r.now()
	return s.engine, nil
}

// Delete closes session id.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	return s.engine.Close()
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the configured TTL and
// returns how many were closed.
func (r *Registry) Sweep(ctx context.Context) int {
	deadline := r.now().Add(-r.cfg.SessionTTL)

	r.mu.Lock()
	var expired []*session
	for id, s := range r.sessions {
		if s.lastSeen.Before(deadline) {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		if err := s.engine.Close(); err != nil {
			r.logger.WarnContext(ctx, "failed to close idle form session", logger.Error(err))
		}
	}
	if len(expired) > 0 {
		r.logger.DebugContext(ctx, "idle form sessions closed", slog.Int("count", len(expired)))
	}
	return len(expired)
}

// Run sweeps idle sessions until ctx is done, then closes every session.
func (r *Registry) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Close()
			return nil
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Close closes every session and rejects new ones.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*session)
	r.closed = true
	r.mu.Unlock()

	for _, s := range sessions {
		_ = s.engine.Close()
	}
}
