package form

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/formkit/pkg/broadcast"
)

// Mode selects which triggers run validation before the first submit.
type Mode string

const (
	// ModeOnChange validates on every change and blur.
	ModeOnChange Mode = "onChange"
	// ModeOnBlur validates on blur only.
	ModeOnBlur Mode = "onBlur"
	// ModeOnSubmit validates on submit only. After the first submit
	// changes and blurs validate as well.
	ModeOnSubmit Mode = "onSubmit"
)

func (m Mode) valid() bool {
	return m == ModeOnChange || m == ModeOnBlur || m == ModeOnSubmit
}

// Config holds engine settings. It is loaded from the environment with
// pkg/config.
type Config struct {
	Mode          Mode          `env:"FORM_MODE" envDefault:"onChange"`
	Policy        Policy        `env:"FORM_POLICY" envDefault:"collect_all"`
	RemoteTimeout time.Duration `env:"FORM_REMOTE_TIMEOUT" envDefault:"10s"`
	EventBuffer   int           `env:"FORM_EVENT_BUFFER" envDefault:"16"`
}

// DefaultConfig returns the settings used when no Config is given.
func DefaultConfig() Config {
	return Config{
		Mode:          ModeOnChange,
		Policy:        CollectAll,
		RemoteTimeout: 10 * time.Second,
		EventBuffer:   16,
	}
}

// Validate reports settings the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	if !c.Mode.valid() {
		errs = append(errs, fmt.Errorf("unknown mode %q", c.Mode))
	}
	if c.Policy == "" || !c.Policy.valid() {
		errs = append(errs, fmt.Errorf("unknown policy %q", c.Policy))
	}
	if c.RemoteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("remote timeout must be positive, got %s", c.RemoteTimeout))
	}
	if c.EventBuffer < 1 {
		errs = append(errs, fmt.Errorf("event buffer must be at least 1, got %d", c.EventBuffer))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}

// Option configures an Engine.
type Option func(*Engine)

// WithConfig replaces the whole engine configuration.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMode sets the validation mode.
func WithMode(m Mode) Option {
	return func(e *Engine) {
		e.cfg.Mode = m
	}
}

// WithPolicy sets the default policy for fields that declare none.
func WithPolicy(p Policy) Option {
	return func(e *Engine) {
		e.cfg.Policy = p
	}
}

// WithRemoteTimeout bounds every asynchronous rule evaluation.
func WithRemoteTimeout(d time.Duration) Option {
	return func(e *Engine) {
		e.cfg.RemoteTimeout = d
	}
}

// WithBroadcaster publishes events on b instead of a private in-memory
// broadcaster. The engine does not close a broadcaster it did not create.
func WithBroadcaster(b broadcast.Broadcaster[Event]) Option {
	return func(e *Engine) {
		e.events = b
	}
}
