package config

import (
	"errors"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option configures Load.
type Option func(*options)

type options struct {
	files    []string
	optional bool
	prefix   string
	environ  map[string]string
}

// WithEnvFiles reads the given .env files. Missing files are an error.
func WithEnvFiles(files ...string) Option {
	return func(o *options) {
		o.files = append(o.files, files...)
		o.optional = false
	}
}

// WithPrefix only considers variables starting with prefix; tags are
// written without it.
func WithPrefix(prefix string) Option {
	return func(o *options) { o.prefix = prefix }
}

// WithEnviron replaces the process environment as the source of values.
func WithEnviron(environ map[string]string) Option {
	return func(o *options) { o.environ = environ }
}

// Load parses environment variables into v using `env` struct tags.
//
// Values from .env files never override variables already present in the
// environment. Without WithEnvFiles the default ".env" in the working
// directory is read if it exists.
//
// Example:
//
//	type Config struct {
//		Addr          string        `env:"HTTP_ADDR" envDefault:":8080"`
//		RemoteTimeout time.Duration `env:"FORM_REMOTE_TIMEOUT" envDefault:"10s"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		// handle error
//	}
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := &options{files: []string{".env"}, optional: true}
	for _, opt := range opts {
		opt(o)
	}

	environ := o.environ
	if environ == nil {
		environ = environToMap(os.Environ())
	}

	for _, file := range o.files {
		values, err := godotenv.Read(file)
		if err != nil {
			if o.optional && errors.Is(err, os.ErrNotExist) {
				continue
			}
			return errors.Join(ErrReadingEnvFile, err)
		}
		for k, val := range values {
			if _, exists := environ[k]; !exists {
				environ[k] = val
			}
		}
	}

	if err := env.ParseWithOptions(v, env.Options{
		Prefix:      o.prefix,
		Environment: environ,
	}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics if configuration loading fails.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic("failed to load required configuration: " + err.Error())
	}
}

func environToMap(environ []string) map[string]string {
	out := make(map[string]string, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if ok {
			out[k] = v
		}
	}
	return out
}
