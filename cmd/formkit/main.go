// Command formkit serves the signup form over HTTP.
//
// Configuration comes from the environment (and an optional .env file):
//
//	APP_ENV            development | staging | production
//	LOG_LEVEL          overrides the environment's default level
//	LUCKY_BACKEND      http | redis; answers the name remote check
//	LUCKY_URL          endpoint for the http backend
//	LUCKY_REDIS_KEY    set consulted by the redis backend
//	SUBMIT_BACKEND     http | postgres | mongo
//	SUBMIT_URL         endpoint for the http backend
//	CLIENT_IP_HEADERS  proxy headers trusted for the client address
//
// plus the variables of form.Config, formhttp.Config, ratelimiter.Config,
// httpserver.Config and,
// for the selected backends, pg.Config, redis.Config or mongo.Config.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/formkit/pkg/clientip"
	"github.com/dmitrymomot/formkit/pkg/config"
	"github.com/dmitrymomot/formkit/pkg/form"
	"github.com/dmitrymomot/formkit/pkg/formhttp"
	"github.com/dmitrymomot/formkit/pkg/httpserver"
	"github.com/dmitrymomot/formkit/pkg/logger"
	"github.com/dmitrymomot/formkit/pkg/mongo"
	"github.com/dmitrymomot/formkit/pkg/pg"
	"github.com/dmitrymomot/formkit/pkg/ratelimiter"
	"github.com/dmitrymomot/formkit/pkg/redis"
	"github.com/dmitrymomot/formkit/pkg/remotecheck"
	"github.com/dmitrymomot/formkit/pkg/requestid"
	"github.com/dmitrymomot/formkit/pkg/signup"
	"github.com/dmitrymomot/formkit/pkg/submit"
	"github.com/dmitrymomot/formkit/pkg/validator"
)

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	LogLevel string `env:"LOG_LEVEL"`

	LuckyBackend  string `env:"LUCKY_BACKEND" envDefault:"http"`
	LuckyURL      string `env:"LUCKY_URL" envDefault:"http://localhost:8081/lucky"`
	LuckyRedisKey string `env:"LUCKY_REDIS_KEY" envDefault:"formkit:lucky-names"`

	SubmitBackend string `env:"SUBMIT_BACKEND" envDefault:"http"`
	SubmitURL     string `env:"SUBMIT_URL" envDefault:"http://localhost:8081/signup"`

	ClientIPHeaders []string `env:"CLIENT_IP_HEADERS" envSeparator:","`

	Form      form.Config
	Sessions  formhttp.Config
	RateLimit ratelimiter.Config
	HTTP      httpserver.Config
}

var errUnknownBackend = errors.New("unknown backend")

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg appConfig
	if err := config.Load(&cfg); err != nil {
		return err
	}

	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, "formkit"),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevel(logger.ParseLevel(cfg.LogLevel)))
	}
	log := logger.New(opts...)
	logger.SetAsDefault(log)

	var checks []func(context.Context) error
	cleanup := func() {}
	defer func() { cleanup() }()
	onClose := func(f func()) {
		prev := cleanup
		cleanup = func() { f(); prev() }
	}

	lucky, check, closeLucky, err := luckyChecker(ctx, cfg)
	if err != nil {
		return err
	}
	if check != nil {
		checks = append(checks, check)
	}
	onClose(closeLucky)

	action, check, closeAction, err := submitAction(ctx, cfg, log)
	if err != nil {
		return err
	}
	if check != nil {
		checks = append(checks, check)
	}
	onClose(closeAction)

	engineLog := log.With(slog.String("form", signup.Name))
	registry := formhttp.NewRegistry(func(context.Context) (*form.Engine, error) {
		return signup.New(lucky, form.WithConfig(cfg.Form), form.WithLogger(engineLog))
	}, cfg.Sessions, log)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		if err := registry.Run(ctx); err != nil {
			log.ErrorContext(ctx, "session registry stopped", logger.Error(err))
		}
	}()

	limits := ratelimiter.NewMemoryStore()
	defer limits.Close()
	limiter, err := ratelimiter.NewBucket(limits, cfg.RateLimit)
	if err != nil {
		return err
	}

	r := chi.NewRouter()
	r.Use(requestid.Middleware)
	r.Get("/healthz", httpserver.HealthCheckHandler(log))
	r.Get("/readyz", httpserver.HealthCheckHandler(log, checks...))
	r.Mount("/forms", formhttp.NewServer(registry, action, log,
		formhttp.WithCreateMiddleware(ratelimiter.Middleware(limiter, clientip.Key(cfg.ClientIPHeaders...))),
	).Routes())

	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
	err = srv.Run(ctx, r)
	cancel()
	return err
}

// luckyChecker builds the remote check answering whether a name is lucky.
func luckyChecker(ctx context.Context, cfg appConfig) (validator.RemoteChecker, func(context.Context) error, func(), error) {
	switch cfg.LuckyBackend {
	case "http":
		return remotecheck.NewHTTP(cfg.LuckyURL, remotecheck.WithParam("name")), nil, func() {}, nil
	case "redis":
		var rcfg redis.Config
		if err := config.Load(&rcfg); err != nil {
			return nil, nil, nil, err
		}
		client, err := redis.Connect(ctx, rcfg)
		if err != nil {
			return nil, nil, nil, err
		}
		return remotecheck.NewRedisSet(client, cfg.LuckyRedisKey), redis.Healthcheck(client), func() { _ = client.Close() }, nil
	}
	return nil, nil, nil, fmt.Errorf("%w: LUCKY_BACKEND=%q", errUnknownBackend, cfg.LuckyBackend)
}

// submitAction builds the sink valid signups are delivered to. Persisting
// sinks receive a bcrypt hash instead of the password and no confirmation.
func submitAction(ctx context.Context, cfg appConfig, log *slog.Logger) (form.Action, func(context.Context) error, func(), error) {
	switch cfg.SubmitBackend {
	case "http":
		return submit.NewHTTP(cfg.SubmitURL), nil, func() {}, nil
	case "postgres":
		var pcfg pg.Config
		if err := config.Load(&pcfg); err != nil {
			return nil, nil, nil, err
		}
		pool, err := pg.Connect(ctx, pcfg)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := submit.Migrate(ctx, pool, pcfg, log); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		action := submit.HashFields(submit.NewPostgres(pool, signup.Name), signup.SecretFields(), signup.TransientFields()...)
		return action, pg.Healthcheck(pool), pool.Close, nil
	case "mongo":
		var mcfg mongo.Config
		if err := config.Load(&mcfg); err != nil {
			return nil, nil, nil, err
		}
		client, err := mongo.New(ctx, mcfg)
		if err != nil {
			return nil, nil, nil, err
		}
		coll := client.Database(mcfg.Database).Collection(mcfg.Collection)
		action := submit.HashFields(submit.NewMongo(coll, signup.Name), signup.SecretFields(), signup.TransientFields()...)
		return action, mongo.Healthcheck(client), func() { _ = client.Disconnect(context.Background()) }, nil
	}
	return nil, nil, nil, fmt.Errorf("%w: SUBMIT_BACKEND=%q", errUnknownBackend, cfg.SubmitBackend)
}
