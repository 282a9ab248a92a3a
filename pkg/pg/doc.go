// Package pg connects to PostgreSQL with pgx/v5 and applies goose
// migrations from an embedded filesystem.
//
// The submission store in pkg/submit uses it to open its pool and create
// the form_submissions table:
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := submit.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//
// Healthcheck returns a probe suitable for a readiness endpoint.
// IsDuplicateKeyError and IsConnectionError classify driver errors so that
// callers can map them to their own failure kinds.
package pg
