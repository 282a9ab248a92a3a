// Package httpserver runs the formkit HTTP API with graceful shutdown.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		return err
//	}
//
// Run blocks until ctx is cancelled or the process receives SIGINT or
// SIGTERM, then drains in-flight requests within the shutdown timeout.
// Open datastar streams end when their request contexts are cancelled.
//
// HealthCheckHandler serves liveness (no checks) and readiness (every check
// must pass) probes; pkg/pg, pkg/redis and pkg/mongo provide checks for the
// backends a deployment uses.
package httpserver
