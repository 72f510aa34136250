// Package httpserver runs the trigger HTTP server with graceful shutdown.
//
// Run binds the listener first, so an unusable address fails immediately
// with ErrStart, then serves until the context ends or SIGINT/SIGTERM arrives.
// In-flight requests get the shutdown timeout to finish, which matters here
// because a request may be waiting on a Graph upload.
//
//	srv := httpserver.NewFromConfig(cfg, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//	    return err
//	}
//
// HealthCheckHandler serves liveness (no checks) and readiness (with checks)
// endpoints.
package httpserver
