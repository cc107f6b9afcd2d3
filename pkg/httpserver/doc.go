// Package httpserver runs an http.Handler with graceful shutdown and
// background tasks bound to the server lifetime.
//
// Run blocks until the context is cancelled, SIGINT/SIGTERM arrives or the
// listener fails. Tasks registered with WithTask start after the listener is
// bound and receive a context that is cancelled when shutdown begins; Run
// waits for them before returning.
//
//	srv := httpserver.New(cfg,
//		httpserver.WithLogger(log),
//		httpserver.WithTask(httpserver.Every(time.Minute, purge)),
//	)
//	if err := srv.Run(ctx, router); err != nil {
//		log.Error("server stopped", logger.Error(err))
//	}
package httpserver
