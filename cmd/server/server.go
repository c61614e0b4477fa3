package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// startHTTPServer serves router on the configured port until ctx is done,
// then shuts down gracefully within the configured timeout.
func (app *application) startHTTPServer(ctx context.Context, router http.Handler) error {
	srvCfg := app.config.Server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", srvCfg.Port),
		Handler:      router,
		ReadTimeout:  srvCfg.ReadTimeout(),
		WriteTimeout: srvCfg.WriteTimeout(),
		IdleTimeout:  srvCfg.IdleTimeout(),
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("Starting server", "port", srvCfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	app.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout())
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	app.logger.Info("Server exited properly")
	return nil
}
