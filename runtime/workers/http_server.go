package workers

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// HTTPServerWorker serves HTTP on an already bound listener and shuts the
// server down when its context is canceled.
//
// A serving failure is not retried: the listener is gone, so it is reported
// on the errs channel and the worker ends.
type HTTPServerWorker struct {
	log             *slog.Logger
	server          *http.Server
	listener        net.Listener
	shutdownTimeout time.Duration
	errs            chan<- error
}

func NewHTTPServerWorker(log *slog.Logger, server *http.Server, listener net.Listener, shutdownTimeout time.Duration, errs chan<- error) *HTTPServerWorker {
	return &HTTPServerWorker{
		log:             log,
		server:          server,
		listener:        listener,
		shutdownTimeout: shutdownTimeout,
		errs:            errs,
	}
}

func (w *HTTPServerWorker) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	go func() {
		w.log.Info("Starting HTTP server", "address", w.listener.Addr().String(), "at", time.Now().UTC())
		serveErr <- w.server.Serve(w.listener)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			w.errs <- err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.shutdownTimeout)
	defer cancel()
	if err := w.server.Shutdown(shutdownCtx); err != nil {
		w.log.Warn("HTTP server shutdown incomplete", "error", err)
	}
	w.log.Info("HTTP server stopped")
	return ctx.Err()
}
