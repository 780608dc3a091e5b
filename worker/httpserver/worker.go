// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package httpserver runs the HTTP front end of the AAA configuration
// service as a worker.
package httpserver

import (
	"context"
	stdlog "log"
	"net"
	"net/http"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"gopkg.in/tomb.v2"
)

var logger = loggo.GetLogger("aaacfg.worker.httpserver")

// ConnectionStopper force-closes connections that outlive a plain
// HTTP shutdown, such as hijacked websocket connections.
type ConnectionStopper interface {
	Stop()
}

// Config holds the information needed to run an HTTP server worker.
type Config struct {
	// Addr is the address to listen on, for example ":17940".
	// A port of zero picks a free one; Addr reports the result.
	Addr string

	// Handler serves every request.
	Handler http.Handler

	// Stopper, if set, is stopped once the worker starts dying, so
	// long-lived connections do not hold the shutdown up.
	Stopper ConnectionStopper

	// Clock times the shutdown grace period.
	Clock clock.Clock

	// ShutdownTimeout bounds how long in-flight requests may take
	// once the worker starts dying.
	ShutdownTimeout time.Duration
}

// Validate validates the configuration.
func (cfg Config) Validate() error {
	if cfg.Addr == "" {
		return errors.NotValidf("empty Addr")
	}
	if cfg.Handler == nil {
		return errors.NotValidf("nil Handler")
	}
	if cfg.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if cfg.ShutdownTimeout <= 0 {
		return errors.NotValidf("non-positive ShutdownTimeout")
	}
	return nil
}

// Worker serves HTTP requests until killed.
type Worker struct {
	tomb     tomb.Tomb
	config   Config
	listener net.Listener
}

// NewWorker starts an HTTP server worker listening on config.Addr.
func NewWorker(config Config) (*Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	listener, err := net.Listen("tcp", config.Addr)
	if err != nil {
		return nil, errors.Annotatef(err, "listening on %q", config.Addr)
	}
	w := &Worker{
		config:   config,
		listener: listener,
	}
	w.tomb.Go(w.loop)
	return w, nil
}

// Kill implements the worker.Worker interface.
func (w *Worker) Kill() {
	w.tomb.Kill(nil)
}

// Wait implements the worker.Worker interface.
func (w *Worker) Wait() error {
	return w.tomb.Wait()
}

// Addr reports the address the server is listening on. With a
// configured port of zero this names the port actually bound.
func (w *Worker) Addr() string {
	return w.listener.Addr().String()
}

func (w *Worker) loop() error {
	server := &http.Server{
		Handler: w.config.Handler,
		ErrorLog: stdlog.New(&loggoWrapper{
			logger: logger,
			level:  loggo.WARNING,
		}, "", 0),
	}

	served := make(chan error, 1)
	go func() {
		logger.Infof("serving on %q", w.listener.Addr())
		served <- server.Serve(w.listener)
	}()

	select {
	case err := <-served:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Trace(err)
	case <-w.tomb.Dying():
	}

	if w.config.Stopper != nil {
		w.config.Stopper.Stop()
	}

	// Give in-flight requests the grace period, then pull the plug.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-w.config.Clock.After(w.config.ShutdownTimeout):
			cancel()
		case <-ctx.Done():
		}
	}()
	if err := server.Shutdown(ctx); err != nil {
		logger.Warningf("shutting down HTTP server: %v", err)
		_ = server.Close()
	}
	return tomb.ErrDying
}

// loggoWrapper lets the HTTP server's error log speak through loggo.
type loggoWrapper struct {
	logger loggo.Logger
	level  loggo.Level
}

func (w *loggoWrapper) Write(content []byte) (int, error) {
	w.logger.Logf(w.level, "%s", string(content))
	return len(content), nil
}
