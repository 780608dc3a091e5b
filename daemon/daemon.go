// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package daemon

import (
	"context"
	"database/sql"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/juju/pubsub/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/canonical/aaacfg/apiserver"
	"github.com/canonical/aaacfg/domain/aaa/service"
	"github.com/canonical/aaacfg/domain/aaa/state"
	"github.com/canonical/aaacfg/internal/database"
	"github.com/canonical/aaacfg/worker/httpserver"
)

// Server is the assembled aaacfgd process: SQLite store, domain
// service, API routing and the HTTP worker serving it all.
type Server struct {
	db     *sql.DB
	worker *httpserver.Worker
}

// NewServer builds the full stack from cfg and starts serving.
func NewServer(ctx context.Context, cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}

	db, err := database.Open(cfg.DBPath())
	if err != nil {
		return nil, errors.Trace(err)
	}
	runner := database.NewTxnRunner(db, clock.WallClock)
	if err := database.EnsureSchema(ctx, runner); err != nil {
		_ = db.Close()
		return nil, errors.Annotate(err, "preparing database schema")
	}

	hub := pubsub.NewSimpleHub(&pubsub.SimpleHubConfig{
		Logger: loggo.GetLogger("aaacfg.hub"),
	})
	metrics := apiserver.NewMetricsCollector()
	var gatherer prometheus.Gatherer
	if cfg.MetricsEnabled() {
		registry := prometheus.NewRegistry()
		if err := registry.Register(metrics); err != nil {
			_ = db.Close()
			return nil, errors.Annotate(err, "registering metrics")
		}
		gatherer = registry
	}

	svc := service.NewService(state.NewState(runner), hub, metrics)

	// Surface a broken store at startup, not on the first request.
	stored, err := svc.Config(ctx)
	if err != nil {
		_ = db.Close()
		return nil, errors.Annotate(err, "reading stored configuration")
	}
	logger.Debugf("effective AAA configuration: %+v", stored)

	srv, err := apiserver.NewServer(apiserver.Config{
		Service:  svc,
		Metrics:  metrics,
		Registry: gatherer,
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Trace(err)
	}

	w, err := httpserver.NewWorker(httpserver.Config{
		Addr:            cfg.HTTPAddr(),
		Handler:         srv,
		Stopper:         srv,
		Clock:           clock.WallClock,
		ShutdownTimeout: cfg.ShutdownTimeout(),
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.Trace(err)
	}
	return &Server{db: db, worker: w}, nil
}

// Addr reports the address the HTTP API is listening on.
func (s *Server) Addr() string {
	return s.worker.Addr()
}

// Kill implements the worker.Worker interface.
func (s *Server) Kill() {
	s.worker.Kill()
}

// Wait implements the worker.Worker interface, releasing the database
// once the HTTP worker has stopped.
func (s *Server) Wait() error {
	err := s.worker.Wait()
	if closeErr := s.db.Close(); closeErr != nil {
		logger.Warningf("closing database: %v", closeErr)
	}
	return errors.Trace(err)
}
