// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package apiserver routes the AAA configuration REST API. It is a
// plain http.Handler; serving it and tearing it down is the HTTP
// server worker's business.
package apiserver

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/bmizerany/pat"
	"github.com/gorilla/websocket"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/canonical/aaacfg/core/aaa"
	"github.com/canonical/aaacfg/domain/aaa/service"
)

var logger = loggo.GetLogger("aaacfg.apiserver")

// AAAService is the slice of the AAA service the handlers drive.
type AAAService interface {
	ConfigView(ctx context.Context) ([]service.SectionView, error)
	SectionConfig(ctx context.Context, section aaa.Section) (service.SectionView, error)
	UpdateSection(ctx context.Context, update aaa.SectionUpdate) error
	ResetSection(ctx context.Context, section aaa.Section) error
	WatchChanges(fn func(service.ChangeEvent)) func()
}

// Config holds the dependencies of a Server. The Collector must be
// registered with the Gatherer by the caller; the server only records
// observations and serves the exposition. A nil Registry leaves the
// metrics endpoint unregistered.
type Config struct {
	Service  AAAService
	Metrics  *Collector
	Registry prometheus.Gatherer
}

// Validate checks the config for obvious problems.
func (c Config) Validate() error {
	if c.Service == nil {
		return errors.NotValidf("nil Service")
	}
	if c.Metrics == nil {
		return errors.NotValidf("nil Metrics")
	}
	return nil
}

// FailableHandlerFunc is an HTTP handler that reports failure to the
// surrounding endpoint wrapper instead of rendering it itself.
type FailableHandlerFunc func(http.ResponseWriter, *http.Request) error

// Server dispatches the AAA configuration endpoints.
type Server struct {
	mux     *pat.PatternServeMux
	service AAAService
	metrics *Collector

	mu      sync.Mutex
	stopped bool
	conns   map[*websocket.Conn]struct{}
}

// NewServer returns a Server routing the v1 API.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	srv := &Server{
		mux:     pat.New(),
		service: cfg.Service,
		metrics: cfg.Metrics,
		conns:   make(map[*websocket.Conn]struct{}),
	}

	// The watch route must be registered before the :section routes,
	// pat dispatches to the first match.
	srv.mux.Get("/v1/aaa/watch", http.HandlerFunc(srv.handleWatch))
	srv.mux.Get("/v1/aaa", srv.endpoint("config", srv.handleConfig))
	srv.mux.Get("/v1/aaa/:section", srv.endpoint("section", srv.handleSection))
	srv.mux.Add("PATCH", "/v1/aaa/:section", srv.endpoint("update", srv.handleUpdate))
	srv.mux.Del("/v1/aaa/:section", srv.endpoint("reset", srv.handleReset))
	if cfg.Registry != nil {
		srv.mux.Get("/metrics", promhttp.HandlerFor(cfg.Registry, promhttp.HandlerOpts{}))
	}
	srv.mux.NotFound = srv.endpoint("notfound", func(w http.ResponseWriter, r *http.Request) error {
		return errors.NotFoundf("%s %s", r.Method, r.URL.Path)
	})
	return srv, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Stop force-closes the long lived watch connections that a plain
// HTTP shutdown cannot reach, and refuses new ones. The ordinary
// endpoints keep working; draining them is the HTTP server's job.
func (s *Server) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.conns = make(map[*websocket.Conn]struct{})
}

func (s *Server) trackConn(conn *websocket.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) forgetConn(conn *websocket.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, conn)
}

// endpoint wraps a failable handler with error rendering and request
// instrumentation.
func (s *Server) endpoint(name string, h FailableHandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		if err := h(rec, r); err != nil {
			if err := sendJSONError(rec, r, err); err != nil {
				logger.Errorf("%v", errors.Annotate(err, "cannot return error to user"))
			}
		}
		s.metrics.ObserveRequest(name, rec.status, time.Since(start))
	})
}

// statusRecorder remembers the status code a handler wrote so the
// request can be labelled after the fact.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
