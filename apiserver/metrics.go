// Copyright 2025 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package apiserver

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "aaacfg"

// Collector is a prometheus.Collector that collects metrics about the
// API server and the store mutations it applies.
type Collector struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	mutationsTotal  *prometheus.CounterVec
}

// NewMetricsCollector returns a new Collector.
func NewMetricsCollector() *Collector {
	return &Collector{
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "api_requests_total",
				Help:      "The number of API requests served, by handler and status code.",
			}, []string{"handler", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "api_request_duration_seconds",
				Help:      "The time taken to serve API requests, by handler.",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			}, []string{"handler"},
		),
		mutationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "store_mutations_total",
				Help:      "The number of field mutations applied to the AAA store, by operation.",
			}, []string{"op"},
		),
	}
}

// ObserveRequest records one served API request.
func (c *Collector) ObserveRequest(handler string, code int, elapsed time.Duration) {
	c.requestsTotal.WithLabelValues(handler, strconv.Itoa(code)).Inc()
	c.requestDuration.WithLabelValues(handler).Observe(elapsed.Seconds())
}

// MutationsApplied implements service.MetricsRecorder.
func (c *Collector) MutationsApplied(writes, deletes int) {
	if writes > 0 {
		c.mutationsTotal.WithLabelValues("write").Add(float64(writes))
	}
	if deletes > 0 {
		c.mutationsTotal.WithLabelValues("delete").Add(float64(deletes))
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.requestsTotal.Describe(ch)
	c.requestDuration.Describe(ch)
	c.mutationsTotal.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.requestsTotal.Collect(ch)
	c.requestDuration.Collect(ch)
	c.mutationsTotal.Collect(ch)
}
