// Package metrics exposes Prometheus instrumentation for runs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vk/gridrun/internal/runner"
)

// Collector owns the process metrics. Every instrument lives in a private
// registry so tests and embedded apps never collide on global state.
type Collector struct {
	registry *prometheus.Registry

	runsTotal    *prometheus.CounterVec
	cellsTotal   *prometheus.CounterVec
	stepDuration *prometheus.HistogramVec
	runDuration  prometheus.Histogram
}

// NewCollector creates a collector with all instruments registered.
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Collector{
		registry: registry,
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridrun",
			Name:      "runs_total",
			Help:      "Completed runs by aggregate status.",
		}, []string{"status"}),
		cellsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gridrun",
			Name:      "cells_total",
			Help:      "Completed cells by status.",
		}, []string{"status"}),
		stepDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gridrun",
			Name:      "step_duration_seconds",
			Help:      "Wall time of executed steps.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"step", "status"}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gridrun",
			Name:      "run_duration_seconds",
			Help:      "Wall time of whole runs.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}

// ObserveRun records one finished run.
func (c *Collector) ObserveRun(res *runner.Result) {
	c.runsTotal.WithLabelValues(string(res.Status)).Inc()
	c.runDuration.Observe(res.Duration.Seconds())

	for _, cell := range res.Cells {
		c.cellsTotal.WithLabelValues(string(cell.Status)).Inc()
		for _, step := range cell.Steps {
			// Skipped steps never ran, so they have no duration to record.
			if step.Status == runner.StatusSkipped {
				continue
			}
			c.stepDuration.WithLabelValues(step.Name, string(step.Status)).Observe(step.Duration.Seconds())
		}
	}
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
