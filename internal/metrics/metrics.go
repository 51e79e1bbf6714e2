// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics declares the Prometheus collectors for reason-search.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Research run metrics
	RunsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reason_search_runs_started_total",
			Help: "Total number of research runs started",
		},
		[]string{"depth"},
	)

	RunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reason_search_runs_completed_total",
			Help: "Total number of research runs finished",
		},
		[]string{"depth", "status"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reason_search_run_duration_seconds",
			Help:    "Research run duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"depth"},
	)

	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reason_search_step_duration_seconds",
			Help:    "Duration of a single research step in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// Provider metrics
	ProviderCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reason_search_provider_calls_total",
			Help: "Total number of calls to external providers",
		},
		[]string{"provider", "status"},
	)

	ProviderLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reason_search_provider_latency_seconds",
			Help:    "External provider call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reason_search_cache_lookups_total",
			Help: "Provider cache lookups by outcome",
		},
		[]string{"provider", "result"},
	)

	// Quick search metrics
	DuplicatesRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reason_search_duplicates_removed_total",
			Help: "Results and images dropped by domain/URL deduplication",
		},
	)

	ImageProbes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reason_search_image_probes_total",
			Help: "Image URL validity probes by outcome",
		},
		[]string{"result"},
	)
)

// ObserveProviderCall records the outcome and latency of one provider call.
func ObserveProviderCall(provider string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	ProviderCalls.WithLabelValues(provider, status).Inc()
	ProviderLatency.WithLabelValues(provider).Observe(time.Since(start).Seconds())
}
