// Package metrics exposes the service's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProbesTotal counts dispatched checks by probe type and outcome
	// (success, fail, invalid, unsupported). Unrecognized caller types are
	// folded into type "OTHER" so the series set stays bounded.
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "netcheck_probes_total",
			Help: "Total number of probe requests processed",
		},
		[]string{"type", "outcome"},
	)

	// ProbeDuration tracks wall-clock probe time by probe type.
	ProbeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "netcheck_probe_duration_seconds",
			Help:    "Probe execution time in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	// RateLimitedTotal counts requests rejected with 429 by the per-IP
	// rate limiter.
	RateLimitedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "netcheck_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		},
	)
)
