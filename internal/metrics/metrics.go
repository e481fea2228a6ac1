// Package metrics exposes prometheus instrumentation for the
// classification pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ClassificationsTotal counts final classifications by winning layer
	// and action.
	ClassificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nothx_classifications_total",
			Help: "Final classifications produced, by layer and action",
		},
		[]string{"layer", "action"},
	)

	// ProtectedDowngradesTotal counts auto-actions downgraded to review by
	// the protected-category guard.
	ProtectedDowngradesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nothx_protected_downgrades_total",
			Help: "Unsub/block decisions downgraded to review on protected domains",
		},
	)

	// AIBatchesTotal counts AI provider batch round-trips.
	AIBatchesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "nothx_ai_batches_total",
			Help: "AI classification batches submitted to the provider",
		},
	)

	// AIFailuresTotal counts deferred AI batches by failure reason.
	AIFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nothx_ai_failures_total",
			Help: "AI batches deferred to the next layer, by reason",
		},
		[]string{"reason"},
	)

	// UnsubAttemptsTotal counts unsubscribe attempts by method and outcome.
	UnsubAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nothx_unsub_attempts_total",
			Help: "Unsubscribe attempts, by method and outcome",
		},
		[]string{"method", "outcome"},
	)
)
