package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PaymentsProcessed tracks processed payments by final submission outcome
	PaymentsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_payments_processed_total",
			Help: "Total number of payments processed by outcome",
		},
		[]string{"outcome"},
	)

	// SubmitAttempts tracks individual settlement submission attempts
	SubmitAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_submit_attempts_total",
			Help: "Total number of settlement submission attempts",
		},
		[]string{"provider", "outcome"},
	)

	// SubmitLatency tracks successful submission latency
	SubmitLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "relay_submit_latency_seconds",
			Help:    "Settlement submission latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	// ReconcilePasses tracks completed verifier reconciliation passes
	ReconcilePasses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_reconcile_passes_total",
			Help: "Total number of completed reconciliation passes",
		},
	)

	// Reconciled tracks chain-truth transitions applied by the verifier
	Reconciled = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_reconciled_total",
			Help: "Total number of payments reconciled by resulting status",
		},
		[]string{"status"},
	)

	// PendingPayments tracks the pending-set size seen by the last pass
	PendingPayments = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "relay_pending_payments",
			Help: "Payments not yet in a terminal state at the last reconciliation pass",
		},
	)
)
