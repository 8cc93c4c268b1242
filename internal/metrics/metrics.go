package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "volunteerhub"
)

var (
	// GateDecisionsTotal counts authentication and authorization gate outcomes
	GateDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Count of request gate decisions by outcome.",
	}, []string{"outcome"})

	// AccountOperationsTotal counts account service calls by operation and result kind
	AccountOperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "account_operations_total",
		Help:      "Count of account operations by result.",
	}, []string{"operation", "result"})

	// PasswordHashDuration observes time spent hashing and verifying passwords
	PasswordHashDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "password_hash_duration_seconds",
		Help:      "Time taken to hash or verify a password.",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"operation"})
)
