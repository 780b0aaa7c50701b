package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation outcomes.
const (
	outcomeOK       = "ok"
	outcomeRejected = "rejected"
	outcomeError    = "error"
)

// Hydration results.
const (
	hydrateLoaded  = "loaded"
	hydrateEmpty   = "empty"
	hydrateInvalid = "invalid"
	hydrateError   = "error"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_store_operations_total",
			Help: "Store mutations by store, operation and outcome.",
		},
		[]string{"store", "op", "outcome"},
	)

	hydrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_store_hydrations_total",
			Help: "Store hydrations by store and result.",
		},
		[]string{"store", "result"},
	)
)
