// Package metrics exposes Prometheus instrumentation for the engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ActionsTotal counts finished actions by outcome (ok, failed, busy, debounced).
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lmtray",
			Subsystem: "engine",
			Name:      "actions_total",
			Help:      "Total user actions by outcome",
		},
		[]string{"action", "result"},
	)

	// CommandAttempts counts individual command variants tried by the executor.
	CommandAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lmtray",
			Subsystem: "executor",
			Name:      "attempts_total",
			Help:      "Command variant attempts by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	// ProbeDuration observes full probe cycles.
	ProbeDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lmtray",
			Subsystem: "probe",
			Name:      "duration_seconds",
			Help:      "Duration of runtime probes in seconds",
			Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	// StatusLevel is the current status level (0 not installed .. 3 ready).
	StatusLevel = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lmtray",
			Subsystem: "engine",
			Name:      "status_level",
			Help:      "Current status level: 0 not installed, 1 stopped, 2 running without model, 3 ready",
		},
	)

	// RuntimeUp reports each runtime as 1 when running.
	RuntimeUp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lmtray",
			Subsystem: "engine",
			Name:      "runtime_up",
			Help:      "Whether a runtime is running",
		},
		[]string{"runtime"},
	)

	// UpdateAvailable is 1 when a newer release exists.
	UpdateAvailable = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "lmtray",
			Subsystem: "updater",
			Name:      "update_available",
			Help:      "Whether a newer release is available",
		},
	)
)

func init() {
	prometheus.MustRegister(ActionsTotal, CommandAttempts, ProbeDuration, StatusLevel, RuntimeUp, UpdateAvailable)
}

// BoolValue converts a flag into a gauge value.
func BoolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
