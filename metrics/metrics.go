package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Counts calibrations by construction mode and outcome.
	CalibrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curvekit_calibrations_total",
			Help: "Total number of curve calibrations (by mode and result).",
		},
		[]string{"mode", "result"}, // result = "ok" | "error"
	)

	CalibrationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curvekit_calibration_duration_seconds",
			Help:    "Wall time of a single curve calibration in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms → ~3s
		},
		[]string{"mode"},
	)

	// Root-search iterations per bootstrap, optimizer iterations per differentiable fit.
	SolverIterations = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curvekit_solver_iterations",
			Help:    "Solver iterations spent per calibration.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		},
		[]string{"mode"},
	)

	RegistryLinksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "curvekit_registry_links_total",
			Help: "Number of curves linked into a registry slot.",
		},
	)
)

// ObserveCalibration records one finished calibration.
func ObserveCalibration(mode string, start time.Time, iterations int, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	CalibrationsTotal.WithLabelValues(mode, result).Inc()
	CalibrationDuration.WithLabelValues(mode).Observe(time.Since(start).Seconds())
	if err == nil {
		SolverIterations.WithLabelValues(mode).Observe(float64(iterations))
	}
}

func IncLink() {
	RegistryLinksTotal.Inc()
}
