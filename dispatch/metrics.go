package dispatch

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	acceptAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ride_accept_attempts_total",
			Help: "Total accept attempts by outcome",
		},
		[]string{"outcome"},
	)

	acceptDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ride_accept_duration_seconds",
			Help:    "Duration of a single accept arbitration",
			Buckets: prometheus.DefBuckets,
		},
	)

	completesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ride_completes_total",
			Help: "Total rides completed",
		},
	)
)

// RegisterMetrics registers the dispatch metrics with the given registry.
func RegisterMetrics(reg *prometheus.Registry) {
	reg.MustRegister(acceptAttemptsTotal, acceptDuration, completesTotal)
}

func observeAccept(err error, elapsed time.Duration) {
	acceptAttemptsTotal.WithLabelValues(acceptOutcome(err)).Inc()
	acceptDuration.Observe(elapsed.Seconds())
}

func acceptOutcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrRideNotFound):
		return "ride_not_found"
	case errors.Is(err, ErrRideNotAvailable):
		return "ride_not_available"
	case errors.Is(err, ErrDriverNotFound):
		return "driver_not_found"
	case errors.Is(err, ErrDriverNotAvailable):
		return "driver_not_available"
	case errors.Is(err, ErrLockConflict):
		return "lock_conflict"
	default:
		return "internal"
	}
}
