package apiclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	internal_errors "github.com/safespace-dev/safespace/internal/errors"
)

var (
	apiCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_client_calls_total",
			Help: "Total number of remote API calls by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	apiCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_client_call_duration_seconds",
			Help:    "Remote API call duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"op"},
	)
)

// observeCall records one call; outcome is "ok" or the error kind.
func observeCall(op string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = internal_errors.KindOf(err).String()
	}
	apiCallsTotal.WithLabelValues(op, outcome).Inc()
	apiCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
