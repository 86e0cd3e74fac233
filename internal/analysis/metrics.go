package analysis

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Labels stay low-cardinality: no session or request ids.
var (
	attemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fitpose",
		Name:      "analysis_attempts_total",
		Help:      "Analysis attempts by outcome (succeeded, validation, transport, service).",
	}, []string{"outcome"})

	supersededTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fitpose",
		Name:      "analysis_superseded_total",
		Help:      "In-flight analyses cancelled by a newer selection, a reset or shutdown.",
	})

	staleResponsesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fitpose",
		Name:      "analysis_stale_responses_total",
		Help:      "Completed analyses discarded because a newer request had started.",
	})

	inflight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fitpose",
		Name:      "analysis_inflight",
		Help:      "Analyses currently waiting on the analysis service.",
	})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fitpose",
		Name:      "analysis_request_duration_seconds",
		Help:      "Round-trip time of analysis requests.",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
	}, []string{"outcome"})
)

func outcomeLabel(err *Error) string {
	if err == nil {
		return "succeeded"
	}
	return string(err.Kind)
}
