// Package metrics provides Prometheus metrics for the risk API.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EvaluationsTotal counts completed evaluations by level and decision.
	EvaluationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gart",
			Name:      "evaluations_total",
			Help:      "Total number of risk evaluations",
		},
		[]string{"level", "decision"},
	)

	// FinalRisk observes the distribution of blended risk scores.
	FinalRisk = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "gart",
			Name:      "final_risk",
			Help:      "Distribution of final risk scores (0-100)",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	// EvaluationErrorsTotal counts evaluations that failed before producing
	// a decision (classifier or store errors).
	EvaluationErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gart",
			Name:      "evaluation_errors_total",
			Help:      "Total number of failed risk evaluations",
		},
	)

	// AlertsSentTotal counts SOC alert deliveries by outcome.
	AlertsSentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gart",
			Name:      "alerts_sent_total",
			Help:      "Total number of SOC alert deliveries",
		},
		[]string{"outcome"}, // delivered | failed
	)
)

// ObserveEvaluation records one completed evaluation.
func ObserveEvaluation(level, decision string, finalRisk int) {
	EvaluationsTotal.WithLabelValues(level, decision).Inc()
	FinalRisk.Observe(float64(finalRisk))
}
