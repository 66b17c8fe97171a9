package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	generationsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlforge_generations_total",
			Help: "Total number of SQL generation requests.",
		},
	)
	generationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlforge_generation_failures_total",
			Help: "Total number of SQL generations that failed at the completion endpoint.",
		},
	)
	executionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlforge_executions_total",
			Help: "Total number of SQL execution requests.",
		},
	)
	executionFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlforge_execution_failures_total",
			Help: "Total number of SQL executions rejected or failed by the engine.",
		},
	)
	suggestionFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sqlforge_suggestion_fallbacks_total",
			Help: "Total number of optimization suggestions replaced by a fallback message.",
		},
	)
	completionLatencySeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqlforge_completion_latency_seconds",
			Help:    "Observed completion endpoint round-trip latency.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30},
		},
	)
	executionDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqlforge_execution_duration_seconds",
			Help:    "Statement execution duration against the target engine.",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)
)

func init() {
	prometheus.MustRegister(
		generationsTotal,
		generationFailuresTotal,
		executionsTotal,
		executionFailuresTotal,
		suggestionFallbacksTotal,
		completionLatencySeconds,
		executionDurationSeconds,
	)
}

func IncrementGenerations() { generationsTotal.Inc() }

func IncrementGenerationFailures() { generationFailuresTotal.Inc() }

func IncrementExecutions() { executionsTotal.Inc() }

func IncrementExecutionFailures() { executionFailuresTotal.Inc() }

func IncrementSuggestionFallbacks() { suggestionFallbacksTotal.Inc() }

func ObserveCompletionLatency(elapsed time.Duration) {
	completionLatencySeconds.Observe(elapsed.Seconds())
}

func ObserveExecutionDuration(elapsed time.Duration) {
	executionDurationSeconds.Observe(elapsed.Seconds())
}
