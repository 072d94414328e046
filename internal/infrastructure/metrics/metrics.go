package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Pepper-server metrics
var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pepper",
			Subsystem: "server",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pepper",
			Subsystem: "server",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint", "status"},
	)

	TokensPromptTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pepper",
			Subsystem: "server",
			Name:      "tokens_prompt_total",
			Help:      "Total prompt tokens consumed",
		},
		[]string{"model", "provider"},
	)

	TokensCompletionTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pepper",
			Subsystem: "server",
			Name:      "tokens_completion_total",
			Help:      "Total completion tokens generated",
		},
		[]string{"model", "provider"},
	)

	ProviderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pepper",
			Subsystem: "server",
			Name:      "provider_errors_total",
			Help:      "Total provider call failures",
		},
		[]string{"provider", "error_kind"},
	)

	LLMDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "pepper",
			Subsystem: "server",
			Name:      "llm_duration_seconds",
			Help:      "LLM inference duration in seconds",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"model", "provider"},
	)

	ConversationsCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pepper",
			Subsystem: "server",
			Name:      "conversations_created_total",
			Help:      "Total conversations created",
		},
	)

	SettingSubstitutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "pepper",
			Subsystem: "server",
			Name:      "setting_substitutions_total",
			Help:      "Settings silently substituted to satisfy provider constraints",
		},
		[]string{"setting"},
	)

	PersistenceFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "pepper",
			Subsystem: "server",
			Name:      "persistence_failures_total",
			Help:      "Generated responses that could not be persisted",
		},
	)
)

// RecordRequest records an HTTP request with all relevant labels
func RecordRequest(method, endpoint, status string, durationSec float64) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint, status).Observe(durationSec)
}

// RecordTokens records token usage for a completion request
func RecordTokens(model, providerName string, promptTokens, completionTokens int) {
	TokensPromptTotal.WithLabelValues(model, providerName).Add(float64(promptTokens))
	TokensCompletionTotal.WithLabelValues(model, providerName).Add(float64(completionTokens))
}

// RecordLLMDuration records the duration of an LLM inference call
func RecordLLMDuration(model, providerName string, durationSec float64) {
	LLMDuration.WithLabelValues(model, providerName).Observe(durationSec)
}

// RecordProviderError records a provider error
func RecordProviderError(providerName, errorKind string) {
	ProviderErrorsTotal.WithLabelValues(providerName, errorKind).Inc()
}

// RecordSubstitution records a silently substituted setting
func RecordSubstitution(setting string) {
	SettingSubstitutionsTotal.WithLabelValues(setting).Inc()
}
