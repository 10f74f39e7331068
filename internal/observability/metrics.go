package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registerOnce         sync.Once
	apiRequestsTotal     *prometheus.CounterVec
	apiLatencySeconds    *prometheus.HistogramVec
	apiErrorsTotal       *prometheus.CounterVec
	answersGradedTotal   *prometheus.CounterVec
	judgeFallbacksTotal  prometheus.Counter
	assessmentsCompleted *prometheus.CounterVec
	masteryTransitions   *prometheus.CounterVec
	masteryEventsTotal   *prometheus.CounterVec
	statusCacheLookups   *prometheus.CounterVec
)

// RegisterMetrics initialises the Prometheus collectors used by the API.
func RegisterMetrics() {
	registerOnce.Do(func() {
		apiRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests served.",
		}, []string{"method", "route", "status"})

		apiLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "api_latency_seconds",
			Help:    "Latency distribution for API requests.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 5.0},
		}, []string{"method", "route"})

		apiErrorsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_errors_total",
			Help: "Total number of error responses returned by API endpoints.",
		}, []string{"method", "route", "status"})

		answersGradedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "answers_graded_total",
			Help: "Answers graded, partitioned by question type and verdict.",
		}, []string{"question_type", "correct"})

		judgeFallbacksTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "short_answer_judge_fallbacks_total",
			Help: "Short answers graded by substring fallback because the judge was unavailable.",
		})

		assessmentsCompleted = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assessments_completed_total",
			Help: "Completed assessments, partitioned by clean pass verdict.",
		}, []string{"clean_pass"})

		masteryTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mastery_transitions_total",
			Help: "Progress level changes made by mastery evaluation.",
		}, []string{"level"})

		masteryEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mastery_events_published_total",
			Help: "Mastery events published, partitioned by transport and outcome.",
		}, []string{"transport", "status"})

		statusCacheLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mastery_status_cache_lookups_total",
			Help: "Mastery status cache lookups, partitioned by result.",
		}, []string{"result"})

		prometheus.MustRegister(
			apiRequestsTotal,
			apiLatencySeconds,
			apiErrorsTotal,
			answersGradedTotal,
			judgeFallbacksTotal,
			assessmentsCompleted,
			masteryTransitions,
			masteryEventsTotal,
			statusCacheLookups,
		)
	})
}

// APIRequests exposes the counter for API requests.
func APIRequests() *prometheus.CounterVec {
	RegisterMetrics()
	return apiRequestsTotal
}

// APILatency exposes the latency histogram for API requests.
func APILatency() *prometheus.HistogramVec {
	RegisterMetrics()
	return apiLatencySeconds
}

// APIErrors exposes the counter for API error responses.
func APIErrors() *prometheus.CounterVec {
	RegisterMetrics()
	return apiErrorsTotal
}

// AnswersGraded exposes the grading verdict counter.
func AnswersGraded() *prometheus.CounterVec {
	RegisterMetrics()
	return answersGradedTotal
}

// JudgeFallbacks exposes the counter of substring fallbacks.
func JudgeFallbacks() prometheus.Counter {
	RegisterMetrics()
	return judgeFallbacksTotal
}

// AssessmentsCompleted exposes the completion counter.
func AssessmentsCompleted() *prometheus.CounterVec {
	RegisterMetrics()
	return assessmentsCompleted
}

// MasteryTransitions exposes the mastery level change counter.
func MasteryTransitions() *prometheus.CounterVec {
	RegisterMetrics()
	return masteryTransitions
}

// MasteryEventsPublished exposes the event publishing counter.
func MasteryEventsPublished() *prometheus.CounterVec {
	RegisterMetrics()
	return masteryEventsTotal
}

// StatusCacheLookups exposes the status cache hit/miss counter.
func StatusCacheLookups() *prometheus.CounterVec {
	RegisterMetrics()
	return statusCacheLookups
}
