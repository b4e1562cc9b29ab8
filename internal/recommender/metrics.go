package recommender

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// recommendations tracks recommendation requests by outcome.
	recommendations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommender_requests_total",
		Help: "Total number of recommendation requests by outcome",
	}, []string{"outcome"}) // outcome: found, no_suitable_store, invalid, error

	// operationDuration tracks the time taken by engine operations.
	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recommender_operation_duration_seconds",
		Help:    "Time taken by engine operations by type",
		Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1, 2, 5},
	}, []string{"operation"}) // operation: recommend, compare, nearby

	// listSize tracks the distribution of shopping list sizes.
	listSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommender_shopping_list_items_count",
		Help:    "Number of distinct items in recommendation requests",
		Buckets: []float64{1, 5, 10, 20, 50, 100},
	})

	// candidateCount tracks the number of stores inside the radius.
	candidateCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommender_candidate_stores_count",
		Help:    "Number of candidate stores within the travel radius",
		Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 500},
	})

	// storeEvaluations tracks per-store feasibility results.
	storeEvaluations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommender_store_evaluations_total",
		Help: "Candidate store evaluations by result",
	}, []string{"result"}) // result: feasible, unpriced, timeout, lookup_error

	// catalogCalls tracks catalog latency by call.
	catalogCalls = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "recommender_catalog_call_duration_seconds",
		Help:    "Catalog call latency by method",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
	}, []string{"method"})

	// catalogErrors tracks catalog call failures.
	catalogErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "recommender_catalog_errors_total",
		Help: "Catalog call failures by method",
	}, []string{"method"})

	// winnerDistance tracks how far the recommended store is from the user.
	winnerDistance = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "recommender_recommended_store_distance_km",
		Help:    "Distance to the recommended store in kilometers",
		Buckets: []float64{0.5, 1, 2, 5, 10, 25, 50},
	})

	// breakerState exposes the catalog circuit breaker state.
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "recommender_circuit_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 open, 2 half-open)",
	}, []string{"name"})
)

// MetricsRecorder provides methods to record engine metrics.
// A nil recorder is valid and records into the default registry.
type MetricsRecorder struct{}

// NewMetricsRecorder creates a new metrics recorder.
func NewMetricsRecorder() *MetricsRecorder {
	return &MetricsRecorder{}
}

// RecordRecommendation records the outcome of a recommendation request.
func (m *MetricsRecorder) RecordRecommendation(outcome string) {
	recommendations.WithLabelValues(outcome).Inc()
}

// RecordOperationDuration records the duration of an engine operation.
func (m *MetricsRecorder) RecordOperationDuration(operation string, duration time.Duration) {
	operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordListSize records the size of a shopping list.
func (m *MetricsRecorder) RecordListSize(size int) {
	listSize.Observe(float64(size))
}

// RecordCandidateCount records the number of candidate stores.
func (m *MetricsRecorder) RecordCandidateCount(count int) {
	candidateCount.Observe(float64(count))
}

// RecordStoreEvaluation records one candidate store result.
func (m *MetricsRecorder) RecordStoreEvaluation(result string) {
	storeEvaluations.WithLabelValues(result).Inc()
}

// RecordCatalogCall records a catalog call.
func (m *MetricsRecorder) RecordCatalogCall(method string, duration time.Duration, err error) {
	catalogCalls.WithLabelValues(method).Observe(duration.Seconds())
	if err != nil {
		catalogErrors.WithLabelValues(method).Inc()
	}
}

// RecordWinnerDistance records the distance to the recommended store.
func (m *MetricsRecorder) RecordWinnerDistance(distanceKm float64) {
	winnerDistance.Observe(distanceKm)
}

// RecordBreakerState records a circuit breaker transition.
func (m *MetricsRecorder) RecordBreakerState(name string, state CircuitBreakerState) {
	breakerState.WithLabelValues(name).Set(float64(state))
}
