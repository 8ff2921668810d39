package metrics

import "github.com/prometheus/client_golang/prometheus"

// Lookup and batch Prometheus metrics.
var (
	LookupRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "termmap",
			Name:      "lookup_requests_total",
			Help:      "Total number of remote vocabulary lookup requests",
		},
		[]string{"system", "provider", "status"},
	)

	LookupRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "termmap",
			Name:      "lookup_request_duration_seconds",
			Help:      "Remote vocabulary lookup duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"system", "provider"},
	)

	LookupErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "termmap",
			Name:      "lookup_errors_total",
			Help:      "Total remote vocabulary lookup errors",
		},
		[]string{"system", "provider", "error_type"},
	)

	ResolveStageTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "termmap",
			Name:      "resolve_stage_total",
			Help:      "Pipeline stage outcomes per vocabulary system",
		},
		[]string{"system", "stage", "outcome"}, // outcome: "hit" / "miss"
	)

	BatchJobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "termmap",
			Name:      "batch_jobs_total",
			Help:      "Batch jobs by terminal status",
		},
		[]string{"status"},
	)

	BatchTermsProcessedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "termmap",
			Name:      "batch_terms_processed_total",
			Help:      "Terms processed across all batch jobs",
		},
	)

	ExtractedTermsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "termmap",
			Name:      "extracted_terms_total",
			Help:      "Terms extracted from clinical text by extractor kind",
		},
		[]string{"extractor"},
	)
)

var lookupMetricsRegistered bool

// RegisterLookupMetrics registers Prometheus lookup and batch metrics.
// Must be called once from main.
func RegisterLookupMetrics() {
	if lookupMetricsRegistered {
		return
	}
	prometheus.MustRegister(LookupRequestsTotal)
	prometheus.MustRegister(LookupRequestDuration)
	prometheus.MustRegister(LookupErrorsTotal)
	prometheus.MustRegister(ResolveStageTotal)
	prometheus.MustRegister(BatchJobsTotal)
	prometheus.MustRegister(BatchTermsProcessedTotal)
	prometheus.MustRegister(ExtractedTermsTotal)
	lookupMetricsRegistered = true
}
