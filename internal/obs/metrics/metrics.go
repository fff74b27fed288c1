// Package metrics declares the Prometheus instruments the worker
// pipelines and crawlerctl's /metrics endpoint expose, alongside the
// HTTP-substrate-specific counters already registered by
// internal/httpx/sslpolicy.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CandidatesDiscoveredTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crawl_candidates_discovered_total",
		Help: "Count of crawl candidates surfaced by a discovery job, by source.",
	}, []string{"source"})

	CandidatesExtractedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crawl_candidates_extracted_total",
		Help: "Count of crawl candidates that ran through the extraction pipeline, by classifier outcome.",
	}, []string{"outcome"})

	ProceduresPersistedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "procedures_persisted_total",
		Help: "Count of procedures written to the store.",
	})

	ReviewRecommendedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "review_recommended_total",
		Help: "Count of procedures flagged for manual review.",
	})

	JobDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "worker_job_duration_seconds",
		Help:    "Wall-clock duration of one discovery or extraction job.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job_type"})

	JobFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "worker_job_failures_total",
		Help: "Count of jobs that ended in an error status, by job type.",
	}, []string{"job_type"})

	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "queue_depth",
		Help: "Number of jobs currently waiting in the work queue.",
	})
)

func init() {
	prometheus.MustRegister(
		CandidatesDiscoveredTotal,
		CandidatesExtractedTotal,
		ProceduresPersistedTotal,
		ReviewRecommendedTotal,
		JobDurationSeconds,
		JobFailuresTotal,
		QueueDepth,
	)
}
