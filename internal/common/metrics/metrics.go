// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	// SearchTotal counts searches by outcome: matched, no_match, failed.
	SearchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_search_total",
			Help: "Complaint searches by outcome",
		},
		[]string{"outcome"},
	)

	SearchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "complaint_search_duration_seconds",
			Help:    "Duration of a complaint search",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		},
	)

	// Degradations counts collaborator failures the pipeline absorbed
	// (kind: morphology, similarity, catalog_stale).
	Degradations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "complaint_degradations_total",
			Help: "Collaborator failures absorbed by the matching pipeline",
		},
		[]string{"kind"},
	)

	CatalogEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_entries",
			Help: "Number of entries in the active catalog snapshot",
		},
	)

	CatalogReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_reloads_total",
			Help: "Catalog reload attempts by status",
		},
		[]string{"status"},
	)
)

const (
	DegradationMorphology   = "morphology"
	DegradationSimilarity   = "similarity"
	DegradationCatalogStale = "catalog_stale"
)
