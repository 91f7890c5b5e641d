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

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	GenerationStageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_stage_duration_seconds",
			Help:    "Duration of remote generation stages in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 20, 40, 60, 90, 120},
		},
		[]string{"stage", "outcome"},
	)

	EnhancementFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "generation_enhancement_fallbacks_total",
			Help: "Total number of enhancement results produced by the local fallback",
		},
	)

	PipelineRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_pipeline_runs_total",
			Help: "Total number of generation pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	AnalyticsEventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_events_delivered_total",
			Help: "Total number of analytics events delivered per sink",
		},
		[]string{"sink"},
	)

	AnalyticsEventsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_events_failed_total",
			Help: "Total number of analytics deliveries that failed per sink",
		},
		[]string{"sink"},
	)

	AnalyticsEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "analytics_events_dropped_total",
			Help: "Total number of analytics events dropped because the queue was full or closed",
		},
	)
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeTimeout = "timeout"
)
