// Package metrics holds the server's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// API metrics
	APIRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ideforge_api_requests_total",
			Help: "Total number of API requests by method, route and status",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ideforge_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// Workflow engine metrics
	WorkflowRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ideforge_workflow_runs_total",
			Help: "Workflow executions by flow and outcome",
		},
		[]string{"flow", "outcome"},
	)

	WorkflowDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ideforge_workflow_duration_seconds",
			Help:    "Workflow execution duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"flow"},
	)

	// Status sync metrics
	SyncRunsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ideforge_sync_runs_total",
			Help: "Total number of status sync passes",
		},
	)

	ProjectsTerminatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ideforge_projects_terminated_total",
			Help: "Projects moved to terminated, by reason",
		},
		[]string{"reason"},
	)

	SyncErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ideforge_sync_errors_total",
			Help: "Errors reported by status sync passes",
		},
	)

	// LLM metrics
	PlanRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ideforge_plan_requests_total",
			Help: "Plan generation requests by outcome",
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(APIRequestsTotal)
	prometheus.MustRegister(APIRequestDuration)
	prometheus.MustRegister(WorkflowRunsTotal)
	prometheus.MustRegister(WorkflowDuration)
	prometheus.MustRegister(SyncRunsTotal)
	prometheus.MustRegister(ProjectsTerminatedTotal)
	prometheus.MustRegister(SyncErrorsTotal)
	prometheus.MustRegister(PlanRequestsTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures an operation and feeds a histogram.
type Timer struct {
	start time.Time
}

func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time in seconds.
func (t *Timer) ObserveDuration(o prometheus.Observer) {
	o.Observe(t.Duration().Seconds())
}
