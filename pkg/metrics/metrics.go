// Package metrics defines the Prometheus instrumentation for the execution
// engine and the timeout scheduler.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every collector the engine and scheduler report into.
type Metrics struct {
	registry *prometheus.Registry

	ExecutionsStarted   *prometheus.CounterVec
	ExecutionsCompleted *prometheus.CounterVec
	ExecutionsFailed    *prometheus.CounterVec
	ExecutionsExpired   *prometheus.CounterVec
	ExecutionsResumed   *prometheus.CounterVec
	NodesExecuted       *prometheus.CounterVec
	NodeDuration        *prometheus.HistogramVec
	TransitionConflicts prometheus.Counter
	WaitingExecutions   prometheus.Gauge
	SchedulerSweeps     prometheus.Counter
}

// New creates the collectors on a fresh registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: registry,
		ExecutionsStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zapflow_executions_started_total",
			Help: "Executions started, by workflow id.",
		}, []string{"workflow_id"}),
		ExecutionsCompleted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zapflow_executions_completed_total",
			Help: "Executions reaching COMPLETED, by workflow id.",
		}, []string{"workflow_id"}),
		ExecutionsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zapflow_executions_failed_total",
			Help: "Executions reaching ERROR, by workflow id.",
		}, []string{"workflow_id"}),
		ExecutionsExpired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zapflow_executions_expired_total",
			Help: "Executions reaching EXPIRED, by workflow id.",
		}, []string{"workflow_id"}),
		ExecutionsResumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zapflow_executions_resumed_total",
			Help: "WAITING executions resumed, by workflow id.",
		}, []string{"workflow_id"}),
		NodesExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "zapflow_nodes_executed_total",
			Help: "Node executions, by node type and result.",
		}, []string{"node_type", "result"}),
		NodeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "zapflow_node_duration_seconds",
			Help:    "Node execution duration, by node type.",
			Buckets: prometheus.DefBuckets,
		}, []string{"node_type"}),
		TransitionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zapflow_transition_conflicts_total",
			Help: "Benign losers of resume/expire races.",
		}),
		WaitingExecutions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "zapflow_waiting_executions",
			Help: "Executions currently parked as WAITING.",
		}),
		SchedulerSweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "zapflow_scheduler_sweeps_total",
			Help: "Deadline sweeps performed by the timeout scheduler.",
		}),
	}

	registry.MustRegister(
		m.ExecutionsStarted,
		m.ExecutionsCompleted,
		m.ExecutionsFailed,
		m.ExecutionsExpired,
		m.ExecutionsResumed,
		m.NodesExecuted,
		m.NodeDuration,
		m.TransitionConflicts,
		m.WaitingExecutions,
		m.SchedulerSweeps,
	)

	return m
}

// Handler returns the scrape endpoint handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
