// ABOUTME: Prometheus instrumentation for goal and progress operations.
// ABOUTME: Nil-safe so callers without a registry can skip metrics entirely.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterGoalsSet          prometheus.Counter
	CounterGoalsUpdated      prometheus.Counter
	CounterProgressRequests  prometheus.Counter
	CounterMilestonesReached *prometheus.CounterVec
	CounterStoreFailures     *prometheus.CounterVec

	// gauges
	GaugeOverallProgress prometheus.Gauge
}

func NewTestManager() *Manager {
	return NewManager("bodygoal", "test", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("bodygoal", "test", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	return &Manager{
		CounterGoalsSet: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "goals_set_total",
			Help:      "The total number of goals created",
		}),
		CounterGoalsUpdated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "goals_updated_total",
			Help:      "The total number of goal updates",
		}),
		CounterProgressRequests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "progress_requests_total",
			Help:      "The total number of computed progress reports",
		}),
		CounterMilestonesReached: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "milestones_reached_total",
			Help:      "Newly crossed milestones, by milestone",
		}, []string{"milestone"}),
		CounterStoreFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "store_failures_total",
			Help:      "Failed storage operations, by operation",
		}, []string{"op"}),
		GaugeOverallProgress: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "overall_progress_percent",
			Help:      "Overall progress of the most recently computed goal",
		}),
	}
}

func (m *Manager) GoalSet() {
	if m == nil {
		return
	}
	m.CounterGoalsSet.Inc()
}

func (m *Manager) GoalUpdated() {
	if m == nil {
		return
	}
	m.CounterGoalsUpdated.Inc()
}

func (m *Manager) ProgressComputed(overall float64) {
	if m == nil {
		return
	}
	m.CounterProgressRequests.Inc()
	m.GaugeOverallProgress.Set(overall)
}

func (m *Manager) MilestoneReached(name string) {
	if m == nil {
		return
	}
	m.CounterMilestonesReached.WithLabelValues(name).Inc()
}

func (m *Manager) StoreFailure(op string) {
	if m == nil {
		return
	}
	m.CounterStoreFailures.WithLabelValues(op).Inc()
}
