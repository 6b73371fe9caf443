package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shaiso/flowgen/internal/domain"
)

// Metrics — Prometheus метрики движка.
type Metrics struct {
	// NodeDuration — длительность выполнения узлов по типу и итоговому статусу.
	NodeDuration *prometheus.HistogramVec

	// RunsTotal — завершённые run по итоговому статусу.
	RunsTotal *prometheus.CounterVec

	// RunsActive — run в процессе выполнения.
	RunsActive prometheus.Gauge

	// RunsRejected — запуски, отклонённые из-за уже идущего run.
	RunsRejected prometheus.Counter
}

// NewMetrics регистрирует метрики в reg.
// nil означает prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		NodeDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flowgen_node_duration_seconds",
			Help:    "Node execution duration including simulated latency",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 0.75, 1, 2.5, 5, 10, 30},
		}, []string{"kind", "status"}),
		RunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "flowgen_runs_total",
			Help: "Finished workflow runs by status",
		}, []string{"status"}),
		RunsActive: f.NewGauge(prometheus.GaugeOpts{
			Name: "flowgen_runs_active",
			Help: "Workflow runs currently executing",
		}),
		RunsRejected: f.NewCounter(prometheus.CounterOpts{
			Name: "flowgen_runs_rejected_total",
			Help: "Runs rejected because another run was in progress",
		}),
	}
}

// ObserveNode записывает длительность выполнения узла.
// Безопасен для nil.
func (m *Metrics) ObserveNode(kind domain.NodeKind, status domain.NodeStatus, d time.Duration) {
	if m == nil {
		return
	}
	m.NodeDuration.WithLabelValues(string(kind), string(status)).Observe(d.Seconds())
}

// RunStarted увеличивает счётчик активных run.
func (m *Metrics) RunStarted() {
	if m == nil {
		return
	}
	m.RunsActive.Inc()
}

// RunFinished фиксирует завершение run.
func (m *Metrics) RunFinished(status domain.RunStatus) {
	if m == nil {
		return
	}
	m.RunsActive.Dec()
	m.RunsTotal.WithLabelValues(string(status)).Inc()
}

// RunRejected фиксирует отклонённый запуск.
func (m *Metrics) RunRejected() {
	if m == nil {
		return
	}
	m.RunsRejected.Inc()
}
