package run

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Traffic: завершенные прогоны по итоговому статусу
	RunsTotal *prometheus.CounterVec

	// Errors: терминальные ошибки по стадии, на которой упали
	StageErrors *prometheus.CounterVec

	// Latency: полное время прогона
	RunDuration prometheus.Histogram

	// Saturation: прогоны в реестре
	ActiveRuns prometheus.Gauge
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern: без регистратора метрики живут в локальном registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		RunsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "txguard_runs_total",
			Help: "Total number of completed runs by final status.",
		}, []string{"status"}),

		StageErrors: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "txguard_stage_errors_total",
			Help: "Terminal pipeline errors by stage.",
		}, []string{"stage"}),

		RunDuration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "txguard_run_duration_seconds",
			Help:    "Histogram of full pipeline latencies.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}),

		ActiveRuns: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "txguard_active_runs",
			Help: "Current number of runs held in the registry.",
		}),
	}
}
