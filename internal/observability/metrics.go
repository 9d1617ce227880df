package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for scoring runs.
type Metrics struct {
	RecordsLoaded prometheus.Gauge
	RunsTotal     *prometheus.CounterVec // labels: outcome={success,error}
	RunDuration   prometheus.Histogram
	RunActive     prometheus.Gauge

	// Per-field results of the latest run.
	FieldScore    *prometheus.GaugeVec // labels: field
	FieldPValue   *prometheus.GaugeVec // labels: field
	FieldHitSkill *prometheus.GaugeVec // labels: field

	BenchmarkTrials prometheus.Counter
	PublishErrors   *prometheus.CounterVec // labels: sink
}

// NewMetrics creates and registers all run metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsLoaded,
		m.RunsTotal,
		m.RunDuration,
		m.RunActive,
		m.FieldScore,
		m.FieldPValue,
		m.FieldHitSkill,
		m.BenchmarkTrials,
		m.PublishErrors,
	)
	return m
}

// NewMetricsForTesting creates unregistered Metrics to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "forecast_skill",
			Name:      "records_loaded",
			Help:      "Daily records in the store of the latest run.",
		}),
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forecast_skill",
			Name:      "runs_total",
			Help:      "Scoring runs by outcome.",
		}, []string{"outcome"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "forecast_skill",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete load-build-score-publish run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}),
		RunActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "forecast_skill",
			Name:      "run_active",
			Help:      "1 while a scoring run is in progress.",
		}),
		FieldScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "forecast_skill",
			Name:      "field_score",
			Help:      "Penalty score of the forecast per field.",
		}, []string{"field"}),
		FieldPValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "forecast_skill",
			Name:      "field_p_value",
			Help:      "t-test p-value of random scores against the forecast score per field.",
		}, []string{"field"}),
		FieldHitSkill: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "forecast_skill",
			Name:      "field_hit_skill_percent",
			Help:      "Hit skill of the forecast relative to random forecasts per field.",
		}, []string{"field"}),
		BenchmarkTrials: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "forecast_skill",
			Name:      "benchmark_trials_total",
			Help:      "Random forecasts scored.",
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forecast_skill",
			Name:      "publish_errors_total",
			Help:      "Report publish failures by sink.",
		}, []string{"sink"}),
	}
}
