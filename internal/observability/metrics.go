package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// evaluation pipeline.
type Metrics struct {
	ReadingsConsumed prometheus.Counter
	AlertsPublished  prometheus.Counter
	ParseErrors      prometheus.Counter
	EvaluateErrors   prometheus.Counter
	PipelineRunning  prometheus.Gauge

	// Batch processing metrics.
	BatchSize               prometheus.Histogram
	BatchProcessingDuration prometheus.Histogram

	// Detection and model metrics.
	Detections       *prometheus.CounterVec // labels: kind, severity
	FloodProbability prometheus.Gauge
	ModelTrained     prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		ReadingsConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coastal_engine",
			Name:      "readings_consumed_total",
			Help:      "Total readings read from the source topic.",
		}),
		AlertsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coastal_engine",
			Name:      "alerts_published_total",
			Help:      "Total alerts written to the sink topic.",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coastal_engine",
			Name:      "parse_errors_total",
			Help:      "Total malformed readings skipped.",
		}),
		EvaluateErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "coastal_engine",
			Name:      "evaluate_errors_total",
			Help:      "Total evaluation cycles that failed on storage access.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "coastal_engine",
			Name:      "pipeline_running",
			Help:      "1 when the pipeline is active, 0 when shut down.",
		}),
		BatchSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "coastal_engine",
			Name:      "batch_size",
			Help:      "Number of readings per batch extracted from Kafka.",
			Buckets:   []float64{1, 5, 10, 20, 30, 40, 50, 75, 100},
		}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "coastal_engine",
			Name:      "batch_processing_duration_seconds",
			Help:      "Duration of a complete batch evaluate-and-publish cycle.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		Detections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "coastal_engine",
			Name:      "detections_total",
			Help:      "Detections produced by the rule engine, by kind and severity.",
		}, []string{"kind", "severity"}),
		FloodProbability: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "coastal_engine",
			Name:      "flood_probability",
			Help:      "Flood probability from the most recent trained assessment.",
		}),
		ModelTrained: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "coastal_engine",
			Name:      "model_trained",
			Help:      "1 when a flood model is loaded, 0 otherwise.",
		}),
	}

	prometheus.MustRegister(
		m.ReadingsConsumed,
		m.AlertsPublished,
		m.ParseErrors,
		m.EvaluateErrors,
		m.PipelineRunning,
		m.BatchSize,
		m.BatchProcessingDuration,
		m.Detections,
		m.FloodProbability,
		m.ModelTrained,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		ReadingsConsumed:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "coastal_engine", Name: "readings_consumed_total"}),
		AlertsPublished:         prometheus.NewCounter(prometheus.CounterOpts{Namespace: "coastal_engine", Name: "alerts_published_total"}),
		ParseErrors:             prometheus.NewCounter(prometheus.CounterOpts{Namespace: "coastal_engine", Name: "parse_errors_total"}),
		EvaluateErrors:          prometheus.NewCounter(prometheus.CounterOpts{Namespace: "coastal_engine", Name: "evaluate_errors_total"}),
		PipelineRunning:         prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "coastal_engine", Name: "pipeline_running"}),
		BatchSize:               prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "coastal_engine", Name: "batch_size"}),
		BatchProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "coastal_engine", Name: "batch_processing_duration_seconds"}),
		Detections:              prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "coastal_engine", Name: "detections_total"}, []string{"kind", "severity"}),
		FloodProbability:        prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "coastal_engine", Name: "flood_probability"}),
		ModelTrained:            prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "coastal_engine", Name: "model_trained"}),
	}
}
