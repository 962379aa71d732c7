package generation_coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricGenerationsTotal    = "previz_generations_total"
	MetricGenerationDuration  = "previz_generation_duration_seconds"
	MetricCaptureFailures     = "previz_capture_failures_total"
	MetricGalleryShots        = "previz_gallery_shots"
	MetricRejectedGenerations = "previz_generations_rejected_total"
)

const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Metrics are the coordinator's Prometheus collectors. They are not registered until Register.
type Metrics struct {
	generations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	captures    prometheus.Counter
	gallery     prometheus.Gauge
	rejected    prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		generations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricGenerationsTotal,
				Help: "Completed generation attempts by engine and outcome",
			},
			[]string{"engine", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricGenerationDuration,
				Help:    "Engine request duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
			},
			[]string{"engine"},
		),
		captures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCaptureFailures,
			Help: "Clean plate captures that failed and aborted a generation",
		}),
		gallery: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricGalleryShots,
			Help: "Shots currently in the gallery",
		}),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRejectedGenerations,
			Help: "Generation requests rejected because one was already in flight",
		}),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	return nil
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.generations, m.duration, m.captures, m.gallery, m.rejected}
}
