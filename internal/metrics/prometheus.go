package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GenerationCollector holds the Prometheus series for image generation.
// It satisfies chat.Observer.
type GenerationCollector struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewGenerationCollector creates the collectors and registers them with reg.
func NewGenerationCollector(reg prometheus.Registerer) *GenerationCollector {
	c := &GenerationCollector{
		total: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "auralens",
				Name:      "generations_total",
				Help:      "Total number of image generation attempts by result",
			},
			[]string{"result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "auralens",
				Name:      "generation_duration_seconds",
				Help:      "Image generation latency in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60, 120},
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(c.total, c.duration)
	return c
}

// ObserveGeneration records the latency and result of one generation call.
func (c *GenerationCollector) ObserveGeneration(result string, d time.Duration) {
	c.total.WithLabelValues(result).Inc()
	c.duration.WithLabelValues(result).Observe(d.Seconds())
}
