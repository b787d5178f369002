package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// HistogramBuckets covers request latencies from sub-millisecond cache hits
// up to slow processor round-trips, in milliseconds.
var HistogramBuckets = []float64{
	5, 10, 25, 50, 100, 250, 500,
	1000, 2500, 5000,
	10000, 30000, 60000,
}

// Metric pairs a prometheus.Collector with the definition it was built from.
type Metric struct {
	MetricCollector prometheus.Collector
	ID              string
	Name            string
	Description     string
	Type            string
	Args            []string
}

// NewMetric builds the prometheus.Collector named by Metric.Type.
func NewMetric(m *Metric, subsystem string) prometheus.Collector {
	var metric prometheus.Collector
	switch m.Type {
	case "counter_vec":
		metric = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	case "counter":
		metric = prometheus.NewCounter(
			prometheus.CounterOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	case "gauge":
		metric = prometheus.NewGauge(
			prometheus.GaugeOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
		)
	case "histogram_vec":
		metric = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
				Buckets:   HistogramBuckets,
			},
			m.Args,
		)
	case "summary_vec":
		metric = prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Subsystem: subsystem,
				Name:      m.Name,
				Help:      m.Description,
			},
			m.Args,
		)
	}
	return metric
}

var webhookEvents = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Subsystem: "billing",
		Name:      "webhook_events_total",
		Help:      "Processor webhook deliveries by outcome.",
	},
	[]string{"outcome"},
)

func init() {
	prometheus.MustRegister(webhookEvents)
}

// CountWebhookEvent records one webhook delivery. Outcome is one of
// "handled", "failed" or "rejected".
func CountWebhookEvent(outcome string) {
	webhookEvents.WithLabelValues(outcome).Inc()
}
