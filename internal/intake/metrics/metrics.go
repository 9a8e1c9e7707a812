package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the intake vertical.
type Metrics struct {
	ClientsCreated    prometheus.Counter
	SectionUpdates    *prometheus.CounterVec
	BulkUpdates       prometheus.Counter
	CompletionPercent prometheus.Histogram
}

// New creates and registers the intake metrics on the default registerer.
func New() *Metrics {
	return &Metrics{
		ClientsCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meridian_intake_clients_created_total",
			Help: "Total number of client records created",
		}),
		SectionUpdates: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "meridian_intake_section_updates_total",
			Help: "Total number of section writes, by section",
		}, []string{"section"}),
		BulkUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Name: "meridian_intake_bulk_updates_total",
			Help: "Total number of multi-section bulk writes",
		}),
		CompletionPercent: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "meridian_intake_completion_percentage",
			Help:    "Completion percentage observed after each write",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
	}
}

// IncrementClientsCreated increments the created-clients counter by 1.
func (m *Metrics) IncrementClientsCreated() {
	m.ClientsCreated.Inc()
}

// ObserveWrite records one section write and the resulting completion.
func (m *Metrics) ObserveWrite(section string, completionPercentage int) {
	m.SectionUpdates.WithLabelValues(section).Inc()
	m.CompletionPercent.Observe(float64(completionPercentage))
}

// ObserveBulkWrite records a bulk write across the given sections.
func (m *Metrics) ObserveBulkWrite(sections []string, completionPercentage int) {
	m.BulkUpdates.Inc()
	for _, section := range sections {
		m.SectionUpdates.WithLabelValues(section).Inc()
	}
	m.CompletionPercent.Observe(float64(completionPercentage))
}
