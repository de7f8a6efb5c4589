package metrics

import "github.com/prometheus/client_golang/prometheus"

// SchedulingMetrics exposes counters/histograms for the availability
// engine and the calendar write path.
type SchedulingMetrics struct {
	availabilityQueries *prometheus.CounterVec
	availabilityLatency *prometheus.HistogramVec
	writeTotal          *prometheus.CounterVec
	conflictTotal       *prometheus.CounterVec
	liveEventsTotal     *prometheus.CounterVec
}

func NewSchedulingMetrics(reg prometheus.Registerer) *SchedulingMetrics {
	m := &SchedulingMetrics{
		availabilityQueries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "express",
			Subsystem: "schedule",
			Name:      "availability_queries_total",
			Help:      "Total availability computations",
		}, []string{"outcome"}),
		availabilityLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "express",
			Subsystem: "schedule",
			Name:      "availability_latency_seconds",
			Help:      "Latency of availability computations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"outcome"}),
		writeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "express",
			Subsystem: "schedule",
			Name:      "writes_total",
			Help:      "Total calendar write attempts",
		}, []string{"operation", "status"}),
		conflictTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "express",
			Subsystem: "schedule",
			Name:      "write_conflicts_total",
			Help:      "Write-time conflicts (slot taken between read and write)",
		}, []string{"operation"}),
		liveEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "express",
			Subsystem: "live",
			Name:      "events_total",
			Help:      "Live-update events fanned out to subscribers",
		}, []string{"event_type"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.availabilityQueries, m.availabilityLatency, m.writeTotal, m.conflictTotal, m.liveEventsTotal)
	return m
}

func (m *SchedulingMetrics) ObserveAvailability(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.availabilityQueries.WithLabelValues(outcome).Inc()
	m.availabilityLatency.WithLabelValues(outcome).Observe(seconds)
}

func (m *SchedulingMetrics) ObserveWrite(operation, status string) {
	if m == nil {
		return
	}
	m.writeTotal.WithLabelValues(operation, status).Inc()
}

func (m *SchedulingMetrics) ObserveConflict(operation string) {
	if m == nil {
		return
	}
	m.conflictTotal.WithLabelValues(operation).Inc()
}

func (m *SchedulingMetrics) ObserveLiveEvent(eventType string) {
	if m == nil {
		return
	}
	m.liveEventsTotal.WithLabelValues(eventType).Inc()
}
