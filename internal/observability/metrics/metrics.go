package metrics

import "github.com/prometheus/client_golang/prometheus"

// FrontdeskMetrics exposes counters/histograms for the front-of-house flows.
type FrontdeskMetrics struct {
	pollsTotal     *prometheus.CounterVec
	callNextTotal  *prometheus.CounterVec
	ticketsIssued  *prometheus.CounterVec
	bookingsTotal  *prometheus.CounterVec
	backendLatency *prometheus.HistogramVec
}

func NewFrontdeskMetrics(reg prometheus.Registerer) *FrontdeskMetrics {
	m := &FrontdeskMetrics{
		pollsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "poll",
			Name:      "refresh_total",
			Help:      "Total view refreshes by poller",
		}, []string{"poller", "status"}),
		callNextTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "queue",
			Name:      "call_next_total",
			Help:      "Total call-next requests",
		}, []string{"role", "status"}),
		ticketsIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "kiosk",
			Name:      "tickets_issued_total",
			Help:      "Total kiosk tickets issued",
		}, []string{"priority", "status"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "frontdesk",
			Subsystem: "booking",
			Name:      "appointments_total",
			Help:      "Total appointment booking attempts",
		}, []string{"status"}),
		backendLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "frontdesk",
			Subsystem: "backend",
			Name:      "request_latency_seconds",
			Help:      "Latency of clinic backend requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.pollsTotal, m.callNextTotal, m.ticketsIssued, m.bookingsTotal, m.backendLatency)
	return m
}

func (m *FrontdeskMetrics) ObservePoll(poller, status string) {
	if m == nil {
		return
	}
	m.pollsTotal.WithLabelValues(poller, status).Inc()
}

func (m *FrontdeskMetrics) ObserveCallNext(role, status string) {
	if m == nil {
		return
	}
	m.callNextTotal.WithLabelValues(role, status).Inc()
}

func (m *FrontdeskMetrics) ObserveTicketIssued(priority, status string) {
	if m == nil {
		return
	}
	m.ticketsIssued.WithLabelValues(priority, status).Inc()
}

func (m *FrontdeskMetrics) ObserveBooking(status string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
}

func (m *FrontdeskMetrics) ObserveBackendLatency(operation string, seconds float64) {
	if m == nil {
		return
	}
	m.backendLatency.WithLabelValues(operation).Observe(seconds)
}
