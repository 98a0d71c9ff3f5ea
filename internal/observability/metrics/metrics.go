package metrics

import "github.com/prometheus/client_golang/prometheus"

// DialogMetrics exposes counters/histograms for the booking conversation.
type DialogMetrics struct {
	conversationsTotal *prometheus.CounterVec
	turnsTotal         *prometheus.CounterVec
	bookingsTotal      *prometheus.CounterVec
	turnLatency        *prometheus.HistogramVec
}

func NewDialogMetrics(reg prometheus.Registerer) *DialogMetrics {
	m := &DialogMetrics{
		conversationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carservice",
			Subsystem: "dialog",
			Name:      "conversations_total",
			Help:      "Conversations started and completed",
		}, []string{"event"}),
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carservice",
			Subsystem: "dialog",
			Name:      "turns_total",
			Help:      "Caller utterances handled, by the stage that handled them",
		}, []string{"stage"}),
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "carservice",
			Subsystem: "bookings",
			Name:      "outcomes_total",
			Help:      "Booking commit outcomes",
		}, []string{"outcome"}),
		turnLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "carservice",
			Subsystem: "dialog",
			Name:      "turn_latency_seconds",
			Help:      "Latency of a single dialog turn including store calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.conversationsTotal, m.turnsTotal, m.bookingsTotal, m.turnLatency)
	return m
}

// ObserveConversation records a lifecycle event: "started" or "completed".
func (m *DialogMetrics) ObserveConversation(event string) {
	if m == nil {
		return
	}
	m.conversationsTotal.WithLabelValues(event).Inc()
}

func (m *DialogMetrics) ObserveTurn(stage string, seconds float64) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(stage).Inc()
	m.turnLatency.WithLabelValues(stage).Observe(seconds)
}

// ObserveBooking records "booked", "moved", "duplicate" or "error".
func (m *DialogMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}
