package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters/histograms for the booking flow.
type BookingMetrics struct {
	bookingsTotal  *prometheus.CounterVec
	conflictsTotal prometheus.Counter
	bookingLatency prometheus.Histogram
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "detailing",
			Subsystem: "booking",
			Name:      "bookings_total",
			Help:      "Total booking attempts by outcome",
		}, []string{"status"}),
		conflictsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "detailing",
			Subsystem: "booking",
			Name:      "slot_conflicts_total",
			Help:      "Booking attempts that lost the slot claim",
		}),
		bookingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "detailing",
			Subsystem: "booking",
			Name:      "latency_seconds",
			Help:      "Latency of the booking transaction",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.conflictsTotal, m.bookingLatency)
	return m
}

func (m *BookingMetrics) ObserveBooking(status string, seconds float64) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(status).Inc()
	m.bookingLatency.Observe(seconds)
}

func (m *BookingMetrics) ObserveConflict() {
	if m == nil {
		return
	}
	m.conflictsTotal.Inc()
}

// ReminderMetrics exposes counters for the reminder dispatch worker.
type ReminderMetrics struct {
	sentTotal   *prometheus.CounterVec
	failedTotal *prometheus.CounterVec
	deadTotal   prometheus.Counter
}

func NewReminderMetrics(reg prometheus.Registerer) *ReminderMetrics {
	m := &ReminderMetrics{
		sentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "detailing",
			Subsystem: "reminders",
			Name:      "sent_total",
			Help:      "Reminders delivered by channel",
		}, []string{"channel"}),
		failedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "detailing",
			Subsystem: "reminders",
			Name:      "failed_total",
			Help:      "Reminder send failures by channel",
		}, []string{"channel"}),
		deadTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "detailing",
			Subsystem: "reminders",
			Name:      "dead_total",
			Help:      "Reminders moved to the dead-letter state",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.sentTotal, m.failedTotal, m.deadTotal)
	return m
}

func (m *ReminderMetrics) ObserveSent(channel string) {
	if m == nil {
		return
	}
	m.sentTotal.WithLabelValues(channel).Inc()
}

func (m *ReminderMetrics) ObserveFailed(channel string) {
	if m == nil {
		return
	}
	m.failedTotal.WithLabelValues(channel).Inc()
}

func (m *ReminderMetrics) ObserveDead() {
	if m == nil {
		return
	}
	m.deadTotal.Inc()
}
