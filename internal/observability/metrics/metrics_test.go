package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestBookingMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveBooking("booked", 0.05)
	m.ObserveBooking("booked", 0.10)
	m.ObserveBooking("conflict", 0.01)
	m.ObserveConflict()

	if got := testutil.ToFloat64(m.bookingsTotal.WithLabelValues("booked")); got != 2 {
		t.Errorf("expected 2 booked, got %f", got)
	}
	if got := testutil.ToFloat64(m.conflictsTotal); got != 1 {
		t.Errorf("expected 1 conflict, got %f", got)
	}

	var pb dto.Metric
	if err := m.bookingLatency.Write(&pb); err != nil {
		t.Fatalf("write histogram: %v", err)
	}
	if pb.Histogram.GetSampleCount() != 3 {
		t.Errorf("expected 3 latency samples, got %d", pb.Histogram.GetSampleCount())
	}
}

func TestReminderMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewReminderMetrics(reg)

	m.ObserveSent("email")
	m.ObserveSent("sms")
	m.ObserveFailed("sms")
	m.ObserveDead()

	if got := testutil.ToFloat64(m.sentTotal.WithLabelValues("sms")); got != 1 {
		t.Errorf("expected 1 sms sent, got %f", got)
	}
	if got := testutil.ToFloat64(m.deadTotal); got != 1 {
		t.Errorf("expected 1 dead, got %f", got)
	}
}

func TestNilReceiverSafe(t *testing.T) {
	var b *BookingMetrics
	var r *ReminderMetrics
	b.ObserveBooking("booked", 0)
	b.ObserveConflict()
	r.ObserveSent("email")
	r.ObserveFailed("email")
	r.ObserveDead()
}
