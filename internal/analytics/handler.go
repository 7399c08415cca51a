package analytics

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/glossworks/detailing-platform/internal/tenancy"
	"github.com/glossworks/detailing-platform/pkg/logging"
)

const bookingLatencyMetric = "detailing_booking_latency_seconds"

// Handler serves the tenant dashboard endpoints.
type Handler struct {
	repo     *Repository
	gatherer prometheus.Gatherer
	logger   *logging.Logger
}

func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

// WithGatherer enables the booking-latency snapshot on the dashboard.
func (h *Handler) WithGatherer(g prometheus.Gatherer) *Handler {
	h.gatherer = g
	return h
}

// LatencySnapshot summarizes the booking histogram since process start.
type LatencySnapshot struct {
	SampleCount uint64  `json:"sample_count"`
	AvgSeconds  float64 `json:"avg_seconds"`
}

func (h *Handler) bookingLatency() *LatencySnapshot {
	if h.gatherer == nil {
		return nil
	}
	families, err := h.gatherer.Gather()
	if err != nil {
		h.logger.Warn("failed to gather booking latency", "error", err)
		return nil
	}
	for _, mf := range families {
		if mf.GetName() != bookingLatencyMetric {
			continue
		}
		for _, m := range mf.GetMetric() {
			hist := m.GetHistogram()
			if hist == nil || hist.GetSampleCount() == 0 {
				continue
			}
			return &LatencySnapshot{
				SampleCount: hist.GetSampleCount(),
				AvgSeconds:  hist.GetSampleSum() / float64(hist.GetSampleCount()),
			}
		}
	}
	return nil
}

type dashboardResponse struct {
	Summary  *Summary         `json:"summary"`
	Bookings []DayCount       `json:"bookings_by_day"`
	Revenue  []DayRevenue     `json:"revenue_by_day"`
	Latency  *LatencySnapshot `json:"booking_latency,omitempty"`
	From     time.Time        `json:"from"`
	To       time.Time        `json:"to"`
}

// Dashboard handles GET /analytics/dashboard requests. The range defaults to
// the last 30 days.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -30)
	to := now.AddDate(0, 0, 1)
	if v := r.URL.Query().Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid from timestamp", http.StatusBadRequest)
			return
		}
		from = t
	}
	if v := r.URL.Query().Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid to timestamp", http.StatusBadRequest)
			return
		}
		to = t
	}

	summary, err := h.repo.Summary(r.Context(), rc.OrgID, now)
	if err != nil {
		h.logger.Error("failed to compute summary", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	bookings, err := h.repo.BookingsByDay(r.Context(), rc.OrgID, from, to)
	if err != nil {
		h.logger.Error("failed to load bookings by day", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	revenue, err := h.repo.RevenueByDay(r.Context(), rc.OrgID, from, to)
	if err != nil {
		h.logger.Error("failed to load revenue by day", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	if bookings == nil {
		bookings = []DayCount{}
	}
	if revenue == nil {
		revenue = []DayRevenue{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(dashboardResponse{
		Summary:  summary,
		Bookings: bookings,
		Revenue:  revenue,
		Latency:  h.bookingLatency(),
		From:     from,
		To:       to,
	})
}
