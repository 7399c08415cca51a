package analytics

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/glossworks/detailing-platform/pkg/logging"
)

// AdminHandler serves the cross-tenant operator overview. It runs on a plain
// database/sql connection kept separate from the tenant request pool.
type AdminHandler struct {
	db     *sql.DB
	logger *logging.Logger
}

func NewAdminHandler(db *sql.DB, logger *logging.Logger) *AdminHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminHandler{db: db, logger: logger}
}

// OrgOverviewResponse contains the per-tenant figures an operator sees.
type OrgOverviewResponse struct {
	OrgID         string `json:"org_id"`
	Clients       int    `json:"clients"`
	Appointments  int    `json:"appointments"`
	ThisWeek      int    `json:"appointments_this_week"`
	Cancelled     int    `json:"cancelled"`
	RevenueCents  int64  `json:"revenue_cents"`
	DeadReminders int    `json:"dead_reminders"`
	PendingOutbox int    `json:"pending_outbox"`
}

// GetOrgOverview handles GET /admin/orgs/{orgID}/overview requests.
func (h *AdminHandler) GetOrgOverview(w http.ResponseWriter, r *http.Request) {
	orgID := chi.URLParam(r, "orgID")
	if orgID == "" {
		http.Error(w, "missing orgID", http.StatusBadRequest)
		return
	}

	resp := OrgOverviewResponse{OrgID: orgID}
	weekAgo := time.Now().AddDate(0, 0, -7)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM clients WHERE org_id = $1`, orgID,
	).Scan(&resp.Clients)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE org_id = $1`, orgID,
	).Scan(&resp.Appointments)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE org_id = $1 AND created_at >= $2`, orgID, weekAgo,
	).Scan(&resp.ThisWeek)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM appointments WHERE org_id = $1 AND status = 'cancelled'`, orgID,
	).Scan(&resp.Cancelled)

	h.db.QueryRowContext(r.Context(),
		`SELECT COALESCE(SUM(total_cents), 0) FROM invoices WHERE org_id = $1 AND kind = 'invoice' AND status = 'paid'`, orgID,
	).Scan(&resp.RevenueCents)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM reminders WHERE org_id = $1 AND status = 'dead'`, orgID,
	).Scan(&resp.DeadReminders)

	h.db.QueryRowContext(r.Context(),
		`SELECT COUNT(*) FROM outbox WHERE org_id = $1 AND delivered_at IS NULL`, orgID,
	).Scan(&resp.PendingOutbox)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// OrgListItem is one row in the operator's tenant list.
type OrgListItem struct {
	OrgID        string     `json:"org_id"`
	Clients      int        `json:"clients"`
	Appointments int        `json:"appointments"`
	LastBooking  *time.Time `json:"last_booking,omitempty"`
}

// ListOrgsResponse wraps the tenant list.
type ListOrgsResponse struct {
	Organizations []OrgListItem `json:"organizations"`
}

// ListOrgs handles GET /admin/orgs requests, listing every tenant that has
// any activity.
func (h *AdminHandler) ListOrgs(w http.ResponseWriter, r *http.Request) {
	rows, err := h.db.QueryContext(r.Context(), `
		SELECT a.org_id,
			(SELECT COUNT(*) FROM clients c WHERE c.org_id = a.org_id),
			COUNT(*),
			MAX(a.created_at)
		FROM appointments a
		GROUP BY a.org_id
		ORDER BY MAX(a.created_at) DESC`)
	if err != nil {
		h.logger.Error("failed to list organizations", "error", err)
		http.Error(w, "failed to list organizations", http.StatusInternalServerError)
		return
	}
	defer rows.Close()

	resp := ListOrgsResponse{Organizations: []OrgListItem{}}
	for rows.Next() {
		var item OrgListItem
		if err := rows.Scan(&item.OrgID, &item.Clients, &item.Appointments, &item.LastBooking); err != nil {
			h.logger.Error("failed to scan organization row", "error", err)
			http.Error(w, "failed to list organizations", http.StatusInternalServerError)
			return
		}
		resp.Organizations = append(resp.Organizations, item)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
