package settings

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/glossworks/detailing-platform/internal/tenancy"
	"github.com/glossworks/detailing-platform/pkg/logging"
)

// Handler handles HTTP requests for tenant settings.
type Handler struct {
	store  *Store
	logger *logging.Logger
}

func NewHandler(store *Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

// Get handles GET /settings requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	st, err := h.store.Get(r.Context(), rc.OrgID)
	if err != nil {
		h.logger.Error("failed to get settings", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to get settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(st)
}

// Update handles PUT /settings requests. The org in the path of trust is the
// header identity; the body cannot reassign settings to another tenant.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	var st Settings
	if err := json.NewDecoder(r.Body).Decode(&st); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	st.OrgID = rc.OrgID
	if st.Timezone == "" {
		st.Timezone = "America/New_York"
	} else if _, err := time.LoadLocation(st.Timezone); err != nil {
		http.Error(w, "invalid timezone", http.StatusBadRequest)
		return
	}
	if st.Reminders.EmailLeadMinutes < 0 || st.Reminders.SMSLeadMinutes < 0 {
		http.Error(w, "reminder lead times must not be negative", http.StatusBadRequest)
		return
	}

	if err := h.store.Set(r.Context(), &st); err != nil {
		h.logger.Error("failed to save settings", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to save settings", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(st)
}
