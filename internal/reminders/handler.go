package reminders

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/glossworks/detailing-platform/internal/tenancy"
	"github.com/glossworks/detailing-platform/pkg/logging"
)

// Handler exposes read access to an appointment's reminder schedule.
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

type listResponse struct {
	Reminders []Reminder `json:"reminders"`
}

// ListForAppointment handles GET /appointments/{appointmentID}/reminders.
func (h *Handler) ListForAppointment(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "appointmentID"))
	if err != nil {
		http.Error(w, "invalid appointment id", http.StatusBadRequest)
		return
	}

	list, err := h.store.ListForAppointment(r.Context(), rc.OrgID, id)
	if err != nil {
		h.logger.Error("failed to list reminders", "org_id", rc.OrgID, "appointment_id", id, "error", err)
		http.Error(w, "failed to list reminders", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listResponse{Reminders: list})
}
