package appointments

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/glossworks/detailing-platform/internal/slots"
	"github.com/glossworks/detailing-platform/internal/tenancy"
	"github.com/glossworks/detailing-platform/pkg/logging"
)

// Handler handles HTTP requests for appointments.
type Handler struct {
	svc    *Service
	logger *logging.Logger
}

func NewHandler(svc *Service, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

type bookRequest struct {
	ClientID  string    `json:"client_id"`
	ServiceID string    `json:"service_id"`
	StartsAt  time.Time `json:"starts_at"`
	Notes     string    `json:"notes"`
}

// Book handles POST /appointments requests.
func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		http.Error(w, "invalid client_id", http.StatusBadRequest)
		return
	}
	serviceID, err := uuid.Parse(req.ServiceID)
	if err != nil {
		http.Error(w, "invalid service_id", http.StatusBadRequest)
		return
	}
	if req.StartsAt.IsZero() {
		http.Error(w, "starts_at is required", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Book(r.Context(), rc.OrgID, BookRequest{
		ClientID:  clientID,
		ServiceID: serviceID,
		StartsAt:  req.StartsAt,
		Notes:     req.Notes,
	})
	if err != nil {
		h.writeBookError(w, rc.OrgID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(appt)
}

func (h *Handler) writeBookError(w http.ResponseWriter, orgID string, err error) {
	switch {
	case errors.Is(err, slots.ErrSlotNotAvailable):
		http.Error(w, "slot is no longer available", http.StatusConflict)
	case errors.Is(err, ErrClientNotFound):
		http.Error(w, "client not found", http.StatusUnprocessableEntity)
	case errors.Is(err, ErrServiceNotFound):
		http.Error(w, "service not found", http.StatusUnprocessableEntity)
	default:
		h.logger.Error("booking failed", "error", err, "org_id", orgID)
		http.Error(w, "booking failed", http.StatusInternalServerError)
	}
}

// Get handles GET /appointments/{appointmentID} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
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

	appt, err := h.svc.Get(r.Context(), rc.OrgID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get appointment", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to get appointment", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appt)
}

type listResponse struct {
	Appointments []Appointment `json:"appointments"`
}

// List handles GET /appointments requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	filter := ListFilter{}
	q := r.URL.Query()
	if v := q.Get("client_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			http.Error(w, "invalid client_id", http.StatusBadRequest)
			return
		}
		filter.ClientID = &id
	}
	if v := q.Get("status"); v != "" {
		st := Status(v)
		if !st.Valid() {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		filter.Status = &st
	}
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid from timestamp", http.StatusBadRequest)
			return
		}
		filter.From = &t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			http.Error(w, "invalid to timestamp", http.StatusBadRequest)
			return
		}
		filter.To = &t
	}

	list, err := h.svc.List(r.Context(), rc.OrgID, filter)
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Appointment{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listResponse{Appointments: list})
}

// Cancel handles POST /appointments/{appointmentID}/cancel requests.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(rc tenancy.RequestContext, id uuid.UUID) (*Appointment, error) {
		return h.svc.Cancel(r.Context(), rc.OrgID, id)
	})
}

// Complete handles POST /appointments/{appointmentID}/complete requests.
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(rc tenancy.RequestContext, id uuid.UUID) (*Appointment, error) {
		return h.svc.Transition(r.Context(), rc.OrgID, id, StatusCompleted)
	})
}

// NoShow handles POST /appointments/{appointmentID}/no-show requests.
func (h *Handler) NoShow(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(rc tenancy.RequestContext, id uuid.UUID) (*Appointment, error) {
		return h.svc.Transition(r.Context(), rc.OrgID, id, StatusNoShow)
	})
}

type rescheduleRequest struct {
	StartsAt time.Time `json:"starts_at"`
}

// Reschedule handles POST /appointments/{appointmentID}/reschedule requests.
func (h *Handler) Reschedule(w http.ResponseWriter, r *http.Request) {
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
	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.StartsAt.IsZero() {
		http.Error(w, "starts_at is required", http.StatusBadRequest)
		return
	}

	appt, err := h.svc.Reschedule(r.Context(), rc.OrgID, id, req.StartsAt)
	if err != nil {
		h.writeLifecycleError(w, rc.OrgID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(appt)
}

func (h *Handler) lifecycle(w http.ResponseWriter, r *http.Request, fn func(tenancy.RequestContext, uuid.UUID) (*Appointment, error)) {
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

	appt, err := fn(rc, id)
	if err != nil {
		h.writeLifecycleError(w, rc.OrgID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(appt)
}

func (h *Handler) writeLifecycleError(w http.ResponseWriter, orgID string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "appointment not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, "status transition not allowed", http.StatusConflict)
	case errors.Is(err, slots.ErrSlotNotAvailable):
		http.Error(w, "slot is no longer available", http.StatusConflict)
	default:
		h.logger.Error("appointment update failed", "error", err, "org_id", orgID)
		http.Error(w, "appointment update failed", http.StatusInternalServerError)
	}
}
