package slots

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/glossworks/detailing-platform/internal/tenancy"
	"github.com/glossworks/detailing-platform/pkg/logging"
)

// Handler handles HTTP requests for slot management.
type Handler struct {
	repo   *Repository
	logger *logging.Logger
}

func NewHandler(repo *Repository, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, logger: logger}
}

type openSlotsRequest struct {
	StartsAt []time.Time `json:"starts_at"`
}

type openSlotsResponse struct {
	Slots []Slot `json:"slots"`
}

// Open handles POST /slots requests. Operators publish one or more bookable
// times in a single call.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	var req openSlotsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.StartsAt) == 0 {
		http.Error(w, "starts_at is required", http.StatusBadRequest)
		return
	}

	resp := openSlotsResponse{Slots: make([]Slot, 0, len(req.StartsAt))}
	for _, ts := range req.StartsAt {
		slot, err := h.repo.Open(r.Context(), rc.OrgID, ts)
		if err != nil {
			if errors.Is(err, ErrSlotBooked) {
				http.Error(w, "slot already booked", http.StatusConflict)
				return
			}
			h.logger.Error("failed to open slot", "error", err, "org_id", rc.OrgID)
			http.Error(w, "failed to open slot", http.StatusInternalServerError)
			return
		}
		resp.Slots = append(resp.Slots, *slot)
	}

	h.logger.Info("slots opened", "org_id", rc.OrgID, "count", len(resp.Slots))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// List handles GET /slots requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	filter := ListFilter{}
	if from := r.URL.Query().Get("from"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			http.Error(w, "invalid from timestamp", http.StatusBadRequest)
			return
		}
		filter.From = &t
	}
	if to := r.URL.Query().Get("to"); to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			http.Error(w, "invalid to timestamp", http.StatusBadRequest)
			return
		}
		filter.To = &t
	}
	filter.OnlyAvailable = r.URL.Query().Get("available") == "true"

	list, err := h.repo.List(r.Context(), rc.OrgID, filter)
	if err != nil {
		h.logger.Error("failed to list slots", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to list slots", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Slot{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(openSlotsResponse{Slots: list})
}

// CloseSlot handles DELETE /slots/{slotID} requests.
func (h *Handler) CloseSlot(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "slotID"))
	if err != nil {
		http.Error(w, "invalid slot id", http.StatusBadRequest)
		return
	}

	if err := h.repo.Close(r.Context(), rc.OrgID, id); err != nil {
		if errors.Is(err, ErrSlotNotFound) {
			http.Error(w, "slot not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to close slot", "error", err, "org_id", rc.OrgID, "slot_id", id)
		http.Error(w, "failed to close slot", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
