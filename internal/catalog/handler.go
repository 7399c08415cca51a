package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/glossworks/detailing-platform/internal/tenancy"
	"github.com/glossworks/detailing-platform/pkg/logging"
)

// Handler handles HTTP requests for the service catalog.
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

type serviceRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	PriceCents      int64  `json:"price_cents"`
	DurationMinutes int    `json:"duration_minutes"`
}

func (req *serviceRequest) validate() string {
	if strings.TrimSpace(req.Name) == "" {
		return "name is required"
	}
	if req.PriceCents < 0 {
		return "price_cents must not be negative"
	}
	if req.DurationMinutes <= 0 {
		return "duration_minutes must be positive"
	}
	return ""
}

// Create handles POST /services requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	s := &Service{
		OrgID:           rc.OrgID,
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		PriceCents:      req.PriceCents,
		DurationMinutes: req.DurationMinutes,
	}
	if err := h.repo.Create(r.Context(), s); err != nil {
		h.logger.Error("failed to create service", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to create service", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(s)
}

// Get handles GET /services/{serviceID} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "serviceID"))
	if err != nil {
		http.Error(w, "invalid service id", http.StatusBadRequest)
		return
	}

	s, err := h.repo.GetByID(r.Context(), rc.OrgID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get service", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to get service", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s)
}

// Update handles PUT /services/{serviceID} requests.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "serviceID"))
	if err != nil {
		http.Error(w, "invalid service id", http.StatusBadRequest)
		return
	}

	var req serviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	s := &Service{
		ID:              id,
		OrgID:           rc.OrgID,
		Name:            strings.TrimSpace(req.Name),
		Description:     req.Description,
		PriceCents:      req.PriceCents,
		DurationMinutes: req.DurationMinutes,
	}
	if err := h.repo.Update(r.Context(), s); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update service", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to update service", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s)
}

// Deactivate handles DELETE /services/{serviceID} requests. The row survives
// so past appointments keep a valid reference.
func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, false)
}

// Activate handles POST /services/{serviceID}/activate requests.
func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	h.setActive(w, r, true)
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "serviceID"))
	if err != nil {
		http.Error(w, "invalid service id", http.StatusBadRequest)
		return
	}

	if err := h.repo.SetActive(r.Context(), rc.OrgID, id, active); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to toggle service", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to toggle service", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type listServicesResponse struct {
	Services []Service `json:"services"`
}

// List handles GET /services requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	filter := ListFilter{IncludeInactive: r.URL.Query().Get("include_inactive") == "true"}
	list, err := h.repo.List(r.Context(), rc.OrgID, filter)
	if err != nil {
		h.logger.Error("failed to list services", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to list services", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Service{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listServicesResponse{Services: list})
}
