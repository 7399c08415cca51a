package clients

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/glossworks/detailing-platform/internal/tenancy"
	"github.com/glossworks/detailing-platform/pkg/logging"
)

// Handler handles HTTP requests for the client directory.
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

type clientRequest struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Email     string  `json:"email"`
	Phone     string  `json:"phone"`
	Vehicle   Vehicle `json:"vehicle"`
	Notes     string  `json:"notes"`
}

func (req *clientRequest) validate() string {
	if strings.TrimSpace(req.FirstName) == "" && strings.TrimSpace(req.LastName) == "" {
		return "a name is required"
	}
	if req.Email == "" && req.Phone == "" {
		return "an email or phone number is required"
	}
	return ""
}

// Create handles POST /clients requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	c := &Client{
		OrgID:     rc.OrgID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Vehicle:   req.Vehicle,
		Notes:     req.Notes,
	}
	if err := h.repo.Create(r.Context(), c); err != nil {
		h.logger.Error("failed to create client", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to create client", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(c)
}

// Get handles GET /clients/{clientID} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "clientID"))
	if err != nil {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}

	c, err := h.repo.GetByID(r.Context(), rc.OrgID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to get client", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to get client", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}

// Update handles PUT /clients/{clientID} requests.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "clientID"))
	if err != nil {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}

	var req clientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg := req.validate(); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	c := &Client{
		ID:        id,
		OrgID:     rc.OrgID,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Vehicle:   req.Vehicle,
		Notes:     req.Notes,
	}
	if err := h.repo.Update(r.Context(), c); err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "client not found", http.StatusNotFound)
			return
		}
		h.logger.Error("failed to update client", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to update client", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(c)
}

// Delete handles DELETE /clients/{clientID} requests.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "clientID"))
	if err != nil {
		http.Error(w, "invalid client id", http.StatusBadRequest)
		return
	}

	if err := h.repo.Delete(r.Context(), rc.OrgID, id); err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			http.Error(w, "client not found", http.StatusNotFound)
		case errors.Is(err, ErrHasAppointments):
			http.Error(w, "client has appointment history", http.StatusConflict)
		default:
			h.logger.Error("failed to delete client", "error", err, "org_id", rc.OrgID)
			http.Error(w, "failed to delete client", http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type listClientsResponse struct {
	Clients []Client `json:"clients"`
}

// List handles GET /clients requests.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	filter := ListFilter{Search: r.URL.Query().Get("search")}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		filter.Limit = n
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "invalid offset", http.StatusBadRequest)
			return
		}
		filter.Offset = n
	}

	list, err := h.repo.List(r.Context(), rc.OrgID, filter)
	if err != nil {
		h.logger.Error("failed to list clients", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to list clients", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Client{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listClientsResponse{Clients: list})
}
