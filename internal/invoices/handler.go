package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/glossworks/detailing-platform/internal/tenancy"
	"github.com/glossworks/detailing-platform/pkg/logging"
)

// Handler handles HTTP requests for invoices and estimate documents.
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

type invoiceRequest struct {
	ClientID      string     `json:"client_id"`
	AppointmentID string     `json:"appointment_id"`
	Kind          Kind       `json:"kind"`
	LineItems     []LineItem `json:"line_items"`
}

// Create handles POST /invoices requests.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	var req invoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		http.Error(w, "invalid client_id", http.StatusBadRequest)
		return
	}
	if req.Kind != KindInvoice && req.Kind != KindEstimate {
		http.Error(w, "kind must be invoice or estimate", http.StatusBadRequest)
		return
	}
	if len(req.LineItems) == 0 {
		http.Error(w, "line_items is required", http.StatusBadRequest)
		return
	}
	for _, li := range req.LineItems {
		if li.AmountCents < 0 {
			http.Error(w, "line item amounts must not be negative", http.StatusBadRequest)
			return
		}
	}

	inv := &Invoice{
		OrgID:     rc.OrgID,
		ClientID:  clientID,
		Kind:      req.Kind,
		LineItems: req.LineItems,
	}
	if req.AppointmentID != "" {
		apptID, err := uuid.Parse(req.AppointmentID)
		if err != nil {
			http.Error(w, "invalid appointment_id", http.StatusBadRequest)
			return
		}
		inv.AppointmentID = &apptID
	}

	if err := h.svc.Create(r.Context(), inv); err != nil {
		h.logger.Error("failed to create invoice", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to create invoice", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(inv)
}

// Get handles GET /invoices/{invoiceID} requests.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "invoiceID"))
	if err != nil {
		http.Error(w, "invalid invoice id", http.StatusBadRequest)
		return
	}

	inv, err := h.svc.Get(r.Context(), rc.OrgID, id)
	if err != nil {
		h.writeError(w, rc.OrgID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(inv)
}

type updateDraftRequest struct {
	LineItems []LineItem `json:"line_items"`
}

// UpdateDraft handles PUT /invoices/{invoiceID} requests. Only drafts accept
// line-item changes.
func (h *Handler) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "invoiceID"))
	if err != nil {
		http.Error(w, "invalid invoice id", http.StatusBadRequest)
		return
	}

	var req updateDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.LineItems) == 0 {
		http.Error(w, "line_items is required", http.StatusBadRequest)
		return
	}

	inv := &Invoice{ID: id, OrgID: rc.OrgID, LineItems: req.LineItems}
	if err := h.svc.UpdateDraft(r.Context(), inv); err != nil {
		h.writeError(w, rc.OrgID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(inv)
}

// Send handles POST /invoices/{invoiceID}/send requests.
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.svc.Send)
}

// MarkPaid handles POST /invoices/{invoiceID}/pay requests.
func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.svc.MarkPaid)
}

// Void handles POST /invoices/{invoiceID}/void requests.
func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, h.svc.Void)
}

func (h *Handler) lifecycle(w http.ResponseWriter, r *http.Request,
	fn func(ctx context.Context, orgID string, id uuid.UUID) (*Invoice, error)) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "invoiceID"))
	if err != nil {
		http.Error(w, "invalid invoice id", http.StatusBadRequest)
		return
	}

	inv, err := fn(r.Context(), rc.OrgID, id)
	if err != nil {
		h.writeError(w, rc.OrgID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(inv)
}

func (h *Handler) writeError(w http.ResponseWriter, orgID string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		http.Error(w, "invoice not found", http.StatusNotFound)
	case errors.Is(err, ErrInvalidTransition):
		http.Error(w, "invoice status does not allow that change", http.StatusConflict)
	default:
		h.logger.Error("invoice operation failed", "error", err, "org_id", orgID)
		http.Error(w, "invoice operation failed", http.StatusInternalServerError)
	}
}

type listInvoicesResponse struct {
	Invoices []Invoice `json:"invoices"`
}

// List handles GET /invoices requests.
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
	if v := q.Get("kind"); v != "" {
		k := Kind(v)
		if k != KindInvoice && k != KindEstimate {
			http.Error(w, "invalid kind", http.StatusBadRequest)
			return
		}
		filter.Kind = &k
	}
	if v := q.Get("status"); v != "" {
		st := Status(v)
		if _, ok := statusTransitions[st]; !ok {
			http.Error(w, "invalid status", http.StatusBadRequest)
			return
		}
		filter.Status = &st
	}

	list, err := h.svc.List(r.Context(), rc.OrgID, filter)
	if err != nil {
		h.logger.Error("failed to list invoices", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to list invoices", http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []Invoice{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(listInvoicesResponse{Invoices: list})
}
