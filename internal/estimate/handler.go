package estimate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/glossworks/detailing-platform/internal/catalog"
	"github.com/glossworks/detailing-platform/internal/tenancy"
	"github.com/glossworks/detailing-platform/pkg/logging"
)

type serviceLookup interface {
	GetMany(ctx context.Context, orgID string, ids []uuid.UUID) ([]catalog.Service, error)
}

// Handler handles HTTP requests for both estimate calculators.
type Handler struct {
	catalog serviceLookup
	logger  *logging.Logger
}

func NewHandler(cat serviceLookup, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{catalog: cat, logger: logger}
}

type quickQuoteRequest struct {
	VehicleClass VehicleClass `json:"vehicle_class"`
	Condition    Condition    `json:"condition"`
	ImageCount   int          `json:"image_count"`
}

type quoteResponse struct {
	Total float64 `json:"total"`
}

// QuickQuote handles POST /estimates/quick requests. The endpoint is public:
// prospects get a ballpark price before they are anyone's client.
func (h *Handler) QuickQuote(w http.ResponseWriter, r *http.Request) {
	var req quickQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	total, err := QuickQuote(req.VehicleClass, req.Condition, req.ImageCount)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quoteResponse{Total: total})
}

type itemizedQuoteRequest struct {
	ServiceIDs  []string  `json:"service_ids"`
	Rush        bool      `json:"rush"`
	EcoProducts bool      `json:"eco_products"`
	Condition   Condition `json:"condition"`
}

// ItemizedQuote handles POST /estimates/itemized requests. Prices come from
// the tenant's own catalog, so unknown or cross-tenant service ids fail.
func (h *Handler) ItemizedQuote(w http.ResponseWriter, r *http.Request) {
	rc, ok := tenancy.FromContext(r.Context())
	if !ok {
		http.Error(w, "missing org context", http.StatusBadRequest)
		return
	}

	var req itemizedQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.ServiceIDs) == 0 {
		http.Error(w, "service_ids is required", http.StatusBadRequest)
		return
	}
	ids := make([]uuid.UUID, 0, len(req.ServiceIDs))
	for _, raw := range req.ServiceIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			http.Error(w, "invalid service id", http.StatusBadRequest)
			return
		}
		ids = append(ids, id)
	}

	services, err := h.catalog.GetMany(r.Context(), rc.OrgID, ids)
	if err != nil {
		h.logger.Error("failed to load services for quote", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to compute quote", http.StatusInternalServerError)
		return
	}
	if len(services) != len(ids) {
		http.Error(w, "one or more services not found", http.StatusUnprocessableEntity)
		return
	}

	prices := make([]int64, len(services))
	for i, s := range services {
		prices[i] = s.PriceCents
	}
	total, err := ItemizedQuote(prices, ItemizedOptions{
		Rush:        req.Rush,
		EcoProducts: req.EcoProducts,
		Condition:   req.Condition,
	})
	if err != nil {
		if errors.Is(err, ErrUnknownCondition) || errors.Is(err, ErrNoServices) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to compute quote", "error", err, "org_id", rc.OrgID)
		http.Error(w, "failed to compute quote", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quoteResponse{Total: total})
}
