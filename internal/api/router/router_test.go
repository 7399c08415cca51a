package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glossworks/detailing-platform/internal/estimate"
	"github.com/glossworks/detailing-platform/pkg/logging"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := logging.Default()
	cfg := &Config{
		Logger:          logger,
		EstimateHandler: estimate.NewHandler(nil, logger),
	}
	return New(cfg)
}

func TestRouterHealthEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rr.Code)
	}

	var resp map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode health response: %v", err)
	}

	if resp["status"] != "ok" {
		t.Errorf("expected status 'ok', got %q", resp["status"])
	}
}

func TestRouterQuickQuoteIsPublic(t *testing.T) {
	router := newTestRouter(t)

	body := strings.NewReader(`{"vehicle_class":"suv","condition":"poor","image_count":6}`)
	req := httptest.NewRequest(http.MethodPost, "/estimates/quick", body)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rr.Code, rr.Body.String())
	}

	var resp struct {
		Total float64 `json:"total"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode quote: %v", err)
	}
	if resp.Total != 292.5 {
		t.Errorf("expected total 292.5, got %v", resp.Total)
	}
}

func TestRouterTenantRoutesRequireOrgHeader(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/estimates/itemized", strings.NewReader(`{}`))
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without X-Org-Id, got %d", rr.Code)
	}
}

func TestRouterAdminRoutesAbsentWithoutSecret(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/orgs", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unmounted admin routes, got %d", rr.Code)
	}
}
