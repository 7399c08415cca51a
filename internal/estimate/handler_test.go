package estimate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glossworks/detailing-platform/internal/catalog"
	"github.com/glossworks/detailing-platform/internal/tenancy"
	"github.com/glossworks/detailing-platform/pkg/logging"
)

type fakeCatalog struct {
	services []catalog.Service
}

func (f fakeCatalog) GetMany(ctx context.Context, orgID string, ids []uuid.UUID) ([]catalog.Service, error) {
	return f.services, nil
}

func testHandler(services ...catalog.Service) *Handler {
	return NewHandler(fakeCatalog{services: services}, logging.NewWithWriter("error", io.Discard))
}

func decodeTotal(t *testing.T, rec *httptest.ResponseRecorder) float64 {
	t.Helper()
	var resp quoteResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Total
}

func TestQuickQuoteEndpoint(t *testing.T) {
	h := testHandler()
	body := `{"vehicle_class":"suv","condition":"poor","image_count":6}`
	req := httptest.NewRequest(http.MethodPost, "/estimates/quick", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.QuickQuote(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 292.5, decodeTotal(t, rec), 1e-9)
}

func TestQuickQuoteEndpointRejectsUnknownClass(t *testing.T) {
	h := testHandler()
	body := `{"vehicle_class":"boat","condition":"good"}`
	req := httptest.NewRequest(http.MethodPost, "/estimates/quick", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.QuickQuote(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestItemizedQuoteEndpoint(t *testing.T) {
	svc := catalog.Service{ID: uuid.New(), OrgID: "org-1", Name: "Wash", PriceCents: 5000}
	h := testHandler(svc)

	body := `{"service_ids":["` + svc.ID.String() + `"],"rush":true}`
	req := httptest.NewRequest(http.MethodPost, "/estimates/itemized", strings.NewReader(body))
	req = req.WithContext(tenancy.WithRequestContext(req.Context(), tenancy.RequestContext{OrgID: "org-1"}))
	rec := httptest.NewRecorder()

	h.ItemizedQuote(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 62.5, decodeTotal(t, rec), 1e-9)
}

func TestItemizedQuoteUnknownService(t *testing.T) {
	h := testHandler() // catalog returns nothing

	body := `{"service_ids":["` + uuid.NewString() + `"]}`
	req := httptest.NewRequest(http.MethodPost, "/estimates/itemized", strings.NewReader(body))
	req = req.WithContext(tenancy.WithRequestContext(req.Context(), tenancy.RequestContext{OrgID: "org-1"}))
	rec := httptest.NewRecorder()

	h.ItemizedQuote(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestItemizedQuoteRequiresOrg(t *testing.T) {
	h := testHandler()
	req := httptest.NewRequest(http.MethodPost, "/estimates/itemized", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.ItemizedQuote(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
