package router

import (
	"net/http"
	"strings"

	"github.com/glossworks/detailing-platform/internal/tenancy"
)

const (
	orgHeader  = "X-Org-Id"
	userHeader = "X-User-Id"
)

// requireOrgID middleware enforces multi-tenancy headers for API requests.
func requireOrgID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		orgID := strings.TrimSpace(r.Header.Get(orgHeader))
		if orgID == "" {
			http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
			return
		}
		rc := tenancy.RequestContext{
			OrgID:  orgID,
			UserID: strings.TrimSpace(r.Header.Get(userHeader)),
		}
		next.ServeHTTP(w, r.WithContext(tenancy.WithRequestContext(r.Context(), rc)))
	})
}
