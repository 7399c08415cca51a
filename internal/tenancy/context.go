// Package tenancy carries the authenticated tenant and user identity through
// request contexts. Every operation receives these explicitly; nothing reads
// tenant identity from globals.
package tenancy

import "context"

// RequestContext identifies the acting user and their tenant for one request.
type RequestContext struct {
	UserID string
	OrgID  string
}

type ctxKey string

const requestKey ctxKey = "detailing.request_context"

// WithRequestContext stores the request identity in context.
func WithRequestContext(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, requestKey, rc)
}

// FromContext extracts the request identity if present. The org id is the
// minimum required for a tenant-scoped operation.
func FromContext(ctx context.Context) (RequestContext, bool) {
	val := ctx.Value(requestKey)
	if val == nil {
		return RequestContext{}, false
	}
	rc, ok := val.(RequestContext)
	return rc, ok && rc.OrgID != ""
}

// OrgIDFromContext extracts just the org id if present.
func OrgIDFromContext(ctx context.Context) (string, bool) {
	rc, ok := FromContext(ctx)
	return rc.OrgID, ok
}
