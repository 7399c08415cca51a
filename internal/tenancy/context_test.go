package tenancy

import (
	"context"
	"testing"
)

func TestRequestContextRoundTrip(t *testing.T) {
	ctx := WithRequestContext(context.Background(), RequestContext{UserID: "user-1", OrgID: "org-1"})

	rc, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected request context")
	}
	if rc.OrgID != "org-1" || rc.UserID != "user-1" {
		t.Errorf("unexpected request context: %+v", rc)
	}

	orgID, ok := OrgIDFromContext(ctx)
	if !ok || orgID != "org-1" {
		t.Errorf("expected org-1, got %q (ok=%v)", orgID, ok)
	}
}

func TestFromContextMissing(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("expected no request context on empty context")
	}
}

func TestFromContextEmptyOrg(t *testing.T) {
	ctx := WithRequestContext(context.Background(), RequestContext{UserID: "user-1"})
	if _, ok := FromContext(ctx); ok {
		t.Error("request context without org id must not be usable")
	}
}
