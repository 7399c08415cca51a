package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/glossworks/detailing-platform/pkg/logging"
)

func testLogger() *logging.Logger {
	return logging.NewWithWriter("error", io.Discard)
}

func TestTelnyxSenderPostsPayload(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key-123" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"data":{"id":"msg-1","status":"queued"}}`))
	}))
	defer srv.Close()

	sender := NewTelnyxSender("key-123", "profile-9", testLogger()).WithAPIURL(srv.URL)
	err := sender.Send(context.Background(), SMSMessage{
		OrgID: "org-1", To: "+15551230000", From: "+15559990000", Body: "Your detail is tomorrow at 9am",
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if got["to"] != "+15551230000" || got["text"] != "Your detail is tomorrow at 9am" {
		t.Errorf("unexpected payload: %v", got)
	}
	if got["messaging_profile_id"] != "profile-9" {
		t.Errorf("messaging profile not forwarded: %v", got)
	}
}

func TestTelnyxSenderRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	sender := NewTelnyxSender("key-123", "", testLogger()).WithAPIURL(srv.URL)
	err := sender.Send(context.Background(), SMSMessage{
		OrgID: "org-1", To: "+15551230000", From: "+15559990000", Body: "hi",
	})
	if err != nil {
		t.Fatalf("send should succeed on third attempt: %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

// A 4xx other than rate limiting means the request is malformed; repeating
// it just burns API quota while the reminder worker waits.
func TestTelnyxSenderDoesNotRetryPermanentFailures(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"errors":[{"code":"40310","title":"Invalid destination number"}]}`))
	}))
	defer srv.Close()

	sender := NewTelnyxSender("key-123", "", testLogger()).WithAPIURL(srv.URL)
	err := sender.Send(context.Background(), SMSMessage{
		OrgID: "org-1", To: "+15551230000", From: "+15559990000", Body: "hi",
	})
	if err == nil {
		t.Fatal("expected error for rejected message")
	}
	if calls.Load() != 1 {
		t.Errorf("permanent failure must not be retried, got %d attempts", calls.Load())
	}
}

func TestTelnyxSenderValidatesInput(t *testing.T) {
	sender := NewTelnyxSender("key-123", "", testLogger())
	cases := []SMSMessage{
		{From: "+15559990000", Body: "hi"},
		{To: "+15551230000", Body: "hi"},
		{To: "+15551230000", From: "+15559990000", Body: "  "},
	}
	for _, msg := range cases {
		if err := sender.Send(context.Background(), msg); err == nil {
			t.Errorf("expected validation error for %+v", msg)
		}
	}
}

func TestTelnyxSenderRequiresAPIKey(t *testing.T) {
	sender := NewTelnyxSender("", "", testLogger())
	err := sender.Send(context.Background(), SMSMessage{To: "+1", From: "+2", Body: "hi"})
	if err == nil {
		t.Fatal("expected error without api key")
	}
}
