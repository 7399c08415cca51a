package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"

	"github.com/glossworks/detailing-platform/pkg/logging"
)

func TestOutboxStoreFlow(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := NewOutboxStore(mock)
	ctx := context.Background()

	mock.ExpectBegin()
	tx, err := mock.Begin(ctx)
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	mock.ExpectExec("INSERT INTO outbox").WithArgs(pgxmock.AnyArg(), "org-1", "appointment.booked.v1", pgxmock.AnyArg()).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	if err := store.InsertTx(ctx, tx, "org-1", "appointment.booked.v1", map[string]string{"foo": "bar"}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	mock.ExpectCommit()
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	now := time.Now().UTC()
	id := uuid.New()
	rows := pgxmock.NewRows([]string{"id", "org_id", "type", "payload", "created_at"}).AddRow(id, "org-1", "appointment.booked.v1", []byte("{\"foo\":\"bar\"}"), now)
	mock.ExpectQuery("UPDATE outbox o").WithArgs(int32(10)).WillReturnRows(rows)

	entries, err := store.FetchPending(ctx, 10)
	if err != nil {
		t.Fatalf("fetch pending failed: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != id {
		t.Fatalf("unexpected entries: %#v", entries)
	}

	mock.ExpectExec("UPDATE outbox").WithArgs(id).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	ok, err := store.MarkDelivered(ctx, id)
	if err != nil {
		t.Fatalf("mark delivered failed: %v", err)
	}
	if !ok {
		t.Fatal("expected mark delivered to report success")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// FetchPending must claim the batch, not just read it: a plain SELECT would
// hand the same rows to every poller replica.
func TestFetchPendingClaimsRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("failed to create pgx mock: %v", err)
	}
	defer mock.Close()

	store := NewOutboxStore(mock)

	rows := pgxmock.NewRows([]string{"id", "org_id", "type", "payload", "created_at"}).
		AddRow(uuid.New(), "org-1", "invoice.paid.v1", []byte(`{}`), time.Now().UTC())
	mock.ExpectQuery(`(?s)UPDATE outbox o\s+SET claimed_at = now\(\).*claimed_at IS NULL OR claimed_at <.*FOR UPDATE SKIP LOCKED`).
		WithArgs(int32(25)).
		WillReturnRows(rows)

	entries, err := store.FetchPending(context.Background(), 25)
	if err != nil {
		t.Fatalf("fetch pending failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one claimed entry, got %d", len(entries))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

type fakeSource struct {
	entries   []OutboxEntry
	claimed   map[uuid.UUID]bool
	delivered []uuid.UUID
}

// FetchPending mirrors the store contract: a fetched entry is claimed and
// stays out of later batches.
func (f *fakeSource) FetchPending(ctx context.Context, limit int32) ([]OutboxEntry, error) {
	if f.claimed == nil {
		f.claimed = make(map[uuid.UUID]bool)
	}
	var out []OutboxEntry
	for _, e := range f.entries {
		if f.claimed[e.ID] {
			continue
		}
		f.claimed[e.ID] = true
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeSource) MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error) {
	f.delivered = append(f.delivered, id)
	return true, nil
}

type recordingHandler struct {
	handled []OutboxEntry
	fail    map[uuid.UUID]bool
}

func (h *recordingHandler) Handle(ctx context.Context, entry OutboxEntry) error {
	if h.fail[entry.ID] {
		return errors.New("downstream unavailable")
	}
	h.handled = append(h.handled, entry)
	return nil
}

func TestDelivererSkipsFailedEntries(t *testing.T) {
	good := OutboxEntry{ID: uuid.New(), OrgID: "org-1", Type: "appointment.booked.v1", Payload: json.RawMessage(`{}`)}
	bad := OutboxEntry{ID: uuid.New(), OrgID: "org-1", Type: "invoice.paid.v1", Payload: json.RawMessage(`{}`)}
	source := &fakeSource{entries: []OutboxEntry{bad, good}}
	handler := &recordingHandler{fail: map[uuid.UUID]bool{bad.ID: true}}

	d := NewDeliverer(source, handler, logging.NewWithWriter("error", io.Discard))
	d.drain(context.Background())

	if len(handler.handled) != 1 || handler.handled[0].ID != good.ID {
		t.Fatalf("unexpected handled set: %#v", handler.handled)
	}
	if len(source.delivered) != 1 || source.delivered[0] != good.ID {
		t.Fatalf("failed entry must stay pending: %#v", source.delivered)
	}
}

// Two deliverers draining the same outbox must not both emit the same entry.
func TestDelivererDoesNotDoubleSend(t *testing.T) {
	entry := OutboxEntry{ID: uuid.New(), OrgID: "org-1", Type: "appointment.booked.v1", Payload: json.RawMessage(`{}`)}
	source := &fakeSource{entries: []OutboxEntry{entry}}
	handler := &recordingHandler{}
	logger := logging.NewWithWriter("error", io.Discard)

	NewDeliverer(source, handler, logger).drain(context.Background())
	NewDeliverer(source, handler, logger).drain(context.Background())

	if len(handler.handled) != 1 {
		t.Fatalf("expected exactly one delivery, got %d", len(handler.handled))
	}
	if len(source.delivered) != 1 || source.delivered[0] != entry.ID {
		t.Fatalf("unexpected delivered set: %#v", source.delivered)
	}
}
