package reminders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewStore(mock), mock
}

func TestFetchDueClaimsRows(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	id := uuid.New()

	rows := pgxmock.NewRows([]string{
		"id", "org_id", "appointment_id", "client_id", "channel", "status",
		"send_at", "attempts", "last_error", "created_at", "updated_at",
		"client_name", "email", "phone", "starts_at",
	}).AddRow(id, "org-1", uuid.New(), uuid.New(), ChannelEmail, StatusProcessing,
		now, 0, "", now, now, "Dana Reyes", "dana@example.com", "+15551230000", now.Add(24*time.Hour))

	mock.ExpectQuery(`UPDATE reminders`).WithArgs(int32(50)).WillReturnRows(rows)

	due, err := store.FetchDue(context.Background(), 50)
	if err != nil {
		t.Fatalf("fetch due failed: %v", err)
	}
	if len(due) != 1 || due[0].ID != id {
		t.Fatalf("unexpected due set: %#v", due)
	}
	if due[0].ClientEmail != "dana@example.com" {
		t.Errorf("contact details not joined: %#v", due[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

// A worker that dies between claiming a batch and marking it leaves rows in
// processing forever unless the claim query takes them back. FetchDue must
// therefore select stale processing rows alongside due pending ones.
func TestFetchDueReclaimsStaleProcessing(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now().UTC()
	id := uuid.New()

	rows := pgxmock.NewRows([]string{
		"id", "org_id", "appointment_id", "client_id", "channel", "status",
		"send_at", "attempts", "last_error", "created_at", "updated_at",
		"client_name", "email", "phone", "starts_at",
	}).AddRow(id, "org-1", uuid.New(), uuid.New(), ChannelSMS, StatusProcessing,
		now.Add(-time.Hour), 1, "carrier timeout", now.Add(-time.Hour), now.Add(-30*time.Minute),
		"Dana Reyes", "dana@example.com", "+15551230000", now.Add(2*time.Hour))

	mock.ExpectQuery(`(?s)UPDATE reminders r.*status = 'pending' AND send_at <= now\(\).*status = 'processing' AND updated_at < now\(\).*FOR UPDATE SKIP LOCKED`).
		WithArgs(int32(50)).
		WillReturnRows(rows)

	due, err := store.FetchDue(context.Background(), 50)
	if err != nil {
		t.Fatalf("fetch due failed: %v", err)
	}
	if len(due) != 1 || due[0].ID != id {
		t.Fatalf("stale processing row not reclaimed: %#v", due)
	}
	if due[0].Attempts != 1 {
		t.Errorf("reclaimed row must keep its attempt count, got %d", due[0].Attempts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMarkFailedDeadLetters(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()
	retryAt := time.Now().Add(time.Hour)

	mock.ExpectExec(`UPDATE reminders`).
		WithArgs(id, StatusDead, "carrier rejected", retryAt).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := store.MarkFailed(context.Background(), id, "carrier rejected", retryAt, true); err != nil {
		t.Fatalf("mark failed errored: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestMarkSentIncrementsAttempts(t *testing.T) {
	store, mock := newMockStore(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE reminders`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	if err := store.MarkSent(context.Background(), id); err != nil {
		t.Fatalf("mark sent errored: %v", err)
	}
}
