package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx the store uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists reminders in Postgres.
type Store struct {
	db Querier
}

func NewStore(db Querier) *Store {
	return &Store{db: db}
}

// InsertTx writes a pending reminder inside the caller's transaction.
func (s *Store) InsertTx(ctx context.Context, tx pgx.Tx, r *Reminder) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.Status = StatusPending
	_, err := tx.Exec(ctx, `
		INSERT INTO reminders (id, org_id, appointment_id, client_id, channel, status, send_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		r.ID, r.OrgID, r.AppointmentID, r.ClientID, r.Channel, r.Status, r.SendAt)
	if err != nil {
		return fmt.Errorf("reminders: insert: %w", err)
	}
	return nil
}

// CancelForAppointmentTx cancels every undelivered reminder for an
// appointment inside the caller's transaction.
func (s *Store) CancelForAppointmentTx(ctx context.Context, tx pgx.Tx, orgID string, appointmentID uuid.UUID) error {
	_, err := tx.Exec(ctx, `
		UPDATE reminders
		SET status = 'cancelled', updated_at = now()
		WHERE org_id = $1 AND appointment_id = $2 AND status IN ('pending', 'processing')`,
		orgID, appointmentID)
	if err != nil {
		return fmt.Errorf("reminders: cancel for appointment: %w", err)
	}
	return nil
}

// FetchDue claims up to limit due reminders. SKIP LOCKED lets multiple worker
// replicas drain the queue without handing the same row to two of them.
// Rows stuck in processing are reclaimed after ten minutes: a worker that
// crashed between claiming and marking leaves its batch behind, and the
// stale claim must not strand those reminders.
func (s *Store) FetchDue(ctx context.Context, limit int32) ([]DueReminder, error) {
	rows, err := s.db.Query(ctx, `
		UPDATE reminders r
		SET status = 'processing', updated_at = now()
		FROM (
			SELECT id FROM reminders
			WHERE (status = 'pending' AND send_at <= now())
			   OR (status = 'processing' AND updated_at < now() - interval '10 minutes')
			ORDER BY send_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		) due,
		appointments a,
		clients c
		WHERE r.id = due.id AND a.id = r.appointment_id AND c.id = r.client_id
		RETURNING r.id, r.org_id, r.appointment_id, r.client_id, r.channel, r.status,
			r.send_at, r.attempts, COALESCE(r.last_error, ''), r.created_at, r.updated_at,
			trim(c.first_name || ' ' || c.last_name), c.email, c.phone, a.starts_at`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("reminders: fetch due: %w", err)
	}
	defer rows.Close()

	var out []DueReminder
	for rows.Next() {
		var d DueReminder
		err := rows.Scan(&d.ID, &d.OrgID, &d.AppointmentID, &d.ClientID, &d.Channel,
			&d.Status, &d.SendAt, &d.Attempts, &d.LastError, &d.CreatedAt, &d.UpdatedAt,
			&d.ClientName, &d.ClientEmail, &d.ClientPhone, &d.StartsAt)
		if err != nil {
			return nil, fmt.Errorf("reminders: scan due: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// MarkSent records a successful delivery.
func (s *Store) MarkSent(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.Exec(ctx, `
		UPDATE reminders
		SET status = 'sent', attempts = attempts + 1, updated_at = now()
		WHERE id = $1`,
		id)
	if err != nil {
		return fmt.Errorf("reminders: mark sent: %w", err)
	}
	return nil
}

// MarkFailed records a failed attempt. When the attempt budget is exhausted
// the row moves to the dead state; otherwise it returns to pending with the
// given retry time.
func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, sendErr string, retryAt time.Time, dead bool) error {
	status := StatusPending
	if dead {
		status = StatusDead
	}
	_, err := s.db.Exec(ctx, `
		UPDATE reminders
		SET status = $2, attempts = attempts + 1, last_error = $3, send_at = $4, updated_at = now()
		WHERE id = $1`,
		id, status, sendErr, retryAt)
	if err != nil {
		return fmt.Errorf("reminders: mark failed: %w", err)
	}
	return nil
}

// ListForAppointment returns all reminders for one appointment, oldest first.
func (s *Store) ListForAppointment(ctx context.Context, orgID string, appointmentID uuid.UUID) ([]Reminder, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, org_id, appointment_id, client_id, channel, status, send_at,
			attempts, COALESCE(last_error, ''), created_at, updated_at
		FROM reminders
		WHERE org_id = $1 AND appointment_id = $2
		ORDER BY send_at`,
		orgID, appointmentID)
	if err != nil {
		return nil, fmt.Errorf("reminders: list for appointment: %w", err)
	}
	defer rows.Close()

	var out []Reminder
	for rows.Next() {
		var r Reminder
		err := rows.Scan(&r.ID, &r.OrgID, &r.AppointmentID, &r.ClientID, &r.Channel,
			&r.Status, &r.SendAt, &r.Attempts, &r.LastError, &r.CreatedAt, &r.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("reminders: scan: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
