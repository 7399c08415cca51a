package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx used by the repository. Both *pgxpool.Pool and
// pgx.Tx satisfy it, so booking can run every write inside one transaction.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists appointments in Postgres.
type Repository struct {
	db Querier
}

func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

const apptColumns = `id, org_id, client_id, service_id, slot_id, starts_at, status,
	notes, rescheduled_from, created_at, updated_at, cancelled_at, completed_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.OrgID, &a.ClientID, &a.ServiceID, &a.SlotID,
		&a.StartsAt, &a.Status, &a.Notes, &a.RescheduledFrom,
		&a.CreatedAt, &a.UpdatedAt, &a.CancelledAt, &a.CompletedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Insert writes a new appointment row. The caller supplies the Querier so the
// insert can share a transaction with the slot claim.
func (r *Repository) Insert(ctx context.Context, q Querier, a *Appointment) error {
	err := q.QueryRow(ctx, `
		INSERT INTO appointments (id, org_id, client_id, service_id, slot_id, starts_at, status, notes, rescheduled_from)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at`,
		a.ID, a.OrgID, a.ClientID, a.ServiceID, a.SlotID, a.StartsAt, a.Status, a.Notes, a.RescheduledFrom,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

// GetByID loads one appointment scoped to the tenant.
func (r *Repository) GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Appointment, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+apptColumns+` FROM appointments WHERE org_id = $1 AND id = $2`,
		orgID, id)
	a, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

// UpdateStatus performs a guarded status change: the row is only updated when
// its current status matches from, so concurrent writers cannot skip states.
func (r *Repository) UpdateStatus(ctx context.Context, q Querier, orgID string, id uuid.UUID, from, to Status) (*Appointment, error) {
	var cancelledAt, completedAt any
	now := time.Now().UTC()
	switch to {
	case StatusCancelled:
		cancelledAt = now
	case StatusCompleted:
		completedAt = now
	}
	row := q.QueryRow(ctx, `
		UPDATE appointments
		SET status = $4,
		    cancelled_at = COALESCE($5, cancelled_at),
		    completed_at = COALESCE($6, completed_at),
		    updated_at = now()
		WHERE org_id = $1 AND id = $2 AND status = $3
		RETURNING `+apptColumns,
		orgID, id, from, to, cancelledAt, completedAt)
	a, err := scanAppointment(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	return a, nil
}

// List returns tenant appointments, newest start first.
func (r *Repository) List(ctx context.Context, orgID string, filter ListFilter) ([]Appointment, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+apptColumns+`
		FROM appointments
		WHERE org_id = $1
		  AND ($2::uuid IS NULL OR client_id = $2)
		  AND ($3::text IS NULL OR status = $3)
		  AND ($4::timestamptz IS NULL OR starts_at >= $4)
		  AND ($5::timestamptz IS NULL OR starts_at < $5)
		ORDER BY starts_at DESC
		LIMIT $6 OFFSET $7`,
		orgID, filter.ClientID, filter.Status, filter.From, filter.To, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}
