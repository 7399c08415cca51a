package slots

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is satisfied by *pgxpool.Pool and pgx.Tx, so callers can run slot
// operations inside their own transactions.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores slots in Postgres. Every statement filters on org_id;
// there is no unscoped access path.
type Repository struct {
	db Querier
}

// NewRepository initializes a repo backed by a pgx pool (or tx).
func NewRepository(db Querier) *Repository {
	if db == nil {
		panic("slots: querier required")
	}
	return &Repository{db: db}
}

// Open publishes a slot for booking. Re-opening an existing open slot is
// idempotent; re-opening a booked slot fails with ErrSlotBooked.
func (r *Repository) Open(ctx context.Context, orgID string, startsAt time.Time) (*Slot, error) {
	id := uuid.New()
	query := `
		INSERT INTO slots (id, org_id, starts_at, is_available)
		VALUES ($1, $2, $3, true)
		ON CONFLICT (org_id, starts_at)
		DO UPDATE SET updated_at = now()
		WHERE slots.is_available
		RETURNING id, is_available, created_at, updated_at
	`
	slot := Slot{OrgID: orgID, StartsAt: startsAt.UTC()}
	err := r.db.QueryRow(ctx, query, id, orgID, startsAt.UTC()).
		Scan(&slot.ID, &slot.IsAvailable, &slot.CreatedAt, &slot.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotBooked
		}
		return nil, fmt.Errorf("slots: open failed: %w", err)
	}
	return &slot, nil
}

// Close withdraws a slot from booking.
func (r *Repository) Close(ctx context.Context, orgID string, id uuid.UUID) error {
	query := `
		UPDATE slots
		SET is_available = false, updated_at = now()
		WHERE id = $1 AND org_id = $2
	`
	ct, err := r.db.Exec(ctx, query, id, orgID)
	if err != nil {
		return fmt.Errorf("slots: close failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrSlotNotFound
	}
	return nil
}

// Claim atomically marks the slot at startsAt unavailable and returns its id.
// The conditional WHERE guarantees a single winner under concurrent callers.
func (r *Repository) Claim(ctx context.Context, q Querier, orgID string, startsAt time.Time) (uuid.UUID, error) {
	if q == nil {
		q = r.db
	}
	query := `
		UPDATE slots
		SET is_available = false, updated_at = now()
		WHERE org_id = $1 AND starts_at = $2 AND is_available
		RETURNING id
	`
	var id uuid.UUID
	if err := q.QueryRow(ctx, query, orgID, startsAt.UTC()).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrSlotNotAvailable
		}
		return uuid.Nil, fmt.Errorf("slots: claim failed: %w", err)
	}
	return id, nil
}

// Release re-opens a claimed slot, e.g. after a cancellation. Releasing an
// already-open slot is a no-op.
func (r *Repository) Release(ctx context.Context, q Querier, orgID string, id uuid.UUID) error {
	if q == nil {
		q = r.db
	}
	query := `
		UPDATE slots
		SET is_available = true, updated_at = now()
		WHERE id = $1 AND org_id = $2 AND NOT is_available
	`
	if _, err := q.Exec(ctx, query, id, orgID); err != nil {
		return fmt.Errorf("slots: release failed: %w", err)
	}
	return nil
}

// GetByID fetches a slot scoped to the org.
func (r *Repository) GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Slot, error) {
	query := `
		SELECT id, org_id, starts_at, is_available, created_at, updated_at
		FROM slots
		WHERE id = $1 AND org_id = $2
	`
	var slot Slot
	err := r.db.QueryRow(ctx, query, id, orgID).Scan(
		&slot.ID, &slot.OrgID, &slot.StartsAt, &slot.IsAvailable, &slot.CreatedAt, &slot.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSlotNotFound
		}
		return nil, fmt.Errorf("slots: select failed: %w", err)
	}
	return &slot, nil
}

// List returns slots for the tenant ordered by start time.
func (r *Repository) List(ctx context.Context, orgID string, filter ListFilter) ([]Slot, error) {
	if filter.Limit <= 0 || filter.Limit > 500 {
		filter.Limit = 100
	}
	query := `
		SELECT id, org_id, starts_at, is_available, created_at, updated_at
		FROM slots
		WHERE org_id = $1
		  AND ($2::timestamptz IS NULL OR starts_at >= $2)
		  AND ($3::timestamptz IS NULL OR starts_at < $3)
		  AND (NOT $4::bool OR is_available)
		ORDER BY starts_at
		LIMIT $5
	`
	rows, err := r.db.Query(ctx, query, orgID, filter.From, filter.To, filter.OnlyAvailable, filter.Limit)
	if err != nil {
		return nil, fmt.Errorf("slots: list failed: %w", err)
	}
	defer rows.Close()

	var out []Slot
	for rows.Next() {
		var slot Slot
		if err := rows.Scan(&slot.ID, &slot.OrgID, &slot.StartsAt, &slot.IsAvailable, &slot.CreatedAt, &slot.UpdatedAt); err != nil {
			return nil, fmt.Errorf("slots: scan failed: %w", err)
		}
		out = append(out, slot)
	}
	return out, rows.Err()
}
