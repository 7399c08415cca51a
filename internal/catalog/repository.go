package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrNotFound means no service with that id exists in the tenant.
var ErrNotFound = errors.New("service not found")

// Querier is the subset of pgx the repository uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists the service catalog in Postgres.
type Repository struct {
	db Querier
}

func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

const serviceColumns = `id, org_id, name, description, price_cents, duration_minutes, active, created_at, updated_at`

func scanService(row pgx.Row) (*Service, error) {
	var s Service
	err := row.Scan(&s.ID, &s.OrgID, &s.Name, &s.Description, &s.PriceCents,
		&s.DurationMinutes, &s.Active, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new active service.
func (r *Repository) Create(ctx context.Context, s *Service) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	s.Active = true
	err := r.db.QueryRow(ctx, `
		INSERT INTO services (id, org_id, name, description, price_cents, duration_minutes, active)
		VALUES ($1, $2, $3, $4, $5, $6, true)
		RETURNING created_at, updated_at`,
		s.ID, s.OrgID, s.Name, s.Description, s.PriceCents, s.DurationMinutes,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create service: %w", err)
	}
	return nil
}

// GetByID loads one service scoped to the tenant, active or not.
func (r *Repository) GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Service, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE org_id = $1 AND id = $2`,
		orgID, id)
	s, err := scanService(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	return s, nil
}

// GetMany loads the named services for the tenant. Missing or cross-tenant
// ids are simply absent from the result.
func (r *Repository) GetMany(ctx context.Context, orgID string, ids []uuid.UUID) ([]Service, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+serviceColumns+` FROM services WHERE org_id = $1 AND id = ANY($2)`,
		orgID, ids)
	if err != nil {
		return nil, fmt.Errorf("get services: %w", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// ActiveExists reports whether an active service with that id belongs to the
// tenant. Bookings may only reference active services.
func (r *Repository) ActiveExists(ctx context.Context, orgID string, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM services WHERE org_id = $1 AND id = $2 AND active)`,
		orgID, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("service exists: %w", err)
	}
	return ok, nil
}

// Update replaces the mutable fields of a service.
func (r *Repository) Update(ctx context.Context, s *Service) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE services
		SET name = $3, description = $4, price_cents = $5, duration_minutes = $6, updated_at = now()
		WHERE org_id = $1 AND id = $2`,
		s.OrgID, s.ID, s.Name, s.Description, s.PriceCents, s.DurationMinutes)
	if err != nil {
		return fmt.Errorf("update service: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetActive toggles a service on or off the menu.
func (r *Repository) SetActive(ctx context.Context, orgID string, id uuid.UUID, active bool) error {
	ct, err := r.db.Exec(ctx,
		`UPDATE services SET active = $3, updated_at = now() WHERE org_id = $1 AND id = $2`,
		orgID, id, active)
	if err != nil {
		return fmt.Errorf("set service active: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns the tenant's services ordered by name.
func (r *Repository) List(ctx context.Context, orgID string, filter ListFilter) ([]Service, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+serviceColumns+`
		FROM services
		WHERE org_id = $1 AND (active OR $2)
		ORDER BY name`,
		orgID, filter.IncludeInactive)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}
