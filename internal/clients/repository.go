package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound means no client with that id exists in the tenant.
	ErrNotFound = errors.New("client not found")
	// ErrHasAppointments means the client cannot be deleted because
	// appointment history references it.
	ErrHasAppointments = errors.New("client has appointment history")
)

// Querier is the subset of pgx the repository uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists clients in Postgres.
type Repository struct {
	db Querier
}

func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

const clientColumns = `id, org_id, first_name, last_name, email, phone,
	vehicle_make, vehicle_model, vehicle_year, vehicle_color, vehicle_body_style, vehicle_plate,
	notes, created_at, updated_at`

func scanClient(row pgx.Row) (*Client, error) {
	var c Client
	err := row.Scan(&c.ID, &c.OrgID, &c.FirstName, &c.LastName, &c.Email, &c.Phone,
		&c.Vehicle.Make, &c.Vehicle.Model, &c.Vehicle.Year, &c.Vehicle.Color,
		&c.Vehicle.BodyStyle, &c.Vehicle.Plate, &c.Notes, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new client and fills in generated fields.
func (r *Repository) Create(ctx context.Context, c *Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO clients (id, org_id, first_name, last_name, email, phone,
			vehicle_make, vehicle_model, vehicle_year, vehicle_color, vehicle_body_style, vehicle_plate, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`,
		c.ID, c.OrgID, c.FirstName, c.LastName, c.Email, c.Phone,
		c.Vehicle.Make, c.Vehicle.Model, c.Vehicle.Year, c.Vehicle.Color,
		c.Vehicle.BodyStyle, c.Vehicle.Plate, c.Notes,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

// GetByID loads one client scoped to the tenant.
func (r *Repository) GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Client, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+clientColumns+` FROM clients WHERE org_id = $1 AND id = $2`,
		orgID, id)
	c, err := scanClient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

// Exists reports whether the client id belongs to the tenant. The booking
// flow uses it to reject cross-tenant references.
func (r *Repository) Exists(ctx context.Context, orgID string, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM clients WHERE org_id = $1 AND id = $2)`,
		orgID, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("client exists: %w", err)
	}
	return ok, nil
}

// Update replaces the mutable fields of a client.
func (r *Repository) Update(ctx context.Context, c *Client) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE clients
		SET first_name = $3, last_name = $4, email = $5, phone = $6,
		    vehicle_make = $7, vehicle_model = $8, vehicle_year = $9,
		    vehicle_color = $10, vehicle_body_style = $11, vehicle_plate = $12,
		    notes = $13, updated_at = now()
		WHERE org_id = $1 AND id = $2`,
		c.OrgID, c.ID, c.FirstName, c.LastName, c.Email, c.Phone,
		c.Vehicle.Make, c.Vehicle.Model, c.Vehicle.Year, c.Vehicle.Color,
		c.Vehicle.BodyStyle, c.Vehicle.Plate, c.Notes)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a client. Deletes are blocked by the appointment history
// foreign key; that surfaces as ErrHasAppointments.
func (r *Repository) Delete(ctx context.Context, orgID string, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx,
		`DELETE FROM clients WHERE org_id = $1 AND id = $2`, orgID, id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return ErrHasAppointments
		}
		return fmt.Errorf("delete client: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns tenant clients ordered by last name. Search does a
// case-insensitive match on name, email and phone.
func (r *Repository) List(ctx context.Context, orgID string, filter ListFilter) ([]Client, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	search := ""
	if filter.Search != "" {
		search = "%" + filter.Search + "%"
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+clientColumns+`
		FROM clients
		WHERE org_id = $1
		  AND ($2 = '' OR first_name ILIKE $2 OR last_name ILIKE $2 OR email ILIKE $2 OR phone ILIKE $2)
		ORDER BY last_name, first_name
		LIMIT $3 OFFSET $4`,
		orgID, search, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var out []Client
	for rows.Next() {
		c, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}
