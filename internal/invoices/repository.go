package invoices

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound means no invoice with that id exists in the tenant.
	ErrNotFound = errors.New("invoice not found")
	// ErrInvalidTransition means the requested status change is not allowed.
	ErrInvalidTransition = errors.New("invalid invoice status transition")
)

// Querier is the subset of pgx the repository uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists invoices in Postgres. Line items live in a jsonb
// column; pgx marshals them through the json codec.
type Repository struct {
	db Querier
}

func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

const invoiceColumns = `id, org_id, client_id, appointment_id, kind, status,
	line_items, total_cents, issued_at, paid_at, created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.OrgID, &inv.ClientID, &inv.AppointmentID,
		&inv.Kind, &inv.Status, &inv.LineItems, &inv.TotalCents,
		&inv.IssuedAt, &inv.PaidAt, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create inserts a draft document.
func (r *Repository) Create(ctx context.Context, inv *Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	inv.Status = StatusDraft
	inv.TotalCents = Total(inv.LineItems)
	err := r.db.QueryRow(ctx, `
		INSERT INTO invoices (id, org_id, client_id, appointment_id, kind, status, line_items, total_cents)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		inv.ID, inv.OrgID, inv.ClientID, inv.AppointmentID, inv.Kind, inv.Status,
		inv.LineItems, inv.TotalCents,
	).Scan(&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

// GetByID loads one document scoped to the tenant.
func (r *Repository) GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Invoice, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE org_id = $1 AND id = $2`,
		orgID, id)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// UpdateDraft replaces the line items of a draft. Sent and later documents
// are immutable.
func (r *Repository) UpdateDraft(ctx context.Context, inv *Invoice) error {
	inv.TotalCents = Total(inv.LineItems)
	ct, err := r.db.Exec(ctx, `
		UPDATE invoices
		SET line_items = $3, total_cents = $4, updated_at = now()
		WHERE org_id = $1 AND id = $2 AND status = 'draft'`,
		inv.OrgID, inv.ID, inv.LineItems, inv.TotalCents)
	if err != nil {
		return fmt.Errorf("update invoice: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

// UpdateStatus performs a guarded status change with the matching timestamp.
func (r *Repository) UpdateStatus(ctx context.Context, q Querier, orgID string, id uuid.UUID, from, to Status) (*Invoice, error) {
	row := q.QueryRow(ctx, `
		UPDATE invoices
		SET status = $4,
		    issued_at = CASE WHEN $4 = 'sent' THEN now() ELSE issued_at END,
		    paid_at = CASE WHEN $4 = 'paid' THEN now() ELSE paid_at END,
		    updated_at = now()
		WHERE org_id = $1 AND id = $2 AND status = $3
		RETURNING `+invoiceColumns,
		orgID, id, from, to)
	inv, err := scanInvoice(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInvalidTransition
	}
	if err != nil {
		return nil, fmt.Errorf("update invoice status: %w", err)
	}
	return inv, nil
}

// List returns tenant documents, newest first.
func (r *Repository) List(ctx context.Context, orgID string, filter ListFilter) ([]Invoice, error) {
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+invoiceColumns+`
		FROM invoices
		WHERE org_id = $1
		  AND ($2::uuid IS NULL OR client_id = $2)
		  AND ($3::text IS NULL OR kind = $3)
		  AND ($4::text IS NULL OR status = $4)
		ORDER BY created_at DESC
		LIMIT $5 OFFSET $6`,
		orgID, filter.ClientID, filter.Kind, filter.Status, limit, filter.Offset)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var out []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}
