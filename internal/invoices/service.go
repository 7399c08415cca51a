package invoices

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/glossworks/detailing-platform/pkg/logging"
)

// EventPaid is emitted when an invoice is marked paid.
const EventPaid = "invoice.paid.v1"

// DB is the pool surface the service needs: plain queries plus transactions.
// *pgxpool.Pool satisfies it.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type outboxWriter interface {
	InsertTx(ctx context.Context, tx pgx.Tx, orgID, eventType string, payload any) error
}

type store interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Invoice, error)
	UpdateDraft(ctx context.Context, inv *Invoice) error
	UpdateStatus(ctx context.Context, q Querier, orgID string, id uuid.UUID, from, to Status) (*Invoice, error)
	List(ctx context.Context, orgID string, filter ListFilter) ([]Invoice, error)
}

// Service wraps the repository with lifecycle rules and the paid event.
type Service struct {
	db     DB
	store  store
	outbox outboxWriter
	logger *logging.Logger
}

func NewService(db DB, st store, outbox outboxWriter, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{db: db, store: st, outbox: outbox, logger: logger}
}

// Create inserts a new draft document.
func (s *Service) Create(ctx context.Context, inv *Invoice) error {
	return s.store.Create(ctx, inv)
}

// Get returns one document in the tenant.
func (s *Service) Get(ctx context.Context, orgID string, id uuid.UUID) (*Invoice, error) {
	return s.store.GetByID(ctx, orgID, id)
}

// UpdateDraft replaces the line items of a draft.
func (s *Service) UpdateDraft(ctx context.Context, inv *Invoice) error {
	return s.store.UpdateDraft(ctx, inv)
}

// List returns tenant documents matching the filter.
func (s *Service) List(ctx context.Context, orgID string, filter ListFilter) ([]Invoice, error) {
	return s.store.List(ctx, orgID, filter)
}

// Send marks a draft as sent and stamps issued_at.
func (s *Service) Send(ctx context.Context, orgID string, id uuid.UUID) (*Invoice, error) {
	return s.transition(ctx, orgID, id, StatusSent)
}

// Void cancels a draft or sent document.
func (s *Service) Void(ctx context.Context, orgID string, id uuid.UUID) (*Invoice, error) {
	return s.transition(ctx, orgID, id, StatusVoid)
}

func (s *Service) transition(ctx context.Context, orgID string, id uuid.UUID, to Status) (*Invoice, error) {
	inv, err := s.store.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == to {
		return inv, nil
	}
	if !inv.Status.CanTransition(to) {
		return nil, ErrInvalidTransition
	}
	return s.store.UpdateStatus(ctx, s.db, orgID, id, inv.Status, to)
}

// MarkPaid moves a sent invoice to paid and records the invoice.paid.v1
// event in the same transaction, so revenue analytics never miss a payment.
func (s *Service) MarkPaid(ctx context.Context, orgID string, id uuid.UUID) (*Invoice, error) {
	inv, err := s.store.GetByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if inv.Status == StatusPaid {
		return inv, nil
	}
	if !inv.Status.CanTransition(StatusPaid) {
		return nil, ErrInvalidTransition
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin paid tx: %w", err)
	}
	defer tx.Rollback(ctx)

	paid, err := s.store.UpdateStatus(ctx, tx, orgID, id, inv.Status, StatusPaid)
	if err != nil {
		return nil, err
	}
	if err := s.outbox.InsertTx(ctx, tx, orgID, EventPaid, map[string]any{
		"invoice_id":  id,
		"org_id":      orgID,
		"client_id":   inv.ClientID,
		"total_cents": inv.TotalCents,
	}); err != nil {
		return nil, fmt.Errorf("record paid event: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit paid tx: %w", err)
	}

	s.logger.Info("invoice paid", "org_id", orgID, "invoice_id", id, "total_cents", inv.TotalCents)
	return paid, nil
}
