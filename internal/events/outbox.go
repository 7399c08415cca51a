// Package events provides the transactional outbox: domain events are written
// in the same transaction as the state change that caused them, then a poller
// delivers them to the downstream queue.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/glossworks/detailing-platform/pkg/logging"
)

// OutboxEntry represents a pending event.
type OutboxEntry struct {
	ID        uuid.UUID
	OrgID     string
	Type      string
	Payload   json.RawMessage
	CreatedAt time.Time
}

// DeliveryHandler emits events to downstream transports.
type DeliveryHandler interface {
	Handle(ctx context.Context, entry OutboxEntry) error
}

// Querier is the subset of pgx the store uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// OutboxStore persists events for reliable delivery.
type OutboxStore struct {
	db Querier
}

func NewOutboxStore(db Querier) *OutboxStore {
	if db == nil {
		panic("events: db required")
	}
	return &OutboxStore{db: db}
}

// InsertTx records an event inside the caller's transaction, so the event
// exists exactly when the state change it describes commits.
func (s *OutboxStore) InsertTx(ctx context.Context, tx pgx.Tx, orgID, eventType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: marshal payload: %w", err)
	}
	query := `
		INSERT INTO outbox (id, org_id, type, payload)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.Exec(ctx, query, uuid.New(), orgID, eventType, data); err != nil {
		return fmt.Errorf("events: insert outbox: %w", err)
	}
	return nil
}

// FetchPending claims undelivered events, oldest first. The claim keeps
// concurrent pollers off the same batch, and skip-locked keeps them from
// blocking each other. A claim expires after one minute, so entries held by
// a poller that crashed mid-delivery become fetchable again; delivery is
// at-least-once.
func (s *OutboxStore) FetchPending(ctx context.Context, limit int32) ([]OutboxEntry, error) {
	query := `
		UPDATE outbox o
		SET claimed_at = now()
		FROM (
			SELECT id
			FROM outbox
			WHERE delivered_at IS NULL
			  AND (claimed_at IS NULL OR claimed_at < now() - interval '1 minute')
			ORDER BY created_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		) pending
		WHERE o.id = pending.id
		RETURNING o.id, o.org_id, o.type, o.payload, o.created_at
	`
	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("events: fetch pending: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var entry OutboxEntry
		var payload []byte
		if err := rows.Scan(&entry.ID, &entry.OrgID, &entry.Type, &payload, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("events: scan outbox: %w", err)
		}
		entry.Payload = append([]byte(nil), payload...)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// MarkDelivered stamps an event as delivered. Returns false when another
// poller already claimed it.
func (s *OutboxStore) MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error) {
	query := `
		UPDATE outbox
		SET delivered_at = now()
		WHERE id = $1 AND delivered_at IS NULL
	`
	ct, err := s.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("events: mark delivered: %w", err)
	}
	return ct.RowsAffected() == 1, nil
}

type outboxSource interface {
	FetchPending(ctx context.Context, limit int32) ([]OutboxEntry, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) (bool, error)
}

// Deliverer polls the outbox and invokes the handler.
type Deliverer struct {
	store     outboxSource
	handler   DeliveryHandler
	logger    *logging.Logger
	batchSize int32
	interval  time.Duration
}

func NewDeliverer(store outboxSource, handler DeliveryHandler, logger *logging.Logger) *Deliverer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Deliverer{
		store:     store,
		handler:   handler,
		logger:    logger,
		batchSize: 25,
		interval:  2 * time.Second,
	}
}

func (d *Deliverer) WithBatchSize(size int32) *Deliverer {
	if size > 0 {
		d.batchSize = size
	}
	return d
}

func (d *Deliverer) WithInterval(interval time.Duration) *Deliverer {
	if interval > 0 {
		d.interval = interval
	}
	return d
}

// Start polls until the context is cancelled.
func (d *Deliverer) Start(ctx context.Context) {
	if d.store == nil || d.handler == nil {
		return
	}
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.drain(ctx)
		}
	}
}

func (d *Deliverer) drain(ctx context.Context) {
	entries, err := d.store.FetchPending(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("outbox fetch failed", "error", err)
		return
	}
	for _, entry := range entries {
		if err := d.handler.Handle(ctx, entry); err != nil {
			d.logger.Error("outbox delivery failed", "error", err, "event_id", entry.ID, "type", entry.Type)
			continue
		}
		if ok, err := d.store.MarkDelivered(ctx, entry.ID); err != nil {
			d.logger.Error("failed to mark outbox delivered", "error", err, "event_id", entry.ID)
		} else if ok {
			d.logger.Debug("outbox delivered", "event_id", entry.ID, "type", entry.Type)
		}
	}
}
