package invoices

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/glossworks/detailing-platform/pkg/logging"
)

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusDraft, StatusSent, true},
		{StatusDraft, StatusVoid, true},
		{StatusDraft, StatusPaid, false},
		{StatusSent, StatusPaid, true},
		{StatusSent, StatusVoid, true},
		{StatusSent, StatusDraft, false},
		{StatusPaid, StatusVoid, false},
		{StatusVoid, StatusSent, false},
	}
	for _, tc := range cases {
		t.Run(string(tc.from)+"_to_"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransition(tc.to))
		})
	}
}

func TestTotalSumsLineItems(t *testing.T) {
	items := []LineItem{
		{Description: "Exterior wash", AmountCents: 5000},
		{Description: "Interior shampoo", AmountCents: 12000},
	}
	assert.Equal(t, int64(17000), Total(items))
	assert.Equal(t, int64(0), Total(nil))
}

type fakeTx struct {
	pgx.Tx
	commits   int
	rollbacks int
}

func (t *fakeTx) Commit(ctx context.Context) error   { t.commits++; return nil }
func (t *fakeTx) Rollback(ctx context.Context) error { t.rollbacks++; return nil }

type fakeDB struct {
	tx *fakeTx
}

func (d *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) { return d.tx, nil }
func (d *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (d *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (d *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }

type fakeStore struct {
	byID map[uuid.UUID]*Invoice
}

func newFakeStore(invs ...*Invoice) *fakeStore {
	s := &fakeStore{byID: make(map[uuid.UUID]*Invoice)}
	for _, inv := range invs {
		s.byID[inv.ID] = inv
	}
	return s
}

func (s *fakeStore) Create(ctx context.Context, inv *Invoice) error {
	inv.Status = StatusDraft
	s.byID[inv.ID] = inv
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, orgID string, id uuid.UUID) (*Invoice, error) {
	inv, ok := s.byID[id]
	if !ok || inv.OrgID != orgID {
		return nil, ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (s *fakeStore) UpdateDraft(ctx context.Context, inv *Invoice) error { return nil }

func (s *fakeStore) UpdateStatus(ctx context.Context, q Querier, orgID string, id uuid.UUID, from, to Status) (*Invoice, error) {
	inv, ok := s.byID[id]
	if !ok || inv.Status != from {
		return nil, ErrInvalidTransition
	}
	inv.Status = to
	cp := *inv
	return &cp, nil
}

func (s *fakeStore) List(ctx context.Context, orgID string, filter ListFilter) ([]Invoice, error) {
	return nil, nil
}

type fakeOutbox struct {
	events []string
}

func (f *fakeOutbox) InsertTx(ctx context.Context, tx pgx.Tx, orgID, eventType string, payload any) error {
	f.events = append(f.events, eventType)
	return nil
}

func TestMarkPaidEmitsEvent(t *testing.T) {
	inv := &Invoice{ID: uuid.New(), OrgID: "org-1", ClientID: uuid.New(), Kind: KindInvoice, Status: StatusSent, TotalCents: 17000}
	tx := &fakeTx{}
	outbox := &fakeOutbox{}
	svc := NewService(&fakeDB{tx: tx}, newFakeStore(inv), outbox, logging.NewWithWriter("error", io.Discard))

	paid, err := svc.MarkPaid(context.Background(), "org-1", inv.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, paid.Status)
	assert.Equal(t, 1, tx.commits)
	assert.Equal(t, []string{EventPaid}, outbox.events)
}

func TestMarkPaidIsIdempotent(t *testing.T) {
	inv := &Invoice{ID: uuid.New(), OrgID: "org-1", Status: StatusPaid}
	tx := &fakeTx{}
	outbox := &fakeOutbox{}
	svc := NewService(&fakeDB{tx: tx}, newFakeStore(inv), outbox, logging.NewWithWriter("error", io.Discard))

	paid, err := svc.MarkPaid(context.Background(), "org-1", inv.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusPaid, paid.Status)
	assert.Zero(t, tx.commits, "no transaction for an already-paid invoice")
	assert.Empty(t, outbox.events, "paid event must only be emitted once")
}

func TestMarkPaidRejectsDraft(t *testing.T) {
	inv := &Invoice{ID: uuid.New(), OrgID: "org-1", Status: StatusDraft}
	svc := NewService(&fakeDB{tx: &fakeTx{}}, newFakeStore(inv), &fakeOutbox{}, logging.NewWithWriter("error", io.Discard))

	_, err := svc.MarkPaid(context.Background(), "org-1", inv.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestVoidSentInvoice(t *testing.T) {
	inv := &Invoice{ID: uuid.New(), OrgID: "org-1", Status: StatusSent}
	svc := NewService(&fakeDB{tx: &fakeTx{}}, newFakeStore(inv), &fakeOutbox{}, logging.NewWithWriter("error", io.Discard))

	voided, err := svc.Void(context.Background(), "org-1", inv.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusVoid, voided.Status)
}

func TestCrossTenantInvoiceHidden(t *testing.T) {
	inv := &Invoice{ID: uuid.New(), OrgID: "org-1", Status: StatusSent}
	svc := NewService(&fakeDB{tx: &fakeTx{}}, newFakeStore(inv), &fakeOutbox{}, logging.NewWithWriter("error", io.Discard))

	_, err := svc.MarkPaid(context.Background(), "org-2", inv.ID)
	require.ErrorIs(t, err, ErrNotFound)
}
