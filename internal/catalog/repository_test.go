package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
)

func newMockRepo(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	t.Cleanup(mock.Close)
	return NewRepository(mock), mock
}

func TestCreateServiceActivatesByDefault(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now().UTC()
	s := &Service{OrgID: "org-1", Name: "Full Detail", PriceCents: 25000, DurationMinutes: 180}

	mock.ExpectQuery(`INSERT INTO services`).
		WithArgs(pgxmock.AnyArg(), "org-1", "Full Detail", "", int64(25000), 180).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	if err := repo.Create(context.Background(), s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Active {
		t.Error("new services must start active")
	}
	if s.ID == uuid.Nil {
		t.Error("expected a generated id")
	}
}

func TestActiveExistsIgnoresDeactivated(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("org-1", id).
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))

	ok, err := repo.ActiveExists(context.Background(), "org-1", id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("deactivated service must not be bookable")
	}
}

func TestSetActiveNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectExec(`UPDATE services`).
		WithArgs("org-1", id, false).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.SetActive(context.Background(), "org-1", id, false)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListHidesInactiveByDefault(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()
	id := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM services`).
		WithArgs("org-1", false).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "org_id", "name", "description", "price_cents", "duration_minutes", "active", "created_at", "updated_at",
		}).AddRow(id, "org-1", "Wash", "", int64(5000), 45, true, now, now))

	list, err := repo.List(context.Background(), "org-1", ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 1 || list[0].ID != id {
		t.Errorf("unexpected result: %+v", list)
	}
}
