// Package analytics aggregates booking and revenue figures for tenant
// dashboards and the cross-tenant admin overview.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx the repository uses.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DayCount is a per-day tally for timeline charts.
type DayCount struct {
	Day   time.Time `json:"day"`
	Count int       `json:"count"`
}

// DayRevenue is a per-day paid revenue figure.
type DayRevenue struct {
	Day          time.Time `json:"day"`
	RevenueCents int64     `json:"revenue_cents"`
}

// Summary is the headline block of a tenant dashboard.
type Summary struct {
	TotalAppointments int     `json:"total_appointments"`
	Upcoming          int     `json:"upcoming"`
	Completed         int     `json:"completed"`
	Cancelled         int     `json:"cancelled"`
	NoShows           int     `json:"no_shows"`
	NoShowRate        float64 `json:"no_show_rate"`
	RevenueCents      int64   `json:"revenue_cents"`
	OpenSlots         int     `json:"open_slots"`
}

// Repository reads tenant aggregates from Postgres.
type Repository struct {
	db Querier
}

func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

// Summary computes the headline figures for one tenant.
func (r *Repository) Summary(ctx context.Context, orgID string, now time.Time) (*Summary, error) {
	var s Summary
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'scheduled' AND starts_at >= $2),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COUNT(*) FILTER (WHERE status = 'no_show')
		FROM appointments
		WHERE org_id = $1`,
		orgID, now,
	).Scan(&s.TotalAppointments, &s.Upcoming, &s.Completed, &s.Cancelled, &s.NoShows)
	if err != nil {
		return nil, fmt.Errorf("analytics: summary counts: %w", err)
	}

	finished := s.Completed + s.NoShows
	if finished > 0 {
		s.NoShowRate = float64(s.NoShows) / float64(finished) * 100
	}

	err = r.db.QueryRow(ctx, `
		SELECT COALESCE(SUM(total_cents), 0)
		FROM invoices
		WHERE org_id = $1 AND kind = 'invoice' AND status = 'paid'`,
		orgID,
	).Scan(&s.RevenueCents)
	if err != nil {
		return nil, fmt.Errorf("analytics: summary revenue: %w", err)
	}

	err = r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM slots
		WHERE org_id = $1 AND is_available AND starts_at >= $2`,
		orgID, now,
	).Scan(&s.OpenSlots)
	if err != nil {
		return nil, fmt.Errorf("analytics: summary open slots: %w", err)
	}
	return &s, nil
}

// BookingsByDay tallies appointments per day over [from, to).
func (r *Repository) BookingsByDay(ctx context.Context, orgID string, from, to time.Time) ([]DayCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT date_trunc('day', starts_at) AS day, COUNT(*)
		FROM appointments
		WHERE org_id = $1 AND starts_at >= $2 AND starts_at < $3
		GROUP BY day
		ORDER BY day`,
		orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("analytics: bookings by day: %w", err)
	}
	defer rows.Close()

	var out []DayCount
	for rows.Next() {
		var d DayCount
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, fmt.Errorf("analytics: scan bookings by day: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RevenueByDay tallies paid invoice revenue per day over [from, to).
func (r *Repository) RevenueByDay(ctx context.Context, orgID string, from, to time.Time) ([]DayRevenue, error) {
	rows, err := r.db.Query(ctx, `
		SELECT date_trunc('day', paid_at) AS day, COALESCE(SUM(total_cents), 0)
		FROM invoices
		WHERE org_id = $1 AND kind = 'invoice' AND status = 'paid'
		  AND paid_at >= $2 AND paid_at < $3
		GROUP BY day
		ORDER BY day`,
		orgID, from, to)
	if err != nil {
		return nil, fmt.Errorf("analytics: revenue by day: %w", err)
	}
	defer rows.Close()

	var out []DayRevenue
	for rows.Next() {
		var d DayRevenue
		if err := rows.Scan(&d.Day, &d.RevenueCents); err != nil {
			return nil, fmt.Errorf("analytics: scan revenue by day: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
