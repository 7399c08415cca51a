// Package catalog manages each tenant's menu of detailing services. Services
// are deactivated rather than deleted so historical bookings keep their
// references.
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Service is one offering on a tenant's menu.
type Service struct {
	ID              uuid.UUID `json:"id"`
	OrgID           string    `json:"org_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	PriceCents      int64     `json:"price_cents"`
	DurationMinutes int       `json:"duration_minutes"`
	Active          bool      `json:"active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ListFilter narrows service listings. Inactive services are hidden unless
// IncludeInactive is set.
type ListFilter struct {
	IncludeInactive bool
}
