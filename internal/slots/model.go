// Package slots manages the bookable time units a detailing business
// publishes. A slot is claimed atomically during booking; at most one
// appointment can ever win a given slot.
package slots

import (
	"time"

	"github.com/google/uuid"
)

// Slot is a bookable time unit for a tenant. At most one slot exists per
// (org_id, starts_at); the schema enforces this with a unique index.
type Slot struct {
	ID          uuid.UUID `json:"id"`
	OrgID       string    `json:"org_id"`
	StartsAt    time.Time `json:"starts_at"`
	IsAvailable bool      `json:"is_available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListFilter narrows slot listings.
type ListFilter struct {
	From          *time.Time
	To            *time.Time
	OnlyAvailable bool
	Limit         int
}
