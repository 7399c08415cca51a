// Package appointments implements the booking ledger: guarded status
// transitions, the transactional booking operation, and appointment CRUD.
package appointments

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled   Status = "scheduled"
	StatusCompleted   Status = "completed"
	StatusNoShow      Status = "no_show"
	StatusCancelled   Status = "cancelled"
	StatusRescheduled Status = "rescheduled"
)

// transitions is the allowed-state table. Completed, no_show, cancelled and
// rescheduled are terminal; a superseding appointment row carries the new time.
var transitions = map[Status][]Status{
	StatusScheduled:   {StatusCompleted, StatusNoShow, StatusCancelled, StatusRescheduled},
	StatusCompleted:   {},
	StatusNoShow:      {},
	StatusCancelled:   {},
	StatusRescheduled: {},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether s may move to next. A same-state transition
// is always allowed so repeated cancels/completes stay idempotent.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// Terminal reports whether no further state change is possible.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// Appointment is a booked service instance tied to a tenant, client, service
// and the slot it consumed. Rows are never physically deleted.
type Appointment struct {
	ID              uuid.UUID  `json:"id"`
	OrgID           string     `json:"org_id"`
	ClientID        uuid.UUID  `json:"client_id"`
	ServiceID       uuid.UUID  `json:"service_id"`
	SlotID          uuid.UUID  `json:"slot_id"`
	StartsAt        time.Time  `json:"starts_at"`
	Status          Status     `json:"status"`
	Notes           string     `json:"notes,omitempty"`
	RescheduledFrom *uuid.UUID `json:"rescheduled_from,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// BookRequest carries the inputs of the booking operation.
type BookRequest struct {
	ClientID  uuid.UUID `json:"client_id"`
	ServiceID uuid.UUID `json:"service_id"`
	StartsAt  time.Time `json:"starts_at"`
	Notes     string    `json:"notes,omitempty"`
}

// ListFilter narrows appointment listings.
type ListFilter struct {
	ClientID *uuid.UUID
	Status   *Status
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}
