// Package invoices tracks billing documents: estimates sent ahead of work and
// invoices issued after it. Both share one lifecycle and line-item shape.
package invoices

import (
	"time"

	"github.com/google/uuid"
)

// Kind distinguishes a binding invoice from a pre-work estimate document.
type Kind string

const (
	KindInvoice  Kind = "invoice"
	KindEstimate Kind = "estimate"
)

// Status is the document lifecycle state.
type Status string

const (
	StatusDraft Status = "draft"
	StatusSent  Status = "sent"
	StatusPaid  Status = "paid"
	StatusVoid  Status = "void"
)

var statusTransitions = map[Status][]Status{
	StatusDraft: {StatusSent, StatusVoid},
	StatusSent:  {StatusPaid, StatusVoid},
	StatusPaid:  {},
	StatusVoid:  {},
}

// CanTransition reports whether s may move to next. Same-state transitions
// are idempotent no-ops.
func (s Status) CanTransition(next Status) bool {
	if s == next {
		return true
	}
	for _, allowed := range statusTransitions[s] {
		if next == allowed {
			return true
		}
	}
	return false
}

// LineItem is one priced line on an invoice or estimate.
type LineItem struct {
	Description string     `json:"description"`
	ServiceID   *uuid.UUID `json:"service_id,omitempty"`
	AmountCents int64      `json:"amount_cents"`
}

// Invoice is a billing document belonging to one tenant and client.
type Invoice struct {
	ID            uuid.UUID  `json:"id"`
	OrgID         string     `json:"org_id"`
	ClientID      uuid.UUID  `json:"client_id"`
	AppointmentID *uuid.UUID `json:"appointment_id,omitempty"`
	Kind          Kind       `json:"kind"`
	Status        Status     `json:"status"`
	LineItems     []LineItem `json:"line_items"`
	TotalCents    int64      `json:"total_cents"`
	IssuedAt      *time.Time `json:"issued_at,omitempty"`
	PaidAt        *time.Time `json:"paid_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Total sums the line items.
func Total(items []LineItem) int64 {
	var total int64
	for _, li := range items {
		total += li.AmountCents
	}
	return total
}

// ListFilter narrows invoice listings.
type ListFilter struct {
	ClientID *uuid.UUID
	Kind     *Kind
	Status   *Status
	Limit    int
	Offset   int
}
