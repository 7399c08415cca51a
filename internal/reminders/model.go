// Package reminders schedules and dispatches appointment reminders. Rows are
// written in the booking transaction, so a committed appointment always has
// its reminders; a worker later claims due rows and sends them.
package reminders

import (
	"time"

	"github.com/google/uuid"
)

// Channel is the delivery medium for a reminder.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Status tracks a reminder through dispatch.
type Status string

const (
	// StatusPending means the reminder is waiting for its send time, or for
	// a retry after a failed attempt.
	StatusPending Status = "pending"
	// StatusProcessing means a worker has claimed the row.
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	// StatusDead means every attempt failed; the row is kept for operators.
	StatusDead      Status = "dead"
	StatusCancelled Status = "cancelled"
)

// Reminder is one scheduled notification for an appointment.
type Reminder struct {
	ID            uuid.UUID `json:"id"`
	OrgID         string    `json:"org_id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	ClientID      uuid.UUID `json:"client_id"`
	Channel       Channel   `json:"channel"`
	Status        Status    `json:"status"`
	SendAt        time.Time `json:"send_at"`
	Attempts      int       `json:"attempts"`
	LastError     string    `json:"last_error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// DueReminder is a claimed reminder joined with the contact details and
// appointment time the worker needs to compose the message.
type DueReminder struct {
	Reminder
	ClientName  string
	ClientEmail string
	ClientPhone string
	StartsAt    time.Time
}
