package slots

import "errors"

var (
	// ErrSlotNotAvailable is returned when no open slot matches the
	// requested time, or another booking claimed it first.
	ErrSlotNotAvailable = errors.New("slot not available")

	// ErrSlotBooked is returned when an operator tries to re-open a slot
	// that has already been claimed by an appointment.
	ErrSlotBooked = errors.New("slot already booked")

	// ErrSlotNotFound is returned when a slot does not exist for the tenant.
	ErrSlotNotFound = errors.New("slot not found")
)
