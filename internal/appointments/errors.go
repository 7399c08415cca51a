package appointments

import "errors"

var (
	// ErrNotFound means no appointment with that id exists in the tenant.
	ErrNotFound = errors.New("appointment not found")
	// ErrInvalidTransition means the requested status change is not allowed
	// from the appointment's current status.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrClientNotFound means the booking referenced a client outside the tenant.
	ErrClientNotFound = errors.New("client not found")
	// ErrServiceNotFound means the booking referenced an unknown or inactive service.
	ErrServiceNotFound = errors.New("service not found")
)
