// Package clients stores the customer directory for each tenant, including
// the vehicle details used when estimating and booking work.
package clients

import (
	"time"

	"github.com/google/uuid"
)

// Client is one customer of a tenant.
type Client struct {
	ID        uuid.UUID `json:"id"`
	OrgID     string    `json:"org_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Vehicle   Vehicle   `json:"vehicle"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Vehicle describes the car a client usually brings in.
type Vehicle struct {
	Make      string `json:"make,omitempty"`
	Model     string `json:"model,omitempty"`
	Year      int    `json:"year,omitempty"`
	Color     string `json:"color,omitempty"`
	BodyStyle string `json:"body_style,omitempty"`
	Plate     string `json:"plate,omitempty"`
}

// ListFilter narrows client listings. Search matches name, email and phone.
type ListFilter struct {
	Search string
	Limit  int
	Offset int
}
