package models

import (
	"strings"
	"time"
)

// Customer represents a customer who requests medical first-aid coverage for events
type Customer struct {
	ID          int64     `json:"id" db:"id"`
	FirstName   string    `json:"first_name" db:"first_name" binding:"required"`
	LastName    string    `json:"last_name" db:"last_name" binding:"required"`
	Email       string    `json:"email" db:"email" binding:"required"`
	PhoneNumber *string   `json:"phone_number,omitempty" db:"phone_number"`
	Company     *string   `json:"company,omitempty" db:"company"`
	Address     *string   `json:"address,omitempty" db:"address"`
	City        *string   `json:"city,omitempty" db:"city"`
	PostalCode  *string   `json:"postal_code,omitempty" db:"postal_code"`
	Country     *string   `json:"country,omitempty" db:"country"`
	UserID      *int64    `json:"user_id,omitempty" db:"user_id"` // Link to users table for portal login
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
	EventCount  int       `json:"event_count" db:"event_count"` // Number of events owned, populated on read
	Events      []Event   `json:"events,omitempty"`             // For joining with owned events
}

// FullName returns the customer's display name.
func (c *Customer) FullName() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}
