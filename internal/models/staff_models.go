package models

import (
	"strings"
	"time"
)

// Staff represents a medical first-aid staff member
type Staff struct {
	ID                  int64      `json:"id" db:"id"`
	FirstName           string     `json:"first_name" db:"first_name" binding:"required"`
	LastName            string     `json:"last_name" db:"last_name" binding:"required"`
	Email               string     `json:"email" db:"email" binding:"required"`
	Phone               *string    `json:"phone,omitempty" db:"phone"`
	CertificationLevel  *string    `json:"certification_level,omitempty" db:"certification_level"`
	CertificationExpiry *time.Time `json:"certification_expiry,omitempty" db:"certification_expiry"`
	IsActive            bool       `json:"is_active" db:"is_active"` // Soft delete flag
	UserID              *int64     `json:"user_id,omitempty" db:"user_id"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// FullName returns the staff member's display name.
func (s *Staff) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}

// AssignmentStatus defines the type for staff assignment statuses
type AssignmentStatus string

const (
	AssignmentStatusAssigned   AssignmentStatus = "assigned"
	AssignmentStatusConfirmed  AssignmentStatus = "confirmed"
	AssignmentStatusCheckedIn  AssignmentStatus = "checked_in"
	AssignmentStatusCheckedOut AssignmentStatus = "checked_out"
	AssignmentStatusNoShow     AssignmentStatus = "no_show"
	AssignmentStatusCancelled  AssignmentStatus = "cancelled"
)

// IsValidAssignmentStatus checks if the provided status string is a valid AssignmentStatus.
func IsValidAssignmentStatus(status string) bool {
	switch AssignmentStatus(status) {
	case AssignmentStatusAssigned,
		AssignmentStatusConfirmed,
		AssignmentStatusCheckedIn,
		AssignmentStatusCheckedOut,
		AssignmentStatusNoShow,
		AssignmentStatusCancelled:
		return true
	default:
		return false
	}
}

// StaffAssignment binds one Staff member to one Shift
type StaffAssignment struct {
	ID           int64            `json:"id" db:"id"`
	ShiftID      int64            `json:"shift_id" db:"shift_id" binding:"required"`
	StaffID      int64            `json:"staff_id" db:"staff_id" binding:"required"`
	Status       AssignmentStatus `json:"status" db:"status"`
	CheckInTime  *time.Time       `json:"check_in_time,omitempty" db:"check_in_time"`
	CheckOutTime *time.Time       `json:"check_out_time,omitempty" db:"check_out_time"`
	Notes        *string          `json:"notes,omitempty" db:"notes"`
	AssignedAt   time.Time        `json:"assigned_at" db:"assigned_at"`
	UpdatedAt    time.Time        `json:"updated_at" db:"updated_at"`
	Shift        *Shift           `json:"shift,omitempty"` // For joining with Shift (and its Event)
	Staff        *Staff           `json:"staff,omitempty"` // For joining with Staff details
}

// StaffHoursReport aggregates worked hours for one staff member over a year.
type StaffHoursReport struct {
	StaffID     int64   `json:"staff_id"`
	StaffName   string  `json:"staff_name"`
	Email       string  `json:"email"`
	Year        int     `json:"year"`
	TotalHours  float64 `json:"total_hours"`
	TotalShifts int     `json:"total_shifts"`
}
