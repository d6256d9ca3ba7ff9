package models

import "time"

// EventStatus defines the type for event statuses
type EventStatus string

const (
	EventStatusRequested   EventStatus = "requested"
	EventStatusPlanned     EventStatus = "planned"
	EventStatusConfirmed   EventStatus = "confirmed"
	EventStatusActive      EventStatus = "active"
	EventStatusCompleted   EventStatus = "completed"
	EventStatusSendInvoice EventStatus = "send_invoice"
	EventStatusCancelled   EventStatus = "cancelled"
)

// IsValidEventStatus checks if the provided status string is a valid EventStatus.
func IsValidEventStatus(status string) bool {
	switch EventStatus(status) {
	case EventStatusRequested,
		EventStatusPlanned,
		EventStatusConfirmed,
		EventStatusActive,
		EventStatusCompleted,
		EventStatusSendInvoice,
		EventStatusCancelled:
		return true
	default:
		return false
	}
}

// eventStatusRank orders the linear progression of the event workflow.
// Cancelled is not part of the chain; it is reachable from any status.
var eventStatusRank = map[EventStatus]int{
	EventStatusRequested:   0,
	EventStatusPlanned:     1,
	EventStatusConfirmed:   2,
	EventStatusActive:      3,
	EventStatusCompleted:   4,
	EventStatusSendInvoice: 5,
}

// CanTransitionEventStatus reports whether an event may move from one status
// to another. Forward moves along the chain (including skips) are allowed,
// staying on the same status is allowed, and cancellation is always allowed.
// Backward moves and leaving the cancelled state are rejected.
func CanTransitionEventStatus(from, to EventStatus) bool {
	if from == to {
		return true
	}
	if to == EventStatusCancelled {
		return true
	}
	if from == EventStatusCancelled {
		return false
	}
	return eventStatusRank[to] > eventStatusRank[from]
}

// Event represents a scheduled occasion requiring medical first-aid coverage
type Event struct {
	ID                     int64       `json:"id" db:"id"`
	Name                   string      `json:"name" db:"name" binding:"required"`
	StartDate              time.Time   `json:"start_date" db:"start_date" binding:"required"`
	EndDate                time.Time   `json:"end_date" db:"end_date" binding:"required"`
	Location               string      `json:"location" db:"location" binding:"required"`
	Description            *string     `json:"description,omitempty" db:"description"`
	Status                 EventStatus `json:"status" db:"status"`
	ContactPerson          *string     `json:"contact_person,omitempty" db:"contact_person"`
	ContactPhone           *string     `json:"contact_phone,omitempty" db:"contact_phone"`
	ContactEmail           *string     `json:"contact_email,omitempty" db:"contact_email"`
	NotificationSent       bool        `json:"notification_sent" db:"notification_sent"`
	RequiredStaffCount     int         `json:"required_staff_count" db:"required_staff_count"`
	CustomerID             *int64      `json:"customer_id,omitempty" db:"customer_id"`
	CancellationRequested  bool        `json:"cancellation_requested" db:"cancellation_requested"`
	CancellationRequestedAt *time.Time `json:"cancellation_requested_at,omitempty" db:"cancellation_requested_at"`
	CancellationReason     *string     `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CreatedAt              time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt              time.Time   `json:"updated_at" db:"updated_at"`
	Customer               *Customer   `json:"customer,omitempty"` // For joining with Customer details
	Shifts                 []Shift     `json:"shifts,omitempty"`   // For joining with owned shifts
}

// ContactEmailValue returns the contact email or "" when unset.
func (e *Event) ContactEmailValue() string {
	if e.ContactEmail == nil {
		return ""
	}
	return *e.ContactEmail
}

// ShiftStatus defines the type for shift statuses
type ShiftStatus string

const (
	ShiftStatusOpen       ShiftStatus = "open"
	ShiftStatusFull       ShiftStatus = "full"
	ShiftStatusInProgress ShiftStatus = "in_progress"
	ShiftStatusCompleted  ShiftStatus = "completed"
	ShiftStatusCancelled  ShiftStatus = "cancelled"
)

// IsValidShiftStatus checks if the provided status string is a valid ShiftStatus.
func IsValidShiftStatus(status string) bool {
	switch ShiftStatus(status) {
	case ShiftStatusOpen,
		ShiftStatusFull,
		ShiftStatusInProgress,
		ShiftStatusCompleted,
		ShiftStatusCancelled:
		return true
	default:
		return false
	}
}

// Shift represents a bounded time window within an Event requiring staff
type Shift struct {
	ID            int64             `json:"id" db:"id"`
	EventID       int64             `json:"event_id" db:"event_id" binding:"required"`
	Name          string            `json:"name" db:"name" binding:"required"`
	StartTime     time.Time         `json:"start_time" db:"start_time" binding:"required"`
	EndTime       time.Time         `json:"end_time" db:"end_time" binding:"required"`
	RequiredStaff int               `json:"required_staff" db:"required_staff"`
	Description   *string           `json:"description,omitempty" db:"description"`
	Status        ShiftStatus       `json:"status" db:"status"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at" db:"updated_at"`
	Event         *Event            `json:"event,omitempty"`       // For joining with parent Event details
	Assignments   []StaffAssignment `json:"assignments,omitempty"` // For joining with staff assignments
}

// NotificationKind identifies what kind of notification email was dispatched
// for an event. Dispatches are recorded so a notice is sent at most once per
// status transition instead of being inferred from the status field.
type NotificationKind string

const (
	NotificationKindPlanned          NotificationKind = "planned"
	NotificationKindInvoice          NotificationKind = "invoice"
	NotificationKindFinancialInvoice NotificationKind = "financial_invoice"
)

// EventNotification is one row of the notification dispatch log.
type EventNotification struct {
	ID        int64            `json:"id" db:"id"`
	EventID   int64            `json:"event_id" db:"event_id"`
	Kind      NotificationKind `json:"kind" db:"kind"`
	Recipient string           `json:"recipient" db:"recipient"`
	SentAt    time.Time        `json:"sent_at" db:"sent_at"`
}
