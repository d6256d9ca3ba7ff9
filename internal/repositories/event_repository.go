package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lotus_planning_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// EventRepository defines the interface for event database operations,
// including the notification dispatch log.
type EventRepository interface {
	CreateEvent(executor SQLExecutor, event *models.Event) (*models.Event, error)
	GetEventByID(id int64) (*models.Event, error)
	GetEvents(page, pageSize int, status *string) ([]models.Event, int, error)
	GetUpcomingEvents() ([]models.Event, error)
	GetEventsByDateRange(startDate, endDate time.Time) ([]models.Event, error)
	GetEventsByCustomerID(customerID int64) ([]models.Event, error)
	UpdateEvent(executor SQLExecutor, event *models.Event) (*models.Event, error)
	DeleteEvent(executor SQLExecutor, id int64) error

	RecordNotification(executor SQLExecutor, notification *models.EventNotification) error
	HasNotification(eventID int64, kind models.NotificationKind) (bool, error)
}

type eventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new instance of EventRepository.
func NewEventRepository(db *sql.DB) EventRepository {
	return &eventRepository{db: db}
}

const eventSelectColumns = `
	e.id, e.name, e.start_date, e.end_date, e.location, e.description, e.status,
	e.contact_person, e.contact_phone, e.contact_email, e.notification_sent,
	e.required_staff_count, e.customer_id, e.cancellation_requested,
	e.cancellation_requested_at, e.cancellation_reason, e.created_at, e.updated_at`

func scanEventRow(row scanner) (*models.Event, error) {
	event := &models.Event{}
	var customerID sql.NullInt64
	var cancellationRequestedAt sql.NullTime

	err := row.Scan(
		&event.ID, &event.Name, &event.StartDate, &event.EndDate, &event.Location,
		&event.Description, &event.Status, &event.ContactPerson, &event.ContactPhone,
		&event.ContactEmail, &event.NotificationSent, &event.RequiredStaffCount,
		&customerID, &event.CancellationRequested, &cancellationRequestedAt,
		&event.CancellationReason, &event.CreatedAt, &event.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning event: %v", ErrDatabaseError, err)
	}
	if customerID.Valid {
		event.CustomerID = &customerID.Int64
	}
	if cancellationRequestedAt.Valid {
		event.CancellationRequestedAt = &cancellationRequestedAt.Time
	}
	return event, nil
}

func (r *eventRepository) CreateEvent(executor SQLExecutor, event *models.Event) (*models.Event, error) {
	query := `INSERT INTO events (name, start_date, end_date, location, description, status,
	            contact_person, contact_phone, contact_email, notification_sent,
	            required_staff_count, customer_id, cancellation_requested, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	          RETURNING id, created_at, updated_at`

	currentTime := time.Now()
	event.CreatedAt = currentTime
	event.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		event.Name, event.StartDate, event.EndDate, event.Location, event.Description,
		event.Status, event.ContactPerson, event.ContactPhone, event.ContactEmail,
		event.NotificationSent, event.RequiredStaffCount, event.CustomerID,
		event.CancellationRequested, event.CreatedAt, event.UpdatedAt,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return nil, fmt.Errorf("%w: customer for event not found (constraint: %s)", ErrNotFound, pqErr.Constraint)
		}
		return nil, fmt.Errorf("%w: creating event: %v", ErrDatabaseError, err)
	}
	return event, nil
}

// GetEventByID returns the event with its shifts loaded, ordered by start time.
func (r *eventRepository) GetEventByID(id int64) (*models.Event, error) {
	query := `SELECT ` + eventSelectColumns + ` FROM events e WHERE e.id = $1`
	event, err := scanEventRow(r.db.QueryRow(query, id))
	if err != nil {
		return nil, err
	}

	shiftsQuery := `SELECT s.id, s.event_id, s.name, s.start_time, s.end_time, s.required_staff,
	                       s.description, s.status, s.created_at, s.updated_at
	                FROM shifts s
	                WHERE s.event_id = $1
	                ORDER BY s.start_time ASC`
	rows, err := r.db.Query(shiftsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("%w: querying shifts for event ID %d: %v", ErrDatabaseError, id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var shift models.Shift
		if err := rows.Scan(
			&shift.ID, &shift.EventID, &shift.Name, &shift.StartTime, &shift.EndTime,
			&shift.RequiredStaff, &shift.Description, &shift.Status,
			&shift.CreatedAt, &shift.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning shift for event ID %d: %v", ErrDatabaseError, id, err)
		}
		event.Shifts = append(event.Shifts, shift)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating shift rows for event ID %d: %v", ErrDatabaseError, id, err)
	}
	return event, nil
}

func (r *eventRepository) queryEvents(query string, args ...interface{}) ([]models.Event, error) {
	events := []models.Event{}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying events: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		event, err := scanEventRow(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *event)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating event rows: %v", ErrDatabaseError, err)
	}
	return events, nil
}

func (r *eventRepository) GetEvents(page, pageSize int, status *string) ([]models.Event, int, error) {
	events := []models.Event{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + eventSelectColumns + `,
	    COUNT(*) OVER() as total_count
	  FROM events e`)

	var args []interface{}
	argCount := 1

	if status != nil && *status != "" {
		queryBuilder.WriteString(fmt.Sprintf(" WHERE e.status = $%d", argCount))
		args = append(args, *status)
		argCount++
	}
	queryBuilder.WriteString(" ORDER BY e.start_date ASC")

	if pageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCount))
		args = append(args, pageSize)
		argCount++
		if page > 0 {
			offset := (page - 1) * pageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCount))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying events: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var event models.Event
		var customerID sql.NullInt64
		var cancellationRequestedAt sql.NullTime
		var currentRowTotalCount int

		err := rows.Scan(
			&event.ID, &event.Name, &event.StartDate, &event.EndDate, &event.Location,
			&event.Description, &event.Status, &event.ContactPerson, &event.ContactPhone,
			&event.ContactEmail, &event.NotificationSent, &event.RequiredStaffCount,
			&customerID, &event.CancellationRequested, &cancellationRequestedAt,
			&event.CancellationReason, &event.CreatedAt, &event.UpdatedAt,
			&currentRowTotalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning event from list: %v", ErrDatabaseError, err)
		}
		totalCount = currentRowTotalCount
		if customerID.Valid {
			event.CustomerID = &customerID.Int64
		}
		if cancellationRequestedAt.Valid {
			event.CancellationRequestedAt = &cancellationRequestedAt.Time
		}
		events = append(events, event)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating event rows: %v", ErrDatabaseError, err)
	}
	return events, totalCount, nil
}

func (r *eventRepository) GetUpcomingEvents() ([]models.Event, error) {
	query := `SELECT ` + eventSelectColumns + `
	          FROM events e
	          WHERE e.start_date >= CURRENT_DATE AND e.status != $1
	          ORDER BY e.start_date ASC`
	return r.queryEvents(query, string(models.EventStatusCancelled))
}

func (r *eventRepository) GetEventsByDateRange(startDate, endDate time.Time) ([]models.Event, error) {
	query := `SELECT ` + eventSelectColumns + `
	          FROM events e
	          WHERE e.start_date >= $1 AND e.start_date <= $2
	          ORDER BY e.start_date ASC`
	return r.queryEvents(query, startDate, endDate)
}

func (r *eventRepository) GetEventsByCustomerID(customerID int64) ([]models.Event, error) {
	query := `SELECT ` + eventSelectColumns + `
	          FROM events e
	          WHERE e.customer_id = $1
	          ORDER BY e.start_date ASC`
	return r.queryEvents(query, customerID)
}

func (r *eventRepository) UpdateEvent(executor SQLExecutor, event *models.Event) (*models.Event, error) {
	query := `UPDATE events SET
	            name = $1, start_date = $2, end_date = $3, location = $4, description = $5,
	            status = $6, contact_person = $7, contact_phone = $8, contact_email = $9,
	            notification_sent = $10, required_staff_count = $11, customer_id = $12,
	            cancellation_requested = $13, cancellation_requested_at = $14,
	            cancellation_reason = $15, updated_at = $16
	          WHERE id = $17
	          RETURNING updated_at`

	event.UpdatedAt = time.Now()

	err := executor.QueryRow(query,
		event.Name, event.StartDate, event.EndDate, event.Location, event.Description,
		event.Status, event.ContactPerson, event.ContactPhone, event.ContactEmail,
		event.NotificationSent, event.RequiredStaffCount, event.CustomerID,
		event.CancellationRequested, event.CancellationRequestedAt,
		event.CancellationReason, event.UpdatedAt, event.ID,
	).Scan(&event.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: updating event ID %d: %v", ErrDatabaseError, event.ID, err)
	}
	return event, nil
}

func (r *eventRepository) DeleteEvent(executor SQLExecutor, id int64) error {
	query := `DELETE FROM events WHERE id = $1`
	result, err := executor.Exec(query, id)
	if err != nil {
		return fmt.Errorf("%w: deleting event ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Notification dispatch log ---

func (r *eventRepository) RecordNotification(executor SQLExecutor, notification *models.EventNotification) error {
	query := `INSERT INTO event_notifications (event_id, kind, recipient, sent_at)
	          VALUES ($1, $2, $3, $4)
	          RETURNING id, sent_at`

	notification.SentAt = time.Now()

	err := executor.QueryRow(query,
		notification.EventID, notification.Kind, notification.Recipient, notification.SentAt,
	).Scan(&notification.ID, &notification.SentAt)
	if err != nil {
		return fmt.Errorf("%w: recording %s notification for event ID %d: %v", ErrDatabaseError, notification.Kind, notification.EventID, err)
	}
	return nil
}

func (r *eventRepository) HasNotification(eventID int64, kind models.NotificationKind) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM event_notifications WHERE event_id = $1 AND kind = $2)`
	var exists bool
	if err := r.db.QueryRow(query, eventID, kind).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: checking %s notification for event ID %d: %v", ErrDatabaseError, kind, eventID, err)
	}
	return exists, nil
}
