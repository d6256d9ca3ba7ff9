package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"time"

	"lotus_planning_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// ShiftRepository defines the interface for shift database operations.
type ShiftRepository interface {
	CreateShift(executor SQLExecutor, shift *models.Shift) (*models.Shift, error)
	GetShiftByID(id int64) (*models.Shift, error)
	GetShiftsByEventID(eventID int64) ([]models.Shift, error)
	GetUpcomingShifts() ([]models.Shift, error)
	UpdateShift(executor SQLExecutor, shift *models.Shift) (*models.Shift, error)
	DeleteShift(executor SQLExecutor, id int64) error
}

type shiftRepository struct {
	db *sql.DB
}

// NewShiftRepository creates a new instance of ShiftRepository.
func NewShiftRepository(db *sql.DB) ShiftRepository {
	return &shiftRepository{db: db}
}

func (r *shiftRepository) CreateShift(executor SQLExecutor, shift *models.Shift) (*models.Shift, error) {
	query := `INSERT INTO shifts (event_id, name, start_time, end_time, required_staff, description, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	          RETURNING id, created_at, updated_at`

	currentTime := time.Now()
	shift.CreatedAt = currentTime
	shift.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		shift.EventID, shift.Name, shift.StartTime, shift.EndTime, shift.RequiredStaff,
		shift.Description, shift.Status, shift.CreatedAt, shift.UpdatedAt,
	).Scan(&shift.ID, &shift.CreatedAt, &shift.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return nil, fmt.Errorf("%w: creating shift (event_id %d likely not found, constraint: %s): %v", ErrNotFound, shift.EventID, pqErr.Constraint, err)
		}
		return nil, fmt.Errorf("%w: creating shift: %v", ErrDatabaseError, err)
	}
	return shift, nil
}

// GetShiftByID returns the shift with its parent event and assignments loaded.
// The full graph is needed for calendar export and notification rendering.
func (r *shiftRepository) GetShiftByID(id int64) (*models.Shift, error) {
	shift := &models.Shift{}
	event := &models.Event{}
	query := `SELECT s.id, s.event_id, s.name, s.start_time, s.end_time, s.required_staff,
	                 s.description, s.status, s.created_at, s.updated_at,
	                 e.id, e.name, e.start_date, e.end_date, e.location, e.status
	          FROM shifts s
	          JOIN events e ON s.event_id = e.id
	          WHERE s.id = $1`

	err := r.db.QueryRow(query, id).Scan(
		&shift.ID, &shift.EventID, &shift.Name, &shift.StartTime, &shift.EndTime,
		&shift.RequiredStaff, &shift.Description, &shift.Status,
		&shift.CreatedAt, &shift.UpdatedAt,
		&event.ID, &event.Name, &event.StartDate, &event.EndDate, &event.Location, &event.Status,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting shift by ID %d: %v", ErrDatabaseError, id, err)
	}
	shift.Event = event

	assignmentsQuery := `SELECT sa.id, sa.shift_id, sa.staff_id, sa.status, sa.check_in_time,
	                            sa.check_out_time, sa.notes, sa.assigned_at, sa.updated_at
	                     FROM staff_assignments sa
	                     WHERE sa.shift_id = $1
	                     ORDER BY sa.assigned_at ASC`
	rows, err := r.db.Query(assignmentsQuery, id)
	if err != nil {
		return nil, fmt.Errorf("%w: querying assignments for shift ID %d: %v", ErrDatabaseError, id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var assignment models.StaffAssignment
		if err := rows.Scan(
			&assignment.ID, &assignment.ShiftID, &assignment.StaffID, &assignment.Status,
			&assignment.CheckInTime, &assignment.CheckOutTime, &assignment.Notes,
			&assignment.AssignedAt, &assignment.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning assignment for shift ID %d: %v", ErrDatabaseError, id, err)
		}
		shift.Assignments = append(shift.Assignments, assignment)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating assignment rows for shift ID %d: %v", ErrDatabaseError, id, err)
	}
	return shift, nil
}

func (r *shiftRepository) queryShifts(query string, args ...interface{}) ([]models.Shift, error) {
	shifts := []models.Shift{}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying shifts: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var shift models.Shift
		var event models.Event
		if err := rows.Scan(
			&shift.ID, &shift.EventID, &shift.Name, &shift.StartTime, &shift.EndTime,
			&shift.RequiredStaff, &shift.Description, &shift.Status,
			&shift.CreatedAt, &shift.UpdatedAt,
			&event.ID, &event.Name, &event.Location,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning shift: %v", ErrDatabaseError, err)
		}
		shift.Event = &event
		shifts = append(shifts, shift)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating shift rows: %v", ErrDatabaseError, err)
	}
	return shifts, nil
}

// GetShiftsByEventID returns an event's shifts with their assignments and the
// assigned staff members attached, so callers get the full staffing picture
// in one call.
func (r *shiftRepository) GetShiftsByEventID(eventID int64) ([]models.Shift, error) {
	query := `SELECT s.id, s.event_id, s.name, s.start_time, s.end_time, s.required_staff,
	                 s.description, s.status, s.created_at, s.updated_at,
	                 e.id, e.name, e.location
	          FROM shifts s
	          JOIN events e ON s.event_id = e.id
	          WHERE s.event_id = $1
	          ORDER BY s.start_time ASC`
	shifts, err := r.queryShifts(query, eventID)
	if err != nil {
		return nil, err
	}

	assignmentsQuery := `SELECT sa.id, sa.shift_id, sa.staff_id, sa.status, sa.check_in_time,
	                            sa.check_out_time, sa.notes, sa.assigned_at, sa.updated_at,
	                            st.id, st.first_name, st.last_name, st.email, st.is_active
	                     FROM staff_assignments sa
	                     JOIN shifts s ON sa.shift_id = s.id
	                     JOIN staff st ON sa.staff_id = st.id
	                     WHERE s.event_id = $1
	                     ORDER BY sa.assigned_at ASC`
	rows, err := r.db.Query(assignmentsQuery, eventID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying assignments for event ID %d: %v", ErrDatabaseError, eventID, err)
	}
	defer rows.Close()

	assignmentsByShift := map[int64][]models.StaffAssignment{}
	for rows.Next() {
		var assignment models.StaffAssignment
		var staff models.Staff
		if err := rows.Scan(
			&assignment.ID, &assignment.ShiftID, &assignment.StaffID, &assignment.Status,
			&assignment.CheckInTime, &assignment.CheckOutTime, &assignment.Notes,
			&assignment.AssignedAt, &assignment.UpdatedAt,
			&staff.ID, &staff.FirstName, &staff.LastName, &staff.Email, &staff.IsActive,
		); err != nil {
			return nil, fmt.Errorf("%w: scanning assignment for event ID %d: %v", ErrDatabaseError, eventID, err)
		}
		assignment.Staff = &staff
		assignmentsByShift[assignment.ShiftID] = append(assignmentsByShift[assignment.ShiftID], assignment)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating assignment rows for event ID %d: %v", ErrDatabaseError, eventID, err)
	}

	for i := range shifts {
		shifts[i].Assignments = assignmentsByShift[shifts[i].ID]
	}
	return shifts, nil
}

func (r *shiftRepository) GetUpcomingShifts() ([]models.Shift, error) {
	query := `SELECT s.id, s.event_id, s.name, s.start_time, s.end_time, s.required_staff,
	                 s.description, s.status, s.created_at, s.updated_at,
	                 e.id, e.name, e.location
	          FROM shifts s
	          JOIN events e ON s.event_id = e.id
	          WHERE s.start_time >= $1 AND s.status != $2
	          ORDER BY s.start_time ASC`
	return r.queryShifts(query, time.Now(), string(models.ShiftStatusCancelled))
}

func (r *shiftRepository) UpdateShift(executor SQLExecutor, shift *models.Shift) (*models.Shift, error) {
	query := `UPDATE shifts SET
	            name = $1, start_time = $2, end_time = $3, required_staff = $4,
	            description = $5, status = $6, updated_at = $7
	          WHERE id = $8
	          RETURNING updated_at`

	shift.UpdatedAt = time.Now()

	err := executor.QueryRow(query,
		shift.Name, shift.StartTime, shift.EndTime, shift.RequiredStaff,
		shift.Description, shift.Status, shift.UpdatedAt, shift.ID,
	).Scan(&shift.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: updating shift ID %d: %v", ErrDatabaseError, shift.ID, err)
	}
	return shift, nil
}

func (r *shiftRepository) DeleteShift(executor SQLExecutor, id int64) error {
	query := `DELETE FROM shifts WHERE id = $1`
	result, err := executor.Exec(query, id)
	if err != nil {
		return fmt.Errorf("%w: deleting shift ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
