package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lotus_planning_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// AssignmentRepository defines the interface for staff-assignment database operations.
// Reads are hydrated with the shift (and its event) plus the staff member, since
// availability checks and notification rendering need the full graph.
type AssignmentRepository interface {
	CreateAssignment(executor SQLExecutor, assignment *models.StaffAssignment) (*models.StaffAssignment, error)
	GetAssignmentByID(id int64) (*models.StaffAssignment, error)
	GetAllAssignments() ([]models.StaffAssignment, error)
	GetAssignmentsByShiftID(shiftID int64) ([]models.StaffAssignment, error)
	GetAssignmentsByStaffID(staffID int64) ([]models.StaffAssignment, error)
	GetConfirmedAssignmentsByStaffID(staffID int64) ([]models.StaffAssignment, error)
	UpdateAssignment(executor SQLExecutor, assignment *models.StaffAssignment) (*models.StaffAssignment, error)
	DeleteAssignment(executor SQLExecutor, id int64) error
}

type assignmentRepository struct {
	db *sql.DB
}

// NewAssignmentRepository creates a new instance of AssignmentRepository.
func NewAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &assignmentRepository{db: db}
}

const assignmentSelectQuery = `
	SELECT sa.id, sa.shift_id, sa.staff_id, sa.status, sa.check_in_time, sa.check_out_time,
	       sa.notes, sa.assigned_at, sa.updated_at,
	       s.id, s.event_id, s.name, s.start_time, s.end_time, s.required_staff, s.status,
	       e.id, e.name, e.location,
	       st.id, st.first_name, st.last_name, st.email, st.is_active
	FROM staff_assignments sa
	JOIN shifts s ON sa.shift_id = s.id
	JOIN events e ON s.event_id = e.id
	JOIN staff st ON sa.staff_id = st.id`

func scanAssignmentRow(row scanner) (*models.StaffAssignment, error) {
	assignment := &models.StaffAssignment{}
	shift := &models.Shift{}
	event := &models.Event{}
	staff := &models.Staff{}

	err := row.Scan(
		&assignment.ID, &assignment.ShiftID, &assignment.StaffID, &assignment.Status,
		&assignment.CheckInTime, &assignment.CheckOutTime, &assignment.Notes,
		&assignment.AssignedAt, &assignment.UpdatedAt,
		&shift.ID, &shift.EventID, &shift.Name, &shift.StartTime, &shift.EndTime,
		&shift.RequiredStaff, &shift.Status,
		&event.ID, &event.Name, &event.Location,
		&staff.ID, &staff.FirstName, &staff.LastName, &staff.Email, &staff.IsActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning staff assignment: %v", ErrDatabaseError, err)
	}
	shift.Event = event
	assignment.Shift = shift
	assignment.Staff = staff
	return assignment, nil
}

func (r *assignmentRepository) CreateAssignment(executor SQLExecutor, assignment *models.StaffAssignment) (*models.StaffAssignment, error) {
	query := `INSERT INTO staff_assignments (shift_id, staff_id, status, notes, assigned_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING id, assigned_at, updated_at`

	currentTime := time.Now()
	assignment.AssignedAt = currentTime
	assignment.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		assignment.ShiftID, assignment.StaffID, assignment.Status, assignment.Notes,
		assignment.AssignedAt, assignment.UpdatedAt,
	).Scan(&assignment.ID, &assignment.AssignedAt, &assignment.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "foreign_key_violation" {
			return nil, fmt.Errorf("%w: creating assignment (shift or staff not found, constraint: %s): %v", ErrNotFound, pqErr.Constraint, err)
		}
		return nil, fmt.Errorf("%w: creating staff assignment: %v", ErrDatabaseError, err)
	}
	return assignment, nil
}

func (r *assignmentRepository) GetAssignmentByID(id int64) (*models.StaffAssignment, error) {
	query := assignmentSelectQuery + ` WHERE sa.id = $1`
	return scanAssignmentRow(r.db.QueryRow(query, id))
}

func (r *assignmentRepository) queryAssignments(query string, args ...interface{}) ([]models.StaffAssignment, error) {
	assignments := []models.StaffAssignment{}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying staff assignments: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		assignment, err := scanAssignmentRow(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *assignment)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating staff assignment rows: %v", ErrDatabaseError, err)
	}
	return assignments, nil
}

func (r *assignmentRepository) GetAllAssignments() ([]models.StaffAssignment, error) {
	return r.queryAssignments(assignmentSelectQuery + ` ORDER BY s.start_time ASC`)
}

func (r *assignmentRepository) GetAssignmentsByShiftID(shiftID int64) ([]models.StaffAssignment, error) {
	query := assignmentSelectQuery + ` WHERE sa.shift_id = $1 ORDER BY st.last_name ASC, st.first_name ASC`
	return r.queryAssignments(query, shiftID)
}

func (r *assignmentRepository) GetAssignmentsByStaffID(staffID int64) ([]models.StaffAssignment, error) {
	query := assignmentSelectQuery + ` WHERE sa.staff_id = $1 ORDER BY s.start_time ASC`
	return r.queryAssignments(query, staffID)
}

func (r *assignmentRepository) GetConfirmedAssignmentsByStaffID(staffID int64) ([]models.StaffAssignment, error) {
	query := assignmentSelectQuery + ` WHERE sa.staff_id = $1 AND sa.status = $2 ORDER BY s.start_time ASC`
	return r.queryAssignments(query, staffID, string(models.AssignmentStatusConfirmed))
}

func (r *assignmentRepository) UpdateAssignment(executor SQLExecutor, assignment *models.StaffAssignment) (*models.StaffAssignment, error) {
	query := `UPDATE staff_assignments SET
	            status = $1, check_in_time = $2, check_out_time = $3, notes = $4, updated_at = $5
	          WHERE id = $6
	          RETURNING updated_at`

	assignment.UpdatedAt = time.Now()

	err := executor.QueryRow(query,
		assignment.Status, assignment.CheckInTime, assignment.CheckOutTime,
		assignment.Notes, assignment.UpdatedAt, assignment.ID,
	).Scan(&assignment.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: updating staff assignment ID %d: %v", ErrDatabaseError, assignment.ID, err)
	}
	return assignment, nil
}

func (r *assignmentRepository) DeleteAssignment(executor SQLExecutor, id int64) error {
	query := `DELETE FROM staff_assignments WHERE id = $1`
	result, err := executor.Exec(query, id)
	if err != nil {
		return fmt.Errorf("%w: deleting staff assignment ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
