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

// StaffRepository defines the interface for staff database operations.
type StaffRepository interface {
	CreateStaff(executor SQLExecutor, staff *models.Staff) (*models.Staff, error)
	GetStaffByID(id int64) (*models.Staff, error)
	GetStaffByEmail(email string) (*models.Staff, error)
	GetStaffByUserID(userID int64) (*models.Staff, error)
	GetStaff(page, pageSize int, searchTerm *string, activeOnly bool) ([]models.Staff, int, error)
	GetActiveStaff() ([]models.Staff, error)
	UpdateStaff(executor SQLExecutor, staff *models.Staff) (*models.Staff, error)
	DeactivateStaff(executor SQLExecutor, id int64) error
}

type staffRepository struct {
	db *sql.DB
}

// NewStaffRepository creates a new instance of StaffRepository.
func NewStaffRepository(db *sql.DB) StaffRepository {
	return &staffRepository{db: db}
}

const staffSelectColumns = `
	st.id, st.first_name, st.last_name, st.email, st.phone, st.certification_level,
	st.certification_expiry, st.is_active, st.user_id, st.created_at, st.updated_at`

func scanStaffRow(row scanner) (*models.Staff, error) {
	staff := &models.Staff{}
	var certificationExpiry sql.NullTime
	var userID sql.NullInt64

	err := row.Scan(
		&staff.ID, &staff.FirstName, &staff.LastName, &staff.Email, &staff.Phone,
		&staff.CertificationLevel, &certificationExpiry, &staff.IsActive, &userID,
		&staff.CreatedAt, &staff.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning staff member: %v", ErrDatabaseError, err)
	}
	if certificationExpiry.Valid {
		staff.CertificationExpiry = &certificationExpiry.Time
	}
	if userID.Valid {
		staff.UserID = &userID.Int64
	}
	return staff, nil
}

func (r *staffRepository) CreateStaff(executor SQLExecutor, staff *models.Staff) (*models.Staff, error) {
	query := `INSERT INTO staff (first_name, last_name, email, phone, certification_level, certification_expiry, is_active, user_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id, created_at, updated_at`

	currentTime := time.Now()
	staff.CreatedAt = currentTime
	staff.UpdatedAt = currentTime
	staff.IsActive = true

	err := executor.QueryRow(query,
		staff.FirstName, staff.LastName, staff.Email, staff.Phone,
		staff.CertificationLevel, staff.CertificationExpiry, staff.IsActive,
		staff.UserID, staff.CreatedAt, staff.UpdatedAt,
	).Scan(&staff.ID, &staff.CreatedAt, &staff.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: staff email %s already exists (constraint: %s)", ErrDuplicateKey, staff.Email, pqErr.Constraint)
		}
		return nil, fmt.Errorf("%w: creating staff member: %v", ErrDatabaseError, err)
	}
	return staff, nil
}

func (r *staffRepository) GetStaffByID(id int64) (*models.Staff, error) {
	query := `SELECT ` + staffSelectColumns + ` FROM staff st WHERE st.id = $1`
	return scanStaffRow(r.db.QueryRow(query, id))
}

func (r *staffRepository) GetStaffByEmail(email string) (*models.Staff, error) {
	query := `SELECT ` + staffSelectColumns + ` FROM staff st WHERE LOWER(st.email) = LOWER($1)`
	return scanStaffRow(r.db.QueryRow(query, email))
}

func (r *staffRepository) GetStaffByUserID(userID int64) (*models.Staff, error) {
	query := `SELECT ` + staffSelectColumns + ` FROM staff st WHERE st.user_id = $1`
	return scanStaffRow(r.db.QueryRow(query, userID))
}

func (r *staffRepository) GetStaff(page, pageSize int, searchTerm *string, activeOnly bool) ([]models.Staff, int, error) {
	staffMembers := []models.Staff{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + staffSelectColumns + `,
	    COUNT(*) OVER() as total_count
	  FROM staff st`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if activeOnly {
		conditions = append(conditions, "st.is_active = TRUE")
	}
	if searchTerm != nil && *searchTerm != "" {
		searchPattern := "%" + strings.ToLower(*searchTerm) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(st.first_name) ILIKE $%d OR LOWER(st.last_name) ILIKE $%d OR LOWER(st.email) ILIKE $%d OR LOWER(st.certification_level) ILIKE $%d)", argCount, argCount, argCount, argCount))
		args = append(args, searchPattern)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY st.last_name ASC, st.first_name ASC")

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
		return nil, 0, fmt.Errorf("%w: querying staff: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var staff models.Staff
		var certificationExpiry sql.NullTime
		var userID sql.NullInt64
		var currentRowTotalCount int

		err := rows.Scan(
			&staff.ID, &staff.FirstName, &staff.LastName, &staff.Email, &staff.Phone,
			&staff.CertificationLevel, &certificationExpiry, &staff.IsActive, &userID,
			&staff.CreatedAt, &staff.UpdatedAt,
			&currentRowTotalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning staff member from list: %v", ErrDatabaseError, err)
		}
		totalCount = currentRowTotalCount
		if certificationExpiry.Valid {
			staff.CertificationExpiry = &certificationExpiry.Time
		}
		if userID.Valid {
			staff.UserID = &userID.Int64
		}
		staffMembers = append(staffMembers, staff)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating staff rows: %v", ErrDatabaseError, err)
	}
	return staffMembers, totalCount, nil
}

func (r *staffRepository) GetActiveStaff() ([]models.Staff, error) {
	staffMembers := []models.Staff{}
	query := `SELECT ` + staffSelectColumns + `
	          FROM staff st
	          WHERE st.is_active = TRUE
	          ORDER BY st.last_name ASC, st.first_name ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying active staff: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		staff, err := scanStaffRow(rows)
		if err != nil {
			return nil, err
		}
		staffMembers = append(staffMembers, *staff)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating active staff rows: %v", ErrDatabaseError, err)
	}
	return staffMembers, nil
}

func (r *staffRepository) UpdateStaff(executor SQLExecutor, staff *models.Staff) (*models.Staff, error) {
	query := `UPDATE staff SET
	            first_name = $1, last_name = $2, email = $3, phone = $4,
	            certification_level = $5, certification_expiry = $6, is_active = $7,
	            user_id = $8, updated_at = $9
	          WHERE id = $10
	          RETURNING updated_at`

	staff.UpdatedAt = time.Now()

	err := executor.QueryRow(query,
		staff.FirstName, staff.LastName, staff.Email, staff.Phone,
		staff.CertificationLevel, staff.CertificationExpiry, staff.IsActive,
		staff.UserID, staff.UpdatedAt, staff.ID,
	).Scan(&staff.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: staff email %s already exists (constraint: %s)", ErrDuplicateKey, staff.Email, pqErr.Constraint)
		}
		return nil, fmt.Errorf("%w: updating staff ID %d: %v", ErrDatabaseError, staff.ID, err)
	}
	return staff, nil
}

// DeactivateStaff soft-deletes a staff member by clearing the is_active flag.
// Historical assignments are kept intact.
func (r *staffRepository) DeactivateStaff(executor SQLExecutor, id int64) error {
	query := `UPDATE staff SET is_active = FALSE, updated_at = $1 WHERE id = $2`
	result, err := executor.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: deactivating staff ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
