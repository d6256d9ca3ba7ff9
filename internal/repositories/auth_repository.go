package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lotus_planning_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// AuthRepository defines the interface for user-account database operations.
type AuthRepository interface {
	CreateUser(executor SQLExecutor, user *models.User, hashedPassword string) (int64, error)
	FindUserByUsername(username string) (*models.User, string, error) // Returns User, HashedPassword, Error
	FindUserByID(userID int64) (*models.User, error)
	FindUserByEmail(email string) (*models.User, error)
	SetUserCustomerID(executor SQLExecutor, userID int64, customerID *int64) error
}

type authRepository struct {
	db *sql.DB
}

// NewAuthRepository creates a new instance of AuthRepository.
func NewAuthRepository(db *sql.DB) AuthRepository {
	return &authRepository{db: db}
}

// CreateUser inserts a new user into the database.
// IsActive defaults to true; CreatedAt/UpdatedAt are stamped here.
func (r *authRepository) CreateUser(executor SQLExecutor, user *models.User, hashedPassword string) (int64, error) {
	query := `INSERT INTO users (username, password_hash, email, full_name, role_id, is_active, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	          RETURNING id`

	currentTime := time.Now()
	isActive := true

	var roleID sql.NullInt64
	if user.RoleID != nil {
		roleID = sql.NullInt64{Int64: *user.RoleID, Valid: true}
	}

	var userID int64
	err := executor.QueryRow(
		query,
		user.Username,
		hashedPassword,
		user.Email,
		user.FullName,
		roleID,
		isActive,
		currentTime,
		currentTime,
	).Scan(&userID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating user: %v", ErrDatabaseError, err)
	}
	return userID, nil
}

func scanUserRow(row scanner) (*models.User, string, error) {
	user := &models.User{}
	var hashedPassword string
	var roleID, customerID sql.NullInt64
	var roleName sql.NullString

	err := row.Scan(
		&user.ID, &user.Username, &hashedPassword, &user.Email, &user.FullName,
		&roleID, &customerID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt,
		&roleName,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("%w: scanning user: %v", ErrDatabaseError, err)
	}

	if roleID.Valid {
		user.RoleID = &roleID.Int64
		if roleName.Valid && roleName.String != "" {
			user.Role = &models.Role{ID: roleID.Int64, Name: roleName.String}
		}
	}
	if customerID.Valid {
		user.CustomerID = &customerID.Int64
	}
	return user, hashedPassword, nil
}

// FindUserByUsername retrieves a user by their username.
// It returns the user model, their hashed password, and an error if any.
func (r *authRepository) FindUserByUsername(username string) (*models.User, string, error) {
	query := `
		SELECT u.id, u.username, u.password_hash, u.email, u.full_name, u.role_id, u.customer_id,
		       u.is_active, u.created_at, u.updated_at,
		       COALESCE(ro.name, '') as role_name
		FROM users u
		LEFT JOIN roles ro ON u.role_id = ro.id
		WHERE u.username = $1`
	return scanUserRow(r.db.QueryRow(query, username))
}

// FindUserByID retrieves a user by their ID. The password hash is discarded.
func (r *authRepository) FindUserByID(userID int64) (*models.User, error) {
	query := `
		SELECT u.id, u.username, u.password_hash, u.email, u.full_name, u.role_id, u.customer_id,
		       u.is_active, u.created_at, u.updated_at,
		       COALESCE(ro.name, '') as role_name
		FROM users u
		LEFT JOIN roles ro ON u.role_id = ro.id
		WHERE u.id = $1`
	user, _, err := scanUserRow(r.db.QueryRow(query, userID))
	return user, err
}

// FindUserByEmail retrieves a user by email, matched case-insensitively.
// The password hash is discarded.
func (r *authRepository) FindUserByEmail(email string) (*models.User, error) {
	query := `
		SELECT u.id, u.username, u.password_hash, u.email, u.full_name, u.role_id, u.customer_id,
		       u.is_active, u.created_at, u.updated_at,
		       COALESCE(ro.name, '') as role_name
		FROM users u
		LEFT JOIN roles ro ON u.role_id = ro.id
		WHERE LOWER(u.email) = LOWER($1)`
	user, _, err := scanUserRow(r.db.QueryRow(query, email))
	return user, err
}

// SetUserCustomerID binds (or unbinds, with nil) a user account to a customer record.
func (r *authRepository) SetUserCustomerID(executor SQLExecutor, userID int64, customerID *int64) error {
	query := `UPDATE users SET customer_id = $1, updated_at = $2 WHERE id = $3`

	var cid sql.NullInt64
	if customerID != nil {
		cid = sql.NullInt64{Int64: *customerID, Valid: true}
	}

	result, err := executor.Exec(query, cid, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("%w: linking user ID %d to customer: %v", ErrDatabaseError, userID, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
