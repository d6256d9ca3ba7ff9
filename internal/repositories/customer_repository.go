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

// CustomerRepository defines the interface for customer database operations.
type CustomerRepository interface {
	CreateCustomer(executor SQLExecutor, customer *models.Customer) (*models.Customer, error)
	GetCustomerByID(id int64) (*models.Customer, error)
	GetCustomerByEmail(email string) (*models.Customer, error)
	GetCustomerByUserID(userID int64) (*models.Customer, error)
	GetCustomers(page, pageSize int, searchTerm *string) ([]models.Customer, int, error)
	UpdateCustomer(executor SQLExecutor, customer *models.Customer) (*models.Customer, error)
	DeleteCustomer(executor SQLExecutor, id int64) error
}

type customerRepository struct {
	db *sql.DB
}

// NewCustomerRepository creates a new instance of CustomerRepository.
func NewCustomerRepository(db *sql.DB) CustomerRepository {
	return &customerRepository{db: db}
}

const customerSelectColumns = `
	c.id, c.first_name, c.last_name, c.email, c.phone_number, c.company,
	c.address, c.city, c.postal_code, c.country, c.user_id, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM events e WHERE e.customer_id = c.id) as event_count`

func scanCustomerRow(row scanner) (*models.Customer, error) {
	customer := &models.Customer{}
	var userID sql.NullInt64

	err := row.Scan(
		&customer.ID, &customer.FirstName, &customer.LastName, &customer.Email,
		&customer.PhoneNumber, &customer.Company, &customer.Address, &customer.City,
		&customer.PostalCode, &customer.Country, &userID,
		&customer.CreatedAt, &customer.UpdatedAt, &customer.EventCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: scanning customer: %v", ErrDatabaseError, err)
	}
	if userID.Valid {
		customer.UserID = &userID.Int64
	}
	return customer, nil
}

func (r *customerRepository) CreateCustomer(executor SQLExecutor, customer *models.Customer) (*models.Customer, error) {
	query := `INSERT INTO customers (first_name, last_name, email, phone_number, company, address, city, postal_code, country, user_id, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	          RETURNING id, created_at, updated_at`

	currentTime := time.Now()
	customer.CreatedAt = currentTime
	customer.UpdatedAt = currentTime

	err := executor.QueryRow(query,
		customer.FirstName, customer.LastName, customer.Email, customer.PhoneNumber,
		customer.Company, customer.Address, customer.City, customer.PostalCode,
		customer.Country, customer.UserID, customer.CreatedAt, customer.UpdatedAt,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: customer email %s already exists (constraint: %s)", ErrDuplicateKey, customer.Email, pqErr.Constraint)
		}
		return nil, fmt.Errorf("%w: creating customer: %v", ErrDatabaseError, err)
	}
	return customer, nil
}

func (r *customerRepository) GetCustomerByID(id int64) (*models.Customer, error) {
	query := `SELECT ` + customerSelectColumns + ` FROM customers c WHERE c.id = $1`
	return scanCustomerRow(r.db.QueryRow(query, id))
}

func (r *customerRepository) GetCustomerByEmail(email string) (*models.Customer, error) {
	query := `SELECT ` + customerSelectColumns + ` FROM customers c WHERE LOWER(c.email) = LOWER($1)`
	return scanCustomerRow(r.db.QueryRow(query, email))
}

func (r *customerRepository) GetCustomerByUserID(userID int64) (*models.Customer, error) {
	query := `SELECT ` + customerSelectColumns + ` FROM customers c WHERE c.user_id = $1`
	return scanCustomerRow(r.db.QueryRow(query, userID))
}

func (r *customerRepository) GetCustomers(page, pageSize int, searchTerm *string) ([]models.Customer, int, error) {
	customers := []models.Customer{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + customerSelectColumns + `,
	    COUNT(*) OVER() as total_count
	  FROM customers c`)

	var conditions []string
	var args []interface{}
	argCount := 1

	if searchTerm != nil && *searchTerm != "" {
		searchPattern := "%" + strings.ToLower(*searchTerm) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.first_name) ILIKE $%d OR LOWER(c.last_name) ILIKE $%d OR LOWER(c.email) ILIKE $%d OR LOWER(c.company) ILIKE $%d)", argCount, argCount, argCount, argCount))
		args = append(args, searchPattern)
		argCount++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY c.last_name ASC, c.first_name ASC")

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
		return nil, 0, fmt.Errorf("%w: querying customers: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var customer models.Customer
		var userID sql.NullInt64
		var currentRowTotalCount int

		err := rows.Scan(
			&customer.ID, &customer.FirstName, &customer.LastName, &customer.Email,
			&customer.PhoneNumber, &customer.Company, &customer.Address, &customer.City,
			&customer.PostalCode, &customer.Country, &userID,
			&customer.CreatedAt, &customer.UpdatedAt, &customer.EventCount,
			&currentRowTotalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning customer from list: %v", ErrDatabaseError, err)
		}
		totalCount = currentRowTotalCount
		if userID.Valid {
			customer.UserID = &userID.Int64
		}
		customers = append(customers, customer)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating customer rows: %v", ErrDatabaseError, err)
	}
	return customers, totalCount, nil
}

func (r *customerRepository) UpdateCustomer(executor SQLExecutor, customer *models.Customer) (*models.Customer, error) {
	query := `UPDATE customers SET
	            first_name = $1, last_name = $2, email = $3, phone_number = $4,
	            company = $5, address = $6, city = $7, postal_code = $8, country = $9,
	            user_id = $10, updated_at = $11
	          WHERE id = $12
	          RETURNING updated_at`

	customer.UpdatedAt = time.Now()

	err := executor.QueryRow(query,
		customer.FirstName, customer.LastName, customer.Email, customer.PhoneNumber,
		customer.Company, customer.Address, customer.City, customer.PostalCode,
		customer.Country, customer.UserID, customer.UpdatedAt, customer.ID,
	).Scan(&customer.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return nil, fmt.Errorf("%w: customer email %s already exists (constraint: %s)", ErrDuplicateKey, customer.Email, pqErr.Constraint)
		}
		return nil, fmt.Errorf("%w: updating customer ID %d: %v", ErrDatabaseError, customer.ID, err)
	}
	return customer, nil
}

func (r *customerRepository) DeleteCustomer(executor SQLExecutor, id int64) error {
	query := `DELETE FROM customers WHERE id = $1`
	result, err := executor.Exec(query, id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return fmt.Errorf("%w: customer ID %d is referenced by other records (constraint: %s)", ErrDatabaseError, id, pqErr.Constraint)
		}
		return fmt.Errorf("%w: deleting customer ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
