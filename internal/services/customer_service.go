package services

import (
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"lotus_planning_backend/internal/models"
	"lotus_planning_backend/internal/repositories"
)

// --- Custom Service Errors for Customer ---
var (
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrCustomerEmailExists = errors.New("a customer with this email already exists")
	ErrCustomerValidation  = errors.New("customer data validation error")
	ErrCustomerHasEvents   = errors.New("customer cannot be deleted: event(s) associated with this customer")
	ErrUserAlreadyLinked   = errors.New("user account is already linked to another customer")
	ErrNoUserForEmail      = errors.New("no user account found for customer email")
)

var emailRegex = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// --- Customer DTOs ---
type CreateCustomerRequest struct {
	FirstName   string  `json:"first_name" binding:"required"`
	LastName    string  `json:"last_name" binding:"required"`
	Email       string  `json:"email" binding:"required"`
	PhoneNumber *string `json:"phone_number"`
	Company     *string `json:"company"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	PostalCode  *string `json:"postal_code"`
	Country     *string `json:"country"`
}

type UpdateCustomerRequest struct {
	FirstName   *string `json:"first_name"`
	LastName    *string `json:"last_name"`
	Email       *string `json:"email"`
	PhoneNumber *string `json:"phone_number"`
	Company     *string `json:"company"`
	Address     *string `json:"address"`
	City        *string `json:"city"`
	PostalCode  *string `json:"postal_code"`
	Country     *string `json:"country"`
}

// --- CustomerService Interface ---
type CustomerService interface {
	CreateCustomer(req CreateCustomerRequest) (*models.Customer, error)
	GetCustomerByID(customerID int64) (*models.Customer, error)
	GetCustomerByUserID(userID int64) (*models.Customer, error)
	GetCustomers(page, pageSize int, searchTerm *string) ([]models.Customer, int, error)
	UpdateCustomer(customerID int64, req UpdateCustomerRequest) (*models.Customer, error)
	DeleteCustomer(customerID int64) error
	LinkUserByEmail(customerID int64) (*models.Customer, error)
}

// --- customerService Implementation ---
type customerService struct {
	customerRepo repositories.CustomerRepository
	authRepo     repositories.AuthRepository
	db           *sql.DB
}

// NewCustomerService creates a new instance of CustomerService.
func NewCustomerService(customerRepo repositories.CustomerRepository, authRepo repositories.AuthRepository, db *sql.DB) CustomerService {
	return &customerService{
		customerRepo: customerRepo,
		authRepo:     authRepo,
		db:           db,
	}
}

func validateCustomerEmail(email string) error {
	if strings.TrimSpace(email) == "" {
		return fmt.Errorf("%w: email cannot be empty", ErrCustomerValidation)
	}
	if !emailRegex.MatchString(strings.ToLower(email)) {
		return fmt.Errorf("%w: invalid email format", ErrCustomerValidation)
	}
	return nil
}

func (s *customerService) CreateCustomer(req CreateCustomerRequest) (*models.Customer, error) {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrCustomerValidation)
	}
	if err := validateCustomerEmail(req.Email); err != nil {
		return nil, err
	}

	existing, err := s.customerRepo.GetCustomerByEmail(req.Email)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check customer email uniqueness: %w", err)
	}
	if existing != nil {
		return nil, ErrCustomerEmailExists
	}

	customer := &models.Customer{
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    strings.TrimSpace(req.LastName),
		Email:       strings.TrimSpace(req.Email),
		PhoneNumber: req.PhoneNumber,
		Company:     req.Company,
		Address:     req.Address,
		City:        req.City,
		PostalCode:  req.PostalCode,
		Country:     req.Country,
	}

	createdCustomer, err := s.customerRepo.CreateCustomer(s.db, customer)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrCustomerEmailExists
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return createdCustomer, nil
}

func (s *customerService) GetCustomerByID(customerID int64) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerByID(customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer by ID %d: %w", customerID, err)
	}
	return customer, nil
}

func (s *customerService) GetCustomerByUserID(userID int64) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer by user ID %d: %w", userID, err)
	}
	return customer, nil
}

func (s *customerService) GetCustomers(page, pageSize int, searchTerm *string) ([]models.Customer, int, error) {
	customers, total, err := s.customerRepo.GetCustomers(page, pageSize, searchTerm)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get customers: %w", err)
	}
	return customers, total, nil
}

func (s *customerService) UpdateCustomer(customerID int64, req UpdateCustomerRequest) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerByID(customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer %d for update: %w", customerID, err)
	}

	if req.FirstName != nil {
		if strings.TrimSpace(*req.FirstName) == "" {
			return nil, fmt.Errorf("%w: first name cannot be empty", ErrCustomerValidation)
		}
		customer.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		if strings.TrimSpace(*req.LastName) == "" {
			return nil, fmt.Errorf("%w: last name cannot be empty", ErrCustomerValidation)
		}
		customer.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil && !strings.EqualFold(*req.Email, customer.Email) {
		// Uniqueness is checked only when the email actually changes, so a
		// customer can always be re-saved with their own address.
		if err := validateCustomerEmail(*req.Email); err != nil {
			return nil, err
		}
		existing, err := s.customerRepo.GetCustomerByEmail(*req.Email)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to check customer email uniqueness: %w", err)
		}
		if existing != nil && existing.ID != customerID {
			return nil, ErrCustomerEmailExists
		}
		customer.Email = strings.TrimSpace(*req.Email)
	}
	if req.PhoneNumber != nil {
		customer.PhoneNumber = req.PhoneNumber
	}
	if req.Company != nil {
		customer.Company = req.Company
	}
	if req.Address != nil {
		customer.Address = req.Address
	}
	if req.City != nil {
		customer.City = req.City
	}
	if req.PostalCode != nil {
		customer.PostalCode = req.PostalCode
	}
	if req.Country != nil {
		customer.Country = req.Country
	}

	updatedCustomer, err := s.customerRepo.UpdateCustomer(s.db, customer)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrCustomerEmailExists
		}
		return nil, fmt.Errorf("failed to update customer %d: %w", customerID, err)
	}
	return updatedCustomer, nil
}

// DeleteCustomer removes a customer. Customers with events are protected:
// their events hold the billing history and must be reassigned or deleted first.
func (s *customerService) DeleteCustomer(customerID int64) error {
	customer, err := s.customerRepo.GetCustomerByID(customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to get customer %d for deletion: %w", customerID, err)
	}
	if customer.EventCount > 0 {
		return fmt.Errorf("%w: %d event(s)", ErrCustomerHasEvents, customer.EventCount)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for customer deletion: %w", err)
	}
	defer tx.Rollback()

	if customer.UserID != nil {
		if err := s.authRepo.SetUserCustomerID(tx, *customer.UserID, nil); err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("failed to unlink user from customer %d: %w", customerID, err)
		}
	}
	if err := s.customerRepo.DeleteCustomer(tx, customerID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrCustomerNotFound
		}
		return fmt.Errorf("failed to delete customer %d: %w", customerID, err)
	}
	return tx.Commit()
}

// LinkUserByEmail connects a customer record to the portal user account whose
// email matches the customer's. If the customer is already linked this is a
// no-op; a user already bound to a different customer stays with that
// customer (first writer wins).
func (s *customerService) LinkUserByEmail(customerID int64) (*models.Customer, error) {
	customer, err := s.customerRepo.GetCustomerByID(customerID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("failed to get customer %d for linking: %w", customerID, err)
	}
	if customer.UserID != nil {
		return customer, nil
	}

	user, err := s.authRepo.FindUserByEmail(customer.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoUserForEmail
		}
		return nil, fmt.Errorf("failed to look up user for customer %d: %w", customerID, err)
	}
	if user.CustomerID != nil && *user.CustomerID != customerID {
		return nil, ErrUserAlreadyLinked
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction for customer linking: %w", err)
	}
	defer tx.Rollback()

	if err := s.authRepo.SetUserCustomerID(tx, user.ID, &customer.ID); err != nil {
		return nil, fmt.Errorf("failed to link user %d to customer %d: %w", user.ID, customerID, err)
	}
	customer.UserID = &user.ID
	updatedCustomer, err := s.customerRepo.UpdateCustomer(tx, customer)
	if err != nil {
		return nil, fmt.Errorf("failed to store user link on customer %d: %w", customerID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit customer linking: %w", err)
	}
	return updatedCustomer, nil
}
