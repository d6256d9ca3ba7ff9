package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lotus_planning_backend/internal/models"
	"lotus_planning_backend/internal/repositories"
)

// --- Custom Service Errors for Staff ---
var (
	ErrStaffNotFound    = errors.New("staff member not found")
	ErrStaffEmailExists = errors.New("a staff member with this email already exists")
	ErrStaffValidation  = errors.New("staff data validation error")
	ErrStaffInactive    = errors.New("staff member is deactivated")
)

// --- Staff DTOs ---
type CreateStaffRequest struct {
	FirstName           string  `json:"first_name" binding:"required"`
	LastName            string  `json:"last_name" binding:"required"`
	Email               string  `json:"email" binding:"required"`
	Phone               *string `json:"phone"`
	CertificationLevel  *string `json:"certification_level"`
	CertificationExpiry *string `json:"certification_expiry"` // Format YYYY-MM-DD
}

type UpdateStaffRequest struct {
	FirstName           *string `json:"first_name"`
	LastName            *string `json:"last_name"`
	Email               *string `json:"email"`
	Phone               *string `json:"phone"`
	CertificationLevel  *string `json:"certification_level"`
	CertificationExpiry *string `json:"certification_expiry"` // Format YYYY-MM-DD, empty string clears
	IsActive            *bool   `json:"is_active"`
}

// --- StaffService Interface ---
type StaffService interface {
	CreateStaff(req CreateStaffRequest) (*models.Staff, error)
	GetStaffByID(staffID int64) (*models.Staff, error)
	GetStaff(page, pageSize int, searchTerm *string, activeOnly bool) ([]models.Staff, int, error)
	GetActiveStaff() ([]models.Staff, error)
	UpdateStaff(staffID int64, req UpdateStaffRequest) (*models.Staff, error)
	DeactivateStaff(staffID int64) error
	LinkUserByEmail(staffID int64) (*models.Staff, error)
	UnlinkUser(staffID int64) (*models.Staff, error)
}

// --- staffService Implementation ---
type staffService struct {
	staffRepo repositories.StaffRepository
	authRepo  repositories.AuthRepository
	db        *sql.DB
}

// NewStaffService creates a new instance of StaffService.
func NewStaffService(staffRepo repositories.StaffRepository, authRepo repositories.AuthRepository, db *sql.DB) StaffService {
	return &staffService{
		staffRepo: staffRepo,
		authRepo:  authRepo,
		db:        db,
	}
}

func parseCertificationExpiry(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("%w: certification_expiry must be YYYY-MM-DD", ErrStaffValidation)
	}
	return &t, nil
}

func (s *staffService) CreateStaff(req CreateStaffRequest) (*models.Staff, error) {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrStaffValidation)
	}
	if strings.TrimSpace(req.Email) == "" || !emailRegex.MatchString(strings.ToLower(req.Email)) {
		return nil, fmt.Errorf("%w: invalid email format", ErrStaffValidation)
	}

	existing, err := s.staffRepo.GetStaffByEmail(req.Email)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check staff email uniqueness: %w", err)
	}
	if existing != nil {
		return nil, ErrStaffEmailExists
	}

	var certificationExpiry *time.Time
	if req.CertificationExpiry != nil {
		certificationExpiry, err = parseCertificationExpiry(*req.CertificationExpiry)
		if err != nil {
			return nil, err
		}
	}

	staff := &models.Staff{
		FirstName:           strings.TrimSpace(req.FirstName),
		LastName:            strings.TrimSpace(req.LastName),
		Email:               strings.TrimSpace(req.Email),
		Phone:               req.Phone,
		CertificationLevel:  req.CertificationLevel,
		CertificationExpiry: certificationExpiry,
	}

	createdStaff, err := s.staffRepo.CreateStaff(s.db, staff)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrStaffEmailExists
		}
		return nil, fmt.Errorf("failed to create staff member: %w", err)
	}
	return createdStaff, nil
}

func (s *staffService) GetStaffByID(staffID int64) (*models.Staff, error) {
	staff, err := s.staffRepo.GetStaffByID(staffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to get staff member by ID %d: %w", staffID, err)
	}
	return staff, nil
}

func (s *staffService) GetStaff(page, pageSize int, searchTerm *string, activeOnly bool) ([]models.Staff, int, error) {
	staffMembers, total, err := s.staffRepo.GetStaff(page, pageSize, searchTerm, activeOnly)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get staff: %w", err)
	}
	return staffMembers, total, nil
}

func (s *staffService) GetActiveStaff() ([]models.Staff, error) {
	staffMembers, err := s.staffRepo.GetActiveStaff()
	if err != nil {
		return nil, fmt.Errorf("failed to get active staff: %w", err)
	}
	return staffMembers, nil
}

func (s *staffService) UpdateStaff(staffID int64, req UpdateStaffRequest) (*models.Staff, error) {
	staff, err := s.staffRepo.GetStaffByID(staffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to get staff member %d for update: %w", staffID, err)
	}

	if req.FirstName != nil {
		if strings.TrimSpace(*req.FirstName) == "" {
			return nil, fmt.Errorf("%w: first name cannot be empty", ErrStaffValidation)
		}
		staff.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		if strings.TrimSpace(*req.LastName) == "" {
			return nil, fmt.Errorf("%w: last name cannot be empty", ErrStaffValidation)
		}
		staff.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Email != nil && !strings.EqualFold(*req.Email, staff.Email) {
		if !emailRegex.MatchString(strings.ToLower(*req.Email)) {
			return nil, fmt.Errorf("%w: invalid email format", ErrStaffValidation)
		}
		existing, err := s.staffRepo.GetStaffByEmail(*req.Email)
		if err != nil && !errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("failed to check staff email uniqueness: %w", err)
		}
		if existing != nil && existing.ID != staffID {
			return nil, ErrStaffEmailExists
		}
		staff.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		staff.Phone = req.Phone
	}
	if req.CertificationLevel != nil {
		staff.CertificationLevel = req.CertificationLevel
	}
	if req.CertificationExpiry != nil {
		certificationExpiry, err := parseCertificationExpiry(*req.CertificationExpiry)
		if err != nil {
			return nil, err
		}
		staff.CertificationExpiry = certificationExpiry
	}
	if req.IsActive != nil {
		staff.IsActive = *req.IsActive
	}

	updatedStaff, err := s.staffRepo.UpdateStaff(s.db, staff)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrStaffEmailExists
		}
		return nil, fmt.Errorf("failed to update staff member %d: %w", staffID, err)
	}
	return updatedStaff, nil
}

// DeactivateStaff soft-deletes a staff member. Past assignments stay on
// record for hour reporting; the member simply stops appearing in rosters.
func (s *staffService) DeactivateStaff(staffID int64) error {
	err := s.staffRepo.DeactivateStaff(s.db, staffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrStaffNotFound
		}
		return fmt.Errorf("failed to deactivate staff member %d: %w", staffID, err)
	}
	return nil
}

// LinkUserByEmail connects a staff record to the user account whose email
// matches the staff member's. Already-linked staff are returned unchanged.
func (s *staffService) LinkUserByEmail(staffID int64) (*models.Staff, error) {
	staff, err := s.staffRepo.GetStaffByID(staffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to get staff member %d for linking: %w", staffID, err)
	}
	if staff.UserID != nil {
		return staff, nil
	}

	user, err := s.authRepo.FindUserByEmail(staff.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrNoUserForEmail
		}
		return nil, fmt.Errorf("failed to look up user for staff member %d: %w", staffID, err)
	}

	staff.UserID = &user.ID
	updatedStaff, err := s.staffRepo.UpdateStaff(s.db, staff)
	if err != nil {
		return nil, fmt.Errorf("failed to store user link on staff member %d: %w", staffID, err)
	}
	return updatedStaff, nil
}

// UnlinkUser removes the user account link from a staff record. The user
// account itself stays untouched. Unlinked staff are returned unchanged.
func (s *staffService) UnlinkUser(staffID int64) (*models.Staff, error) {
	staff, err := s.staffRepo.GetStaffByID(staffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to get staff member %d for unlinking: %w", staffID, err)
	}
	if staff.UserID == nil {
		return staff, nil
	}

	staff.UserID = nil
	updatedStaff, err := s.staffRepo.UpdateStaff(s.db, staff)
	if err != nil {
		return nil, fmt.Errorf("failed to remove user link on staff member %d: %w", staffID, err)
	}
	return updatedStaff, nil
}
