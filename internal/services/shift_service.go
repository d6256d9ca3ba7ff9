package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"lotus_planning_backend/internal/models"
	"lotus_planning_backend/internal/repositories"
)

// --- Custom Service Errors for Shift ---
var (
	ErrShiftNotFound       = errors.New("shift not found")
	ErrShiftValidation     = errors.New("shift data validation error")
	ErrShiftOutsideEvent   = errors.New("shift must fall within the event time window")
	ErrShiftHasAssignments = errors.New("shift cannot be deleted: staff assignment(s) exist")
)

// --- Shift DTOs ---
type CreateShiftRequest struct {
	EventID       int64   `json:"event_id" binding:"required"`
	Name          string  `json:"name" binding:"required"`
	StartTime     string  `json:"start_time" binding:"required"` // RFC3339 or YYYY-MM-DDTHH:MM
	EndTime       string  `json:"end_time" binding:"required"`
	RequiredStaff *int    `json:"required_staff"`
	Description   *string `json:"description"`
}

type UpdateShiftRequest struct {
	Name          *string `json:"name"`
	StartTime     *string `json:"start_time"`
	EndTime       *string `json:"end_time"`
	RequiredStaff *int    `json:"required_staff"`
	Description   *string `json:"description"`
	Status        *string `json:"status"`
}

// --- ShiftService Interface ---
type ShiftService interface {
	CreateShift(req CreateShiftRequest) (*models.Shift, error)
	GetShiftByID(shiftID int64) (*models.Shift, error)
	GetShiftsByEventID(eventID int64) ([]models.Shift, error)
	GetUpcomingShifts() ([]models.Shift, error)
	UpdateShift(shiftID int64, req UpdateShiftRequest) (*models.Shift, error)
	DeleteShift(shiftID int64) error
}

// --- shiftService Implementation ---
type shiftService struct {
	shiftRepo      repositories.ShiftRepository
	eventRepo      repositories.EventRepository
	assignmentRepo repositories.AssignmentRepository
	db             *sql.DB
}

// NewShiftService creates a new instance of ShiftService.
func NewShiftService(shiftRepo repositories.ShiftRepository, eventRepo repositories.EventRepository, assignmentRepo repositories.AssignmentRepository, db *sql.DB) ShiftService {
	return &shiftService{
		shiftRepo:      shiftRepo,
		eventRepo:      eventRepo,
		assignmentRepo: assignmentRepo,
		db:             db,
	}
}

func (s *shiftService) CreateShift(req CreateShiftRequest) (*models.Shift, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: shift name cannot be empty", ErrShiftValidation)
	}
	startTime, err := parseDateTime(req.StartTime)
	if err != nil {
		return nil, fmt.Errorf("%w: start_time: %v", ErrShiftValidation, err)
	}
	endTime, err := parseDateTime(req.EndTime)
	if err != nil {
		return nil, fmt.Errorf("%w: end_time: %v", ErrShiftValidation, err)
	}
	if !endTime.After(startTime) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrShiftValidation)
	}

	event, err := s.eventRepo.GetEventByID(req.EventID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d for shift creation: %w", req.EventID, err)
	}
	if event.Status == models.EventStatusCancelled {
		return nil, fmt.Errorf("%w: cannot add shifts to a cancelled event", ErrShiftValidation)
	}
	if startTime.Before(event.StartDate) || endTime.After(event.EndDate) {
		return nil, ErrShiftOutsideEvent
	}

	requiredStaff := 1
	if req.RequiredStaff != nil {
		if *req.RequiredStaff < 1 {
			return nil, fmt.Errorf("%w: required staff must be at least 1", ErrShiftValidation)
		}
		requiredStaff = *req.RequiredStaff
	}

	shift := &models.Shift{
		EventID:       req.EventID,
		Name:          strings.TrimSpace(req.Name),
		StartTime:     startTime,
		EndTime:       endTime,
		RequiredStaff: requiredStaff,
		Description:   req.Description,
		Status:        models.ShiftStatusOpen,
	}

	createdShift, err := s.shiftRepo.CreateShift(s.db, shift)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to create shift: %w", err)
	}
	return createdShift, nil
}

func (s *shiftService) GetShiftByID(shiftID int64) (*models.Shift, error) {
	shift, err := s.shiftRepo.GetShiftByID(shiftID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to get shift by ID %d: %w", shiftID, err)
	}
	return shift, nil
}

func (s *shiftService) GetShiftsByEventID(eventID int64) ([]models.Shift, error) {
	shifts, err := s.shiftRepo.GetShiftsByEventID(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get shifts for event %d: %w", eventID, err)
	}
	return shifts, nil
}

func (s *shiftService) GetUpcomingShifts() ([]models.Shift, error) {
	shifts, err := s.shiftRepo.GetUpcomingShifts()
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming shifts: %w", err)
	}
	return shifts, nil
}

func (s *shiftService) UpdateShift(shiftID int64, req UpdateShiftRequest) (*models.Shift, error) {
	shift, err := s.shiftRepo.GetShiftByID(shiftID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to get shift %d for update: %w", shiftID, err)
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: shift name cannot be empty", ErrShiftValidation)
		}
		shift.Name = strings.TrimSpace(*req.Name)
	}
	if req.StartTime != nil {
		startTime, err := parseDateTime(*req.StartTime)
		if err != nil {
			return nil, fmt.Errorf("%w: start_time: %v", ErrShiftValidation, err)
		}
		shift.StartTime = startTime
	}
	if req.EndTime != nil {
		endTime, err := parseDateTime(*req.EndTime)
		if err != nil {
			return nil, fmt.Errorf("%w: end_time: %v", ErrShiftValidation, err)
		}
		shift.EndTime = endTime
	}
	if !shift.EndTime.After(shift.StartTime) {
		return nil, fmt.Errorf("%w: end time must be after start time", ErrShiftValidation)
	}
	if (req.StartTime != nil || req.EndTime != nil) && shift.Event != nil {
		if shift.StartTime.Before(shift.Event.StartDate) || shift.EndTime.After(shift.Event.EndDate) {
			return nil, ErrShiftOutsideEvent
		}
	}
	if req.RequiredStaff != nil {
		if *req.RequiredStaff < 1 {
			return nil, fmt.Errorf("%w: required staff must be at least 1", ErrShiftValidation)
		}
		shift.RequiredStaff = *req.RequiredStaff
	}
	if req.Description != nil {
		shift.Description = req.Description
	}
	if req.Status != nil {
		if !models.IsValidShiftStatus(*req.Status) {
			return nil, fmt.Errorf("%w: invalid shift status %q", ErrShiftValidation, *req.Status)
		}
		shift.Status = models.ShiftStatus(*req.Status)
	}

	updatedShift, err := s.shiftRepo.UpdateShift(s.db, shift)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to update shift %d: %w", shiftID, err)
	}
	return updatedShift, nil
}

// DeleteShift removes a shift that has no staff assignments. Assignments are
// unassigned (or cancelled) first so the roster history is never silently lost.
func (s *shiftService) DeleteShift(shiftID int64) error {
	assignments, err := s.assignmentRepo.GetAssignmentsByShiftID(shiftID)
	if err != nil {
		return fmt.Errorf("failed to check assignments for shift %d: %w", shiftID, err)
	}
	for _, assignment := range assignments {
		if assignment.Status != models.AssignmentStatusCancelled {
			return fmt.Errorf("%w: %d active assignment(s)", ErrShiftHasAssignments, len(assignments))
		}
	}

	err = s.shiftRepo.DeleteShift(s.db, shiftID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrShiftNotFound
		}
		return fmt.Errorf("failed to delete shift %d: %w", shiftID, err)
	}
	return nil
}
