package services

import (
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"lotus_planning_backend/internal/models"
	"lotus_planning_backend/internal/repositories"
	"lotus_planning_backend/pkg/utils"
)

// --- Custom Service Errors for Staff Assignment ---
var (
	ErrAssignmentNotFound     = errors.New("staff assignment not found")
	ErrAssignmentValidation   = errors.New("assignment data validation error")
	ErrStaffNotAvailable      = errors.New("staff member has an overlapping assignment in this time window")
	ErrStaffAlreadyAssigned   = errors.New("staff member is already assigned to this shift")
	ErrAssignmentNotCheckedIn = errors.New("assignment has not been checked in")
)

// --- Assignment DTOs ---
type CreateAssignmentRequest struct {
	ShiftID int64   `json:"shift_id" binding:"required"`
	StaffID int64   `json:"staff_id" binding:"required"`
	Notes   *string `json:"notes"`
}

type UpdateAssignmentRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

// --- AssignmentService Interface ---
type AssignmentService interface {
	CreateAssignment(req CreateAssignmentRequest) (*models.StaffAssignment, error)
	GetAssignmentByID(assignmentID int64) (*models.StaffAssignment, error)
	GetAllAssignments() ([]models.StaffAssignment, error)
	GetAssignmentsByShiftID(shiftID int64) ([]models.StaffAssignment, error)
	GetAssignmentsByStaffID(staffID int64) ([]models.StaffAssignment, error)
	GetConfirmedAssignmentsByStaffID(staffID int64) ([]models.StaffAssignment, error)
	UpdateAssignment(assignmentID int64, req UpdateAssignmentRequest) (*models.StaffAssignment, error)
	DeleteAssignment(assignmentID int64) error
	CheckIn(assignmentID int64) (*models.StaffAssignment, error)
	CheckOut(assignmentID int64) (*models.StaffAssignment, error)
	IsStaffAvailable(staffID int64, start, end time.Time, excludeAssignmentID *int64) (bool, error)
	GetStaffHoursPerYear(year int) ([]models.StaffHoursReport, error)
}

// --- assignmentService Implementation ---
type assignmentService struct {
	assignmentRepo repositories.AssignmentRepository
	shiftRepo      repositories.ShiftRepository
	staffRepo      repositories.StaffRepository
	emailSvc       EmailService
	db             *sql.DB
}

// NewAssignmentService creates a new instance of AssignmentService.
func NewAssignmentService(assignmentRepo repositories.AssignmentRepository, shiftRepo repositories.ShiftRepository, staffRepo repositories.StaffRepository, emailSvc EmailService, db *sql.DB) AssignmentService {
	return &assignmentService{
		assignmentRepo: assignmentRepo,
		shiftRepo:      shiftRepo,
		staffRepo:      staffRepo,
		emailSvc:       emailSvc,
		db:             db,
	}
}

// IsStaffAvailable reports whether the staff member has no conflicting
// assignment in the [start, end) window. Two windows conflict when
// existing.Start < end AND existing.End > start; shifts that merely touch
// at a boundary do not overlap. Cancelled assignments never block, and
// excludeAssignmentID lets an assignment be moved without colliding with
// itself.
func (s *assignmentService) IsStaffAvailable(staffID int64, start, end time.Time, excludeAssignmentID *int64) (bool, error) {
	assignments, err := s.assignmentRepo.GetAssignmentsByStaffID(staffID)
	if err != nil {
		return false, fmt.Errorf("failed to get assignments for staff %d: %w", staffID, err)
	}

	for _, assignment := range assignments {
		if assignment.Status == models.AssignmentStatusCancelled {
			continue
		}
		if excludeAssignmentID != nil && assignment.ID == *excludeAssignmentID {
			continue
		}
		if assignment.Shift == nil {
			continue
		}
		if assignment.Shift.StartTime.Before(end) && assignment.Shift.EndTime.After(start) {
			return false, nil
		}
	}
	return true, nil
}

func (s *assignmentService) CreateAssignment(req CreateAssignmentRequest) (*models.StaffAssignment, error) {
	shift, err := s.shiftRepo.GetShiftByID(req.ShiftID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to get shift %d for assignment: %w", req.ShiftID, err)
	}
	if shift.Status == models.ShiftStatusCancelled {
		return nil, fmt.Errorf("%w: cannot assign staff to a cancelled shift", ErrAssignmentValidation)
	}

	staff, err := s.staffRepo.GetStaffByID(req.StaffID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, fmt.Errorf("failed to get staff member %d for assignment: %w", req.StaffID, err)
	}
	if !staff.IsActive {
		return nil, ErrStaffInactive
	}

	for _, existing := range shift.Assignments {
		if existing.StaffID == req.StaffID && existing.Status != models.AssignmentStatusCancelled {
			return nil, ErrStaffAlreadyAssigned
		}
	}

	available, err := s.IsStaffAvailable(req.StaffID, shift.StartTime, shift.EndTime, nil)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, ErrStaffNotAvailable
	}

	assignment := &models.StaffAssignment{
		ShiftID: req.ShiftID,
		StaffID: req.StaffID,
		Status:  models.AssignmentStatusAssigned,
		Notes:   req.Notes,
	}

	createdAssignment, err := s.assignmentRepo.CreateAssignment(s.db, assignment)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrShiftNotFound
		}
		return nil, fmt.Errorf("failed to create assignment: %w", err)
	}
	createdAssignment.Shift = shift
	createdAssignment.Staff = staff

	s.refreshShiftFillStatus(shift)

	if shift.Event != nil {
		if err := s.emailSvc.SendStaffAssignmentNotification(staff, shift, shift.Event); err != nil {
			utils.LogError(err, "Failed to send assignment notification", map[string]interface{}{
				"assignment_id": createdAssignment.ID, "staff_id": staff.ID,
			})
		}
	}
	return createdAssignment, nil
}

// refreshShiftFillStatus flips a shift between open and full based on the
// current number of non-cancelled assignments. Failures only get logged;
// the fill marker is derived data.
func (s *assignmentService) refreshShiftFillStatus(shift *models.Shift) {
	if shift.Status != models.ShiftStatusOpen && shift.Status != models.ShiftStatusFull {
		return
	}

	assignments, err := s.assignmentRepo.GetAssignmentsByShiftID(shift.ID)
	if err != nil {
		utils.LogError(err, "Failed to refresh shift fill status", map[string]interface{}{"shift_id": shift.ID})
		return
	}
	activeCount := 0
	for _, assignment := range assignments {
		if assignment.Status != models.AssignmentStatusCancelled {
			activeCount++
		}
	}

	newStatus := models.ShiftStatusOpen
	if activeCount >= shift.RequiredStaff {
		newStatus = models.ShiftStatusFull
	}
	if newStatus == shift.Status {
		return
	}
	shift.Status = newStatus
	if _, err := s.shiftRepo.UpdateShift(s.db, shift); err != nil {
		utils.LogError(err, "Failed to persist shift fill status", map[string]interface{}{"shift_id": shift.ID})
	}
}

func (s *assignmentService) GetAssignmentByID(assignmentID int64) (*models.StaffAssignment, error) {
	assignment, err := s.assignmentRepo.GetAssignmentByID(assignmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment by ID %d: %w", assignmentID, err)
	}
	return assignment, nil
}

func (s *assignmentService) GetAllAssignments() ([]models.StaffAssignment, error) {
	assignments, err := s.assignmentRepo.GetAllAssignments()
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}
	return assignments, nil
}

func (s *assignmentService) GetAssignmentsByShiftID(shiftID int64) ([]models.StaffAssignment, error) {
	assignments, err := s.assignmentRepo.GetAssignmentsByShiftID(shiftID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments for shift %d: %w", shiftID, err)
	}
	return assignments, nil
}

func (s *assignmentService) GetAssignmentsByStaffID(staffID int64) ([]models.StaffAssignment, error) {
	assignments, err := s.assignmentRepo.GetAssignmentsByStaffID(staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments for staff %d: %w", staffID, err)
	}
	return assignments, nil
}

func (s *assignmentService) GetConfirmedAssignmentsByStaffID(staffID int64) ([]models.StaffAssignment, error) {
	assignments, err := s.assignmentRepo.GetConfirmedAssignmentsByStaffID(staffID)
	if err != nil {
		return nil, fmt.Errorf("failed to get confirmed assignments for staff %d: %w", staffID, err)
	}
	return assignments, nil
}

func (s *assignmentService) UpdateAssignment(assignmentID int64, req UpdateAssignmentRequest) (*models.StaffAssignment, error) {
	assignment, err := s.assignmentRepo.GetAssignmentByID(assignmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment %d for update: %w", assignmentID, err)
	}

	if req.Status != nil {
		if !models.IsValidAssignmentStatus(*req.Status) {
			return nil, fmt.Errorf("%w: invalid assignment status %q", ErrAssignmentValidation, *req.Status)
		}
		assignment.Status = models.AssignmentStatus(*req.Status)
	}
	if req.Notes != nil {
		assignment.Notes = req.Notes
	}

	updatedAssignment, err := s.assignmentRepo.UpdateAssignment(s.db, assignment)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to update assignment %d: %w", assignmentID, err)
	}

	if req.Status != nil && assignment.Shift != nil {
		s.refreshShiftFillStatus(assignment.Shift)
	}
	return updatedAssignment, nil
}

func (s *assignmentService) DeleteAssignment(assignmentID int64) error {
	assignment, err := s.assignmentRepo.GetAssignmentByID(assignmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrAssignmentNotFound
		}
		return fmt.Errorf("failed to get assignment %d for deletion: %w", assignmentID, err)
	}

	if err := s.assignmentRepo.DeleteAssignment(s.db, assignmentID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrAssignmentNotFound
		}
		return fmt.Errorf("failed to delete assignment %d: %w", assignmentID, err)
	}

	if assignment.Shift != nil {
		s.refreshShiftFillStatus(assignment.Shift)
	}
	return nil
}

// CheckIn stamps the arrival time and marks the assignment checked in.
func (s *assignmentService) CheckIn(assignmentID int64) (*models.StaffAssignment, error) {
	assignment, err := s.assignmentRepo.GetAssignmentByID(assignmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment %d for check-in: %w", assignmentID, err)
	}
	if assignment.Status == models.AssignmentStatusCancelled {
		return nil, fmt.Errorf("%w: cannot check in a cancelled assignment", ErrAssignmentValidation)
	}

	now := time.Now()
	assignment.Status = models.AssignmentStatusCheckedIn
	assignment.CheckInTime = &now

	updatedAssignment, err := s.assignmentRepo.UpdateAssignment(s.db, assignment)
	if err != nil {
		return nil, fmt.Errorf("failed to check in assignment %d: %w", assignmentID, err)
	}
	return updatedAssignment, nil
}

// CheckOut stamps the departure time. Only checked-in assignments can check out.
func (s *assignmentService) CheckOut(assignmentID int64) (*models.StaffAssignment, error) {
	assignment, err := s.assignmentRepo.GetAssignmentByID(assignmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment %d for check-out: %w", assignmentID, err)
	}
	if assignment.Status != models.AssignmentStatusCheckedIn {
		return nil, ErrAssignmentNotCheckedIn
	}

	now := time.Now()
	assignment.Status = models.AssignmentStatusCheckedOut
	assignment.CheckOutTime = &now

	updatedAssignment, err := s.assignmentRepo.UpdateAssignment(s.db, assignment)
	if err != nil {
		return nil, fmt.Errorf("failed to check out assignment %d: %w", assignmentID, err)
	}
	return updatedAssignment, nil
}

// GetStaffHoursPerYear aggregates worked hours per staff member for one
// calendar year, measured by scheduled shift duration. Cancelled and no-show
// assignments are excluded. Results are sorted by hours, highest first.
func (s *assignmentService) GetStaffHoursPerYear(year int) ([]models.StaffHoursReport, error) {
	assignments, err := s.assignmentRepo.GetAllAssignments()
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments for hours report: %w", err)
	}

	reportsByStaff := map[int64]*models.StaffHoursReport{}
	for _, assignment := range assignments {
		if assignment.Status == models.AssignmentStatusCancelled || assignment.Status == models.AssignmentStatusNoShow {
			continue
		}
		if assignment.Shift == nil || assignment.Shift.StartTime.Year() != year {
			continue
		}

		report, ok := reportsByStaff[assignment.StaffID]
		if !ok {
			report = &models.StaffHoursReport{
				StaffID: assignment.StaffID,
				Year:    year,
			}
			if assignment.Staff != nil {
				report.StaffName = assignment.Staff.FullName()
				report.Email = assignment.Staff.Email
			}
			reportsByStaff[assignment.StaffID] = report
		}
		report.TotalHours += assignment.Shift.EndTime.Sub(assignment.Shift.StartTime).Hours()
		report.TotalShifts++
	}

	reports := make([]models.StaffHoursReport, 0, len(reportsByStaff))
	for _, report := range reportsByStaff {
		report.TotalHours = math.Round(report.TotalHours*100) / 100
		reports = append(reports, *report)
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].TotalHours != reports[j].TotalHours {
			return reports[i].TotalHours > reports[j].TotalHours
		}
		return reports[i].StaffID < reports[j].StaffID
	})
	return reports, nil
}
