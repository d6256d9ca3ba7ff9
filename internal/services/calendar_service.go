package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"lotus_planning_backend/internal/models"
	"lotus_planning_backend/internal/repositories"
)

const calendarProductID = "-//Lotus Planning//Event Manager//EN"
const calendarUIDDomain = "lotus-planning"

// --- CalendarService Interface ---
type CalendarService interface {
	GenerateShiftCalendar(shiftID int64) (string, error)
	GenerateStaffCalendar(staffID int64) (string, error)
}

// --- calendarService Implementation ---
type calendarService struct {
	shiftRepo      repositories.ShiftRepository
	assignmentRepo repositories.AssignmentRepository
	now            func() time.Time
}

// NewCalendarService creates a new instance of CalendarService.
func NewCalendarService(shiftRepo repositories.ShiftRepository, assignmentRepo repositories.AssignmentRepository) CalendarService {
	return &calendarService{
		shiftRepo:      shiftRepo,
		assignmentRepo: assignmentRepo,
		now:            time.Now,
	}
}

// GenerateShiftCalendar renders one shift as an iCalendar document suitable
// for import into any calendar client. Times are emitted in UTC.
func (s *calendarService) GenerateShiftCalendar(shiftID int64) (string, error) {
	shift, err := s.shiftRepo.GetShiftByID(shiftID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrShiftNotFound
		}
		return "", fmt.Errorf("failed to get shift %d for calendar export: %w", shiftID, err)
	}

	cal := newCalendar()
	s.addShiftEvent(cal, shift)
	return cal.Serialize(), nil
}

// GenerateStaffCalendar renders all non-cancelled assignments of one staff
// member as a calendar feed, one VEVENT per assigned shift.
func (s *calendarService) GenerateStaffCalendar(staffID int64) (string, error) {
	assignments, err := s.assignmentRepo.GetAssignmentsByStaffID(staffID)
	if err != nil {
		return "", fmt.Errorf("failed to get assignments for staff %d calendar: %w", staffID, err)
	}

	cal := newCalendar()
	for _, assignment := range assignments {
		if assignment.Status == models.AssignmentStatusCancelled || assignment.Shift == nil {
			continue
		}
		s.addShiftEvent(cal, assignment.Shift)
	}
	return cal.Serialize(), nil
}

func newCalendar() *ics.Calendar {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(calendarProductID)
	cal.SetCalscale("GREGORIAN")
	return cal
}

func (s *calendarService) addShiftEvent(cal *ics.Calendar, shift *models.Shift) {
	uid := fmt.Sprintf("shift-%d@%s", shift.ID, calendarUIDDomain)
	event := cal.AddEvent(uid)
	event.SetDtStampTime(s.now().UTC())
	event.SetStartAt(shift.StartTime.UTC())
	event.SetEndAt(shift.EndTime.UTC())

	summary := shift.Name
	location := ""
	if shift.Event != nil {
		summary = fmt.Sprintf("%s - %s", shift.Name, shift.Event.Name)
		location = shift.Event.Location
	}
	event.SetSummary(summary)
	if location != "" {
		event.SetLocation(location)
	}
	event.SetDescription(shiftEventDescription(shift, location))

	event.SetStatus(calendarStatusForShift(shift.Status))

	// Understaffed shifts are flagged with an elevated priority so they
	// stand out in planners' calendars.
	if activeAssignmentCount(shift.Assignments) < shift.RequiredStaff {
		event.SetProperty(ics.ComponentProperty(ics.PropertyPriority), "5")
	}
}

// shiftEventDescription builds the multi-line body shown in calendar clients.
func shiftEventDescription(shift *models.Shift, location string) string {
	lines := []string{fmt.Sprintf("Shift: %s", shift.Name)}
	if shift.Event != nil {
		lines = append(lines, fmt.Sprintf("Event: %s", shift.Event.Name))
	}
	if shift.Description != nil && *shift.Description != "" {
		lines = append(lines, *shift.Description)
	}
	lines = append(lines,
		fmt.Sprintf("Staffing: %d of %d assigned", activeAssignmentCount(shift.Assignments), shift.RequiredStaff),
		fmt.Sprintf("Status: %s", shift.Status),
	)
	if location != "" {
		lines = append(lines, fmt.Sprintf("Location: %s", location))
	}
	return strings.Join(lines, "\n")
}

func calendarStatusForShift(status models.ShiftStatus) ics.ObjectStatus {
	switch status {
	case models.ShiftStatusCancelled:
		return ics.ObjectStatusCancelled
	case models.ShiftStatusCompleted, models.ShiftStatusInProgress, models.ShiftStatusFull:
		return ics.ObjectStatusConfirmed
	default:
		return ics.ObjectStatusTentative
	}
}

func activeAssignmentCount(assignments []models.StaffAssignment) int {
	count := 0
	for _, assignment := range assignments {
		if assignment.Status != models.AssignmentStatusCancelled {
			count++
		}
	}
	return count
}
