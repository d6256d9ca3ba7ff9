package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"lotus_planning_backend/internal/models"
)

// unfold undoes the RFC 5545 75-octet line folding so assertions can match
// full property values.
func unfold(serialized string) string {
	return strings.ReplaceAll(strings.ReplaceAll(serialized, "\r\n ", ""), "\n ", "")
}

func newCalendarTestService(shiftRepo *fakeShiftRepo, assignmentRepo *fakeAssignmentRepo) *calendarService {
	return &calendarService{
		shiftRepo:      shiftRepo,
		assignmentRepo: assignmentRepo,
		now:            func() time.Time { return time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC) },
	}
}

func newCalendarTestShift() *models.Shift {
	description := "Bring the trauma kit"
	return &models.Shift{
		ID:            3,
		EventID:       1,
		Name:          "Main Gate",
		StartTime:     time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
		EndTime:       time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		RequiredStaff: 2,
		Description:   &description,
		Status:        models.ShiftStatusOpen,
		Event: &models.Event{
			ID:       1,
			Name:     "City Marathon",
			Location: "City Park",
		},
	}
}

func TestGenerateShiftCalendar(t *testing.T) {
	shift := newCalendarTestShift()
	svc := newCalendarTestService(newFakeShiftRepo(shift), newFakeAssignmentRepo())

	serialized, err := svc.GenerateShiftCalendar(shift.ID)
	if err != nil {
		t.Fatalf("GenerateShiftCalendar returned error: %v", err)
	}
	content := unfold(serialized)

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"METHOD:PUBLISH",
		"CALSCALE:GREGORIAN",
		"PRODID:-//Lotus Planning//Event Manager//EN",
		fmt.Sprintf("UID:shift-%d@lotus-planning", shift.ID),
		"SUMMARY:Main Gate - City Marathon",
		"LOCATION:City Park",
		"DESCRIPTION:Shift: Main Gate",
		"Event: City Marathon",
		"Bring the trauma kit",
		"Staffing: 0 of 2 assigned",
		"Status: open",
		"Location: City Park",
		"DTSTART:20260601T080000Z",
		"DTEND:20260601T120000Z",
		"DTSTAMP:20260501T120000Z",
		"STATUS:TENTATIVE",
		"END:VCALENDAR",
	} {
		if !strings.Contains(content, want) {
			t.Errorf("calendar missing %q\n%s", want, content)
		}
	}
}

func TestGenerateShiftCalendarStatusMapping(t *testing.T) {
	tests := []struct {
		shiftStatus models.ShiftStatus
		wantStatus  string
	}{
		{models.ShiftStatusOpen, "STATUS:TENTATIVE"},
		{models.ShiftStatusFull, "STATUS:CONFIRMED"},
		{models.ShiftStatusInProgress, "STATUS:CONFIRMED"},
		{models.ShiftStatusCompleted, "STATUS:CONFIRMED"},
		{models.ShiftStatusCancelled, "STATUS:CANCELLED"},
	}

	for _, tt := range tests {
		t.Run(string(tt.shiftStatus), func(t *testing.T) {
			shift := newCalendarTestShift()
			shift.Status = tt.shiftStatus
			svc := newCalendarTestService(newFakeShiftRepo(shift), newFakeAssignmentRepo())

			serialized, err := svc.GenerateShiftCalendar(shift.ID)
			if err != nil {
				t.Fatalf("GenerateShiftCalendar returned error: %v", err)
			}
			if !strings.Contains(unfold(serialized), tt.wantStatus) {
				t.Errorf("calendar for %s shift missing %q", tt.shiftStatus, tt.wantStatus)
			}
		})
	}
}

func TestGenerateShiftCalendarFlagsUnderstaffedShift(t *testing.T) {
	understaffed := newCalendarTestShift()
	understaffed.Assignments = []models.StaffAssignment{
		{ID: 1, ShiftID: understaffed.ID, StaffID: 7, Status: models.AssignmentStatusAssigned},
		{ID: 2, ShiftID: understaffed.ID, StaffID: 8, Status: models.AssignmentStatusCancelled},
	}

	svc := newCalendarTestService(newFakeShiftRepo(understaffed), newFakeAssignmentRepo())
	serialized, err := svc.GenerateShiftCalendar(understaffed.ID)
	if err != nil {
		t.Fatalf("GenerateShiftCalendar returned error: %v", err)
	}
	if !strings.Contains(unfold(serialized), "PRIORITY:5") {
		t.Error("understaffed shift (1 of 2 filled) should carry PRIORITY:5")
	}

	staffed := newCalendarTestShift()
	staffed.ID = 4
	staffed.Assignments = []models.StaffAssignment{
		{ID: 1, ShiftID: staffed.ID, StaffID: 7, Status: models.AssignmentStatusAssigned},
		{ID: 2, ShiftID: staffed.ID, StaffID: 8, Status: models.AssignmentStatusConfirmed},
	}

	svc = newCalendarTestService(newFakeShiftRepo(staffed), newFakeAssignmentRepo())
	serialized, err = svc.GenerateShiftCalendar(staffed.ID)
	if err != nil {
		t.Fatalf("GenerateShiftCalendar returned error: %v", err)
	}
	if strings.Contains(unfold(serialized), "PRIORITY:5") {
		t.Error("fully staffed shift must not carry the understaffed priority")
	}
}

func TestGenerateStaffCalendarSkipsCancelledAssignments(t *testing.T) {
	morning := newCalendarTestShift()
	evening := newCalendarTestShift()
	evening.ID = 4
	evening.Name = "Finish Line"

	assignmentRepo := newFakeAssignmentRepo(
		&models.StaffAssignment{ID: 1, ShiftID: morning.ID, StaffID: 7, Status: models.AssignmentStatusConfirmed, Shift: morning},
		&models.StaffAssignment{ID: 2, ShiftID: evening.ID, StaffID: 7, Status: models.AssignmentStatusCancelled, Shift: evening},
	)
	svc := newCalendarTestService(newFakeShiftRepo(), assignmentRepo)

	serialized, err := svc.GenerateStaffCalendar(7)
	if err != nil {
		t.Fatalf("GenerateStaffCalendar returned error: %v", err)
	}
	content := unfold(serialized)

	if !strings.Contains(content, "UID:shift-3@lotus-planning") {
		t.Error("confirmed assignment should appear in the staff calendar")
	}
	if strings.Contains(content, "UID:shift-4@lotus-planning") {
		t.Error("cancelled assignment must not appear in the staff calendar")
	}
}

func TestGenerateShiftCalendarNotFound(t *testing.T) {
	svc := newCalendarTestService(newFakeShiftRepo(), newFakeAssignmentRepo())

	_, err := svc.GenerateShiftCalendar(99)
	if err != ErrShiftNotFound {
		t.Fatalf("expected ErrShiftNotFound, got %v", err)
	}
}
