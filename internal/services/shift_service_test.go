package services

import (
	"errors"
	"testing"
	"time"

	"lotus_planning_backend/internal/models"
)

func TestCreateShift(t *testing.T) {
	event := newTestEvent(models.EventStatusConfirmed)
	eventRepo := newFakeEventRepo(event)
	shiftRepo := newFakeShiftRepo()
	svc := NewShiftService(shiftRepo, eventRepo, newFakeAssignmentRepo(), nil)

	shift, err := svc.CreateShift(CreateShiftRequest{
		EventID:   event.ID,
		Name:      "Morning Cover",
		StartTime: "2026-06-01T08:00:00Z",
		EndTime:   "2026-06-01T12:00:00Z",
	})
	if err != nil {
		t.Fatalf("CreateShift returned error: %v", err)
	}
	if shift.Status != models.ShiftStatusOpen {
		t.Errorf("new shift status = %s, want %s", shift.Status, models.ShiftStatusOpen)
	}
	if shift.RequiredStaff != 1 {
		t.Errorf("required staff defaults to %d, want 1", shift.RequiredStaff)
	}
}

func TestCreateShiftValidation(t *testing.T) {
	event := newTestEvent(models.EventStatusConfirmed)
	cancelled := newTestEvent(models.EventStatusCancelled)
	cancelled.ID = 2
	eventRepo := newFakeEventRepo(event, cancelled)

	tests := []struct {
		name    string
		req     CreateShiftRequest
		wantErr error
	}{
		{
			name: "shift before event window",
			req: CreateShiftRequest{
				EventID: 1, Name: "Early",
				StartTime: "2026-06-01T06:00:00Z", EndTime: "2026-06-01T10:00:00Z",
			},
			wantErr: ErrShiftOutsideEvent,
		},
		{
			name: "shift after event window",
			req: CreateShiftRequest{
				EventID: 1, Name: "Late",
				StartTime: "2026-06-01T16:00:00Z", EndTime: "2026-06-01T20:00:00Z",
			},
			wantErr: ErrShiftOutsideEvent,
		},
		{
			name: "inverted times",
			req: CreateShiftRequest{
				EventID: 1, Name: "Backwards",
				StartTime: "2026-06-01T12:00:00Z", EndTime: "2026-06-01T10:00:00Z",
			},
			wantErr: ErrShiftValidation,
		},
		{
			name: "cancelled event",
			req: CreateShiftRequest{
				EventID: 2, Name: "Doomed",
				StartTime: "2026-06-01T09:00:00Z", EndTime: "2026-06-01T12:00:00Z",
			},
			wantErr: ErrShiftValidation,
		},
		{
			name: "unknown event",
			req: CreateShiftRequest{
				EventID: 99, Name: "Orphan",
				StartTime: "2026-06-01T09:00:00Z", EndTime: "2026-06-01T12:00:00Z",
			},
			wantErr: ErrEventNotFound,
		},
		{
			name: "blank name",
			req: CreateShiftRequest{
				EventID: 1, Name: "   ",
				StartTime: "2026-06-01T09:00:00Z", EndTime: "2026-06-01T12:00:00Z",
			},
			wantErr: ErrShiftValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewShiftService(newFakeShiftRepo(), eventRepo, newFakeAssignmentRepo(), nil)
			_, err := svc.CreateShift(tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestUpdateShiftRespectsEventWindow(t *testing.T) {
	event := newTestEvent(models.EventStatusConfirmed)
	shift := &models.Shift{
		ID:        1,
		EventID:   event.ID,
		Name:      "Morning Cover",
		StartTime: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		Status:    models.ShiftStatusOpen,
		Event:     event,
	}
	svc := NewShiftService(newFakeShiftRepo(shift), newFakeEventRepo(event), newFakeAssignmentRepo(), nil)

	newEnd := "2026-06-01T20:00:00Z" // past the event's 18:00 end
	_, err := svc.UpdateShift(1, UpdateShiftRequest{EndTime: &newEnd})
	if !errors.Is(err, ErrShiftOutsideEvent) {
		t.Fatalf("expected ErrShiftOutsideEvent, got %v", err)
	}

	okEnd := "2026-06-01T14:00:00Z"
	updated, err := svc.UpdateShift(1, UpdateShiftRequest{EndTime: &okEnd})
	if err != nil {
		t.Fatalf("UpdateShift returned error: %v", err)
	}
	if !updated.EndTime.Equal(time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC)) {
		t.Errorf("end time = %v, want 14:00", updated.EndTime)
	}
}

func TestUpdateShiftRejectsUnknownStatus(t *testing.T) {
	shift := &models.Shift{
		ID:        1,
		EventID:   1,
		Name:      "Morning Cover",
		StartTime: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC),
		Status:    models.ShiftStatusOpen,
	}
	svc := NewShiftService(newFakeShiftRepo(shift), newFakeEventRepo(), newFakeAssignmentRepo(), nil)

	badStatus := "paused"
	_, err := svc.UpdateShift(1, UpdateShiftRequest{Status: &badStatus})
	if !errors.Is(err, ErrShiftValidation) {
		t.Fatalf("expected ErrShiftValidation, got %v", err)
	}
}

func TestDeleteShiftBlockedByActiveAssignments(t *testing.T) {
	shift := &models.Shift{ID: 1, EventID: 1, Name: "Morning Cover", Status: models.ShiftStatusOpen}
	assignment := &models.StaffAssignment{ID: 1, ShiftID: 1, StaffID: 7, Status: models.AssignmentStatusAssigned}
	svc := NewShiftService(newFakeShiftRepo(shift), newFakeEventRepo(), newFakeAssignmentRepo(assignment), nil)

	err := svc.DeleteShift(1)
	if !errors.Is(err, ErrShiftHasAssignments) {
		t.Fatalf("expected ErrShiftHasAssignments, got %v", err)
	}
}

func TestDeleteShiftAllowsCancelledAssignments(t *testing.T) {
	shift := &models.Shift{ID: 1, EventID: 1, Name: "Morning Cover", Status: models.ShiftStatusOpen}
	assignment := &models.StaffAssignment{ID: 1, ShiftID: 1, StaffID: 7, Status: models.AssignmentStatusCancelled}
	shiftRepo := newFakeShiftRepo(shift)
	svc := NewShiftService(shiftRepo, newFakeEventRepo(), newFakeAssignmentRepo(assignment), nil)

	if err := svc.DeleteShift(1); err != nil {
		t.Fatalf("DeleteShift returned error: %v", err)
	}
	if _, err := shiftRepo.GetShiftByID(1); err == nil {
		t.Error("shift should be gone after deletion")
	}
}
