package services

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"lotus_planning_backend/internal/models"
)

func newTestEvent(status models.EventStatus) *models.Event {
	contactEmail := "contact@example.com"
	return &models.Event{
		ID:                 1,
		Name:               "Marathon Medical Cover",
		StartDate:          time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC),
		EndDate:            time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC),
		Location:           "City Park",
		Status:             status,
		ContactEmail:       &contactEmail,
		RequiredStaffCount: 2,
	}
}

func TestCreateEventCreatesDefaultShift(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	defer db.Close()
	mock.ExpectBegin()
	mock.ExpectCommit()

	eventRepo := newFakeEventRepo()
	shiftRepo := newFakeShiftRepo()
	svc := NewEventService(eventRepo, shiftRepo, &fakeEmailService{}, db)

	start := time.Now().Add(30 * 24 * time.Hour).Truncate(time.Second)
	end := start.Add(13 * time.Hour)

	staffCount := 3
	event, err := svc.CreateEvent(CreateEventRequest{
		Name:               "Festival First Aid",
		StartDate:          start.Format(time.RFC3339),
		EndDate:            end.Format(time.RFC3339),
		Location:           "Fairgrounds",
		RequiredStaffCount: &staffCount,
	})
	if err != nil {
		t.Fatalf("CreateEvent returned error: %v", err)
	}
	if event.Status != models.EventStatusRequested {
		t.Errorf("new event status = %s, want %s", event.Status, models.EventStatusRequested)
	}
	if len(shiftRepo.created) != 1 {
		t.Fatalf("expected 1 default shift, got %d", len(shiftRepo.created))
	}
	shift := shiftRepo.created[0]
	if shift.EventID != event.ID {
		t.Errorf("default shift event_id = %d, want %d", shift.EventID, event.ID)
	}
	if !shift.StartTime.Equal(event.StartDate) || !shift.EndTime.Equal(event.EndDate) {
		t.Errorf("default shift window %v-%v does not match event window %v-%v",
			shift.StartTime, shift.EndTime, event.StartDate, event.EndDate)
	}
	if shift.RequiredStaff != staffCount {
		t.Errorf("default shift required_staff = %d, want %d", shift.RequiredStaff, staffCount)
	}
	if shift.Status != models.ShiftStatusOpen {
		t.Errorf("default shift status = %s, want %s", shift.Status, models.ShiftStatusOpen)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet transaction expectations: %v", err)
	}
}

func TestCreateEventRejectsInvertedDates(t *testing.T) {
	svc := NewEventService(newFakeEventRepo(), newFakeShiftRepo(), &fakeEmailService{}, nil)

	start := time.Now().Add(30 * 24 * time.Hour)
	_, err := svc.CreateEvent(CreateEventRequest{
		Name:      "Backwards",
		StartDate: start.Format(time.RFC3339),
		EndDate:   start.Add(-2 * time.Hour).Format(time.RFC3339),
		Location:  "Anywhere",
	})
	if !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}

func TestCreateEventRejectsPastStart(t *testing.T) {
	svc := NewEventService(newFakeEventRepo(), newFakeShiftRepo(), &fakeEmailService{}, nil)

	start := time.Now().Add(-24 * time.Hour)
	_, err := svc.CreateEvent(CreateEventRequest{
		Name:      "Yesterday",
		StartDate: start.Format(time.RFC3339),
		EndDate:   start.Add(4 * time.Hour).Format(time.RFC3339),
		Location:  "Anywhere",
	})
	if !errors.Is(err, ErrEventValidation) {
		t.Fatalf("expected ErrEventValidation, got %v", err)
	}
}

func TestCreateEventRejectsExcessiveStaffCount(t *testing.T) {
	svc := NewEventService(newFakeEventRepo(), newFakeShiftRepo(), &fakeEmailService{}, nil)

	start := time.Now().Add(30 * 24 * time.Hour)
	staffCount := 51
	_, err := svc.CreateEvent(CreateEventRequest{
		Name:               "Overstaffed",
		StartDate:          start.Format(time.RFC3339),
		EndDate:            start.Add(4 * time.Hour).Format(time.RFC3339),
		Location:           "Anywhere",
		RequiredStaffCount: &staffCount,
	})
	if !errors.Is(err, ErrEventValidation) {
		t.Fatalf("expected ErrEventValidation, got %v", err)
	}
}

func TestUpdateEventPlannedSendsNoticeAndConfirms(t *testing.T) {
	event := newTestEvent(models.EventStatusRequested)
	eventRepo := newFakeEventRepo(event)
	emailSvc := &fakeEmailService{}
	svc := NewEventService(eventRepo, newFakeShiftRepo(), emailSvc, nil)

	status := string(models.EventStatusPlanned)
	updated, err := svc.UpdateEvent(event.ID, UpdateEventRequest{Status: &status})
	if err != nil {
		t.Fatalf("UpdateEvent returned error: %v", err)
	}

	if len(emailSvc.plannedSent) != 1 {
		t.Fatalf("expected 1 planned notice, got %d", len(emailSvc.plannedSent))
	}
	if !updated.NotificationSent {
		t.Error("NotificationSent should be true after the planned notice went out")
	}
	if updated.Status != models.EventStatusConfirmed {
		t.Errorf("status = %s, want %s (auto-promotion after notice)", updated.Status, models.EventStatusConfirmed)
	}

	stored, _ := eventRepo.GetEventByID(event.ID)
	if stored.Status != models.EventStatusConfirmed || !stored.NotificationSent {
		t.Errorf("persisted event = status %s, notification_sent %v; want confirmed/true", stored.Status, stored.NotificationSent)
	}
	if len(eventRepo.notifications) != 1 || eventRepo.notifications[0].Kind != models.NotificationKindPlanned {
		t.Errorf("expected one recorded planned notification, got %+v", eventRepo.notifications)
	}
}

func TestUpdateEventPlannedEmailFailureKeepsPlannedStatus(t *testing.T) {
	event := newTestEvent(models.EventStatusRequested)
	eventRepo := newFakeEventRepo(event)
	emailSvc := &fakeEmailService{plannedErr: errors.New("smtp unreachable")}
	svc := NewEventService(eventRepo, newFakeShiftRepo(), emailSvc, nil)

	status := string(models.EventStatusPlanned)
	updated, err := svc.UpdateEvent(event.ID, UpdateEventRequest{Status: &status})
	if err != nil {
		t.Fatalf("a mail outage must not fail the update: %v", err)
	}
	if updated.Status != models.EventStatusPlanned {
		t.Errorf("status = %s, want planned (no auto-promotion without a sent notice)", updated.Status)
	}
	if updated.NotificationSent {
		t.Error("NotificationSent must remain false when the email fails")
	}
	if len(eventRepo.notifications) != 0 {
		t.Errorf("no notification should be recorded on failure, got %+v", eventRepo.notifications)
	}
}

func TestUpdateEventPlannedNoticeSentOnlyOnce(t *testing.T) {
	event := newTestEvent(models.EventStatusRequested)
	event.NotificationSent = true
	eventRepo := newFakeEventRepo(event)
	emailSvc := &fakeEmailService{}
	svc := NewEventService(eventRepo, newFakeShiftRepo(), emailSvc, nil)

	status := string(models.EventStatusPlanned)
	updated, err := svc.UpdateEvent(event.ID, UpdateEventRequest{Status: &status})
	if err != nil {
		t.Fatalf("UpdateEvent returned error: %v", err)
	}
	if len(emailSvc.plannedSent) != 0 {
		t.Errorf("planned notice must not be re-sent, got %d sends", len(emailSvc.plannedSent))
	}
	if updated.Status != models.EventStatusPlanned {
		t.Errorf("status = %s, want planned (no promotion without a fresh notice)", updated.Status)
	}
}

func TestUpdateEventSendInvoiceNotifiesOnce(t *testing.T) {
	event := newTestEvent(models.EventStatusCompleted)
	eventRepo := newFakeEventRepo(event)
	emailSvc := &fakeEmailService{}
	svc := NewEventService(eventRepo, newFakeShiftRepo(), emailSvc, nil)

	status := string(models.EventStatusSendInvoice)
	if _, err := svc.UpdateEvent(event.ID, UpdateEventRequest{Status: &status}); err != nil {
		t.Fatalf("UpdateEvent returned error: %v", err)
	}
	if len(emailSvc.invoiceSent) != 1 || len(emailSvc.financialSent) != 1 {
		t.Fatalf("expected 1 contact + 1 financial invoice email, got %d + %d",
			len(emailSvc.invoiceSent), len(emailSvc.financialSent))
	}

	if len(eventRepo.notifications) != 2 {
		t.Errorf("expected 2 recorded dispatches (contact + financial), got %d", len(eventRepo.notifications))
	}

	stored, _ := eventRepo.GetEventByID(event.ID)
	if !stored.NotificationSent {
		t.Error("NotificationSent should be true after a successful invoice dispatch")
	}
}

func TestUpdateEventSendInvoiceEmailFailureLeavesFlagUnset(t *testing.T) {
	event := newTestEvent(models.EventStatusCompleted)
	eventRepo := newFakeEventRepo(event)
	emailSvc := &fakeEmailService{invoiceErr: errors.New("smtp down")}
	svc := NewEventService(eventRepo, newFakeShiftRepo(), emailSvc, nil)

	status := string(models.EventStatusSendInvoice)
	updated, err := svc.UpdateEvent(event.ID, UpdateEventRequest{Status: &status})
	if err != nil {
		t.Fatalf("UpdateEvent returned error: %v", err)
	}
	if updated.Status != models.EventStatusSendInvoice {
		t.Errorf("status = %s, want %s despite the email failure", updated.Status, models.EventStatusSendInvoice)
	}

	stored, _ := eventRepo.GetEventByID(event.ID)
	if stored.NotificationSent {
		t.Error("NotificationSent must stay false when the contact invoice email fails")
	}
}

func TestUpdateEventSendInvoiceDedupedByDispatchLog(t *testing.T) {
	event := newTestEvent(models.EventStatusCompleted)
	eventRepo := newFakeEventRepo(event)
	// An invoice notice already went out for this event.
	eventRepo.notifications = append(eventRepo.notifications, models.EventNotification{
		EventID: event.ID,
		Kind:    models.NotificationKindInvoice,
	})
	emailSvc := &fakeEmailService{}
	svc := NewEventService(eventRepo, newFakeShiftRepo(), emailSvc, nil)

	status := string(models.EventStatusSendInvoice)
	if _, err := svc.UpdateEvent(event.ID, UpdateEventRequest{Status: &status}); err != nil {
		t.Fatalf("UpdateEvent returned error: %v", err)
	}
	if len(emailSvc.invoiceSent) != 0 || len(emailSvc.financialSent) != 0 {
		t.Errorf("invoice emails were duplicated despite the dispatch log: %d + %d sends",
			len(emailSvc.invoiceSent), len(emailSvc.financialSent))
	}
}

func TestUpdateEventRejectsBackwardTransition(t *testing.T) {
	event := newTestEvent(models.EventStatusActive)
	svc := NewEventService(newFakeEventRepo(event), newFakeShiftRepo(), &fakeEmailService{}, nil)

	status := string(models.EventStatusPlanned)
	_, err := svc.UpdateEvent(event.ID, UpdateEventRequest{Status: &status})
	if !errors.Is(err, ErrInvalidStatusTransition) {
		t.Fatalf("expected ErrInvalidStatusTransition, got %v", err)
	}
}

func TestUpdateEventRejectsStrandedShifts(t *testing.T) {
	event := newTestEvent(models.EventStatusConfirmed)
	shift := &models.Shift{
		ID:        10,
		EventID:   event.ID,
		Name:      "Morning",
		StartTime: event.StartDate,
		EndTime:   event.EndDate,
		Status:    models.ShiftStatusOpen,
	}
	svc := NewEventService(newFakeEventRepo(event), newFakeShiftRepo(shift), &fakeEmailService{}, nil)

	// Shrinking the window so the shift's tail falls outside must fail.
	newEnd := "2026-06-01T12:00:00Z"
	_, err := svc.UpdateEvent(event.ID, UpdateEventRequest{EndDate: &newEnd})
	if !errors.Is(err, ErrEventValidation) {
		t.Fatalf("expected ErrEventValidation for stranded shift, got %v", err)
	}
}

func TestUpdateEventIgnoresCancelledShiftsWhenShrinking(t *testing.T) {
	event := newTestEvent(models.EventStatusConfirmed)
	shift := &models.Shift{
		ID:        10,
		EventID:   event.ID,
		Name:      "Evening",
		StartTime: time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC),
		EndTime:   event.EndDate,
		Status:    models.ShiftStatusCancelled,
	}
	svc := NewEventService(newFakeEventRepo(event), newFakeShiftRepo(shift), &fakeEmailService{}, nil)

	newEnd := "2026-06-01T12:00:00Z"
	if _, err := svc.UpdateEvent(event.ID, UpdateEventRequest{EndDate: &newEnd}); err != nil {
		t.Fatalf("cancelled shifts must not block window changes: %v", err)
	}
}

func TestUpdateEventNotFound(t *testing.T) {
	svc := NewEventService(newFakeEventRepo(), newFakeShiftRepo(), &fakeEmailService{}, nil)

	name := "Renamed"
	_, err := svc.UpdateEvent(99, UpdateEventRequest{Name: &name})
	if !errors.Is(err, ErrEventNotFound) {
		t.Fatalf("expected ErrEventNotFound, got %v", err)
	}
}

func TestRequestCancellation(t *testing.T) {
	event := newTestEvent(models.EventStatusConfirmed)
	eventRepo := newFakeEventRepo(event)
	svc := NewEventService(eventRepo, newFakeShiftRepo(), &fakeEmailService{}, nil)

	reason := "venue flooded"
	updated, err := svc.RequestCancellation(event.ID, RequestCancellationRequest{Reason: &reason})
	if err != nil {
		t.Fatalf("RequestCancellation returned error: %v", err)
	}
	if !updated.CancellationRequested {
		t.Error("CancellationRequested should be set")
	}
	if updated.CancellationRequestedAt == nil {
		t.Error("CancellationRequestedAt should be stamped")
	}
	if updated.CancellationReason == nil || *updated.CancellationReason != reason {
		t.Errorf("CancellationReason = %v, want %q", updated.CancellationReason, reason)
	}
	if updated.Status != models.EventStatusConfirmed {
		t.Errorf("status = %s; a cancellation request must not change the status", updated.Status)
	}
}

func TestRequestCancellationRejectsCancelledEvent(t *testing.T) {
	event := newTestEvent(models.EventStatusCancelled)
	svc := NewEventService(newFakeEventRepo(event), newFakeShiftRepo(), &fakeEmailService{}, nil)

	_, err := svc.RequestCancellation(event.ID, RequestCancellationRequest{})
	if !errors.Is(err, ErrEventValidation) {
		t.Fatalf("expected ErrEventValidation, got %v", err)
	}
}

func TestRequestCancellationRejectsRepeatRequest(t *testing.T) {
	event := newTestEvent(models.EventStatusConfirmed)
	event.CancellationRequested = true
	svc := NewEventService(newFakeEventRepo(event), newFakeShiftRepo(), &fakeEmailService{}, nil)

	_, err := svc.RequestCancellation(event.ID, RequestCancellationRequest{})
	if !errors.Is(err, ErrEventValidation) {
		t.Fatalf("expected ErrEventValidation, got %v", err)
	}
}

func TestGetEventsRejectsUnknownStatusFilter(t *testing.T) {
	svc := NewEventService(newFakeEventRepo(), newFakeShiftRepo(), &fakeEmailService{}, nil)

	badStatus := "archived"
	_, _, err := svc.GetEvents(1, 20, &badStatus)
	if !errors.Is(err, ErrEventValidation) {
		t.Fatalf("expected ErrEventValidation, got %v", err)
	}
}
