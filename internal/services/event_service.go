package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"lotus_planning_backend/internal/models"
	"lotus_planning_backend/internal/repositories"
	"lotus_planning_backend/pkg/utils"
)

// --- Custom Service Errors for Event ---
var (
	ErrEventNotFound   = errors.New("event not found")
	ErrEventValidation = errors.New("event data validation error")
)

// --- Event DTOs ---
type CreateEventRequest struct {
	Name               string  `json:"name" binding:"required"`
	StartDate          string  `json:"start_date" binding:"required"` // RFC3339 or YYYY-MM-DDTHH:MM
	EndDate            string  `json:"end_date" binding:"required"`
	Location           string  `json:"location" binding:"required"`
	Description        *string `json:"description"`
	ContactPerson      *string `json:"contact_person"`
	ContactPhone       *string `json:"contact_phone"`
	ContactEmail       *string `json:"contact_email"`
	RequiredStaffCount *int    `json:"required_staff_count"`
	CustomerID         *int64  `json:"customer_id"`
}

type UpdateEventRequest struct {
	Name               *string `json:"name"`
	StartDate          *string `json:"start_date"`
	EndDate            *string `json:"end_date"`
	Location           *string `json:"location"`
	Description        *string `json:"description"`
	Status             *string `json:"status"`
	ContactPerson      *string `json:"contact_person"`
	ContactPhone       *string `json:"contact_phone"`
	ContactEmail       *string `json:"contact_email"`
	RequiredStaffCount *int    `json:"required_staff_count"`
	CustomerID         *int64  `json:"customer_id"`
}

type RequestCancellationRequest struct {
	Reason *string `json:"reason"`
}

// --- EventService Interface ---
type EventService interface {
	CreateEvent(req CreateEventRequest) (*models.Event, error)
	GetEventByID(eventID int64) (*models.Event, error)
	GetEvents(page, pageSize int, status *string) ([]models.Event, int, error)
	GetUpcomingEvents() ([]models.Event, error)
	GetEventsByDateRange(startDate, endDate time.Time) ([]models.Event, error)
	GetEventsByCustomerID(customerID int64) ([]models.Event, error)
	UpdateEvent(eventID int64, req UpdateEventRequest) (*models.Event, error)
	DeleteEvent(eventID int64) error
	RequestCancellation(eventID int64, req RequestCancellationRequest) (*models.Event, error)
}

// --- eventService Implementation ---
type eventService struct {
	eventRepo repositories.EventRepository
	shiftRepo repositories.ShiftRepository
	emailSvc  EmailService
	db        *sql.DB
}

// NewEventService creates a new instance of EventService.
func NewEventService(eventRepo repositories.EventRepository, shiftRepo repositories.ShiftRepository, emailSvc EmailService, db *sql.DB) EventService {
	return &eventService{
		eventRepo: eventRepo,
		shiftRepo: shiftRepo,
		emailSvc:  emailSvc,
		db:        db,
	}
}

// parseDateTime accepts RFC3339 timestamps with a fallback for the
// "YYYY-MM-DDTHH:MM" form browsers submit from datetime-local inputs.
func parseDateTime(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02T15:04", value); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02 15:04:05", value); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid datetime format: %q", value)
}

const maxRequiredStaffCount = 50

func validateRequiredStaffCount(count int) error {
	if count < 1 {
		return fmt.Errorf("%w: required staff count must be at least 1", ErrEventValidation)
	}
	if count > maxRequiredStaffCount {
		return fmt.Errorf("%w: required staff count cannot exceed %d", ErrEventValidation, maxRequiredStaffCount)
	}
	return nil
}

func (s *eventService) CreateEvent(req CreateEventRequest) (*models.Event, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: event name cannot be empty", ErrEventValidation)
	}
	if strings.TrimSpace(req.Location) == "" {
		return nil, fmt.Errorf("%w: event location cannot be empty", ErrEventValidation)
	}
	startDate, err := parseDateTime(req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date: %v", ErrEventValidation, err)
	}
	endDate, err := parseDateTime(req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: end_date: %v", ErrEventValidation, err)
	}
	if !endDate.After(startDate) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidDateRange, req.StartDate, req.EndDate)
	}
	if startDate.Before(time.Now()) {
		return nil, fmt.Errorf("%w: start date must be in the future", ErrEventValidation)
	}
	if req.ContactEmail != nil && *req.ContactEmail != "" && !emailRegex.MatchString(strings.ToLower(*req.ContactEmail)) {
		return nil, fmt.Errorf("%w: invalid contact email format", ErrEventValidation)
	}

	requiredStaff := 1
	if req.RequiredStaffCount != nil {
		if err := validateRequiredStaffCount(*req.RequiredStaffCount); err != nil {
			return nil, err
		}
		requiredStaff = *req.RequiredStaffCount
	}

	event := &models.Event{
		Name:               strings.TrimSpace(req.Name),
		StartDate:          startDate,
		EndDate:            endDate,
		Location:           strings.TrimSpace(req.Location),
		Description:        req.Description,
		Status:             models.EventStatusRequested,
		ContactPerson:      req.ContactPerson,
		ContactPhone:       req.ContactPhone,
		ContactEmail:       req.ContactEmail,
		RequiredStaffCount: requiredStaff,
		CustomerID:         req.CustomerID,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction for event creation: %w", err)
	}
	defer tx.Rollback()

	createdEvent, err := s.eventRepo.CreateEvent(tx, event)
	if err != nil {
		return nil, err
	}

	// Every event starts with one shift spanning the whole event window so
	// staff can be assigned immediately.
	defaultShift := &models.Shift{
		EventID:       createdEvent.ID,
		Name:          "Default Shift",
		StartTime:     createdEvent.StartDate,
		EndTime:       createdEvent.EndDate,
		RequiredStaff: createdEvent.RequiredStaffCount,
		Status:        models.ShiftStatusOpen,
	}
	if _, err := s.shiftRepo.CreateShift(tx, defaultShift); err != nil {
		return nil, fmt.Errorf("failed to create default shift for event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit event creation: %w", err)
	}

	createdEvent.Shifts = []models.Shift{*defaultShift}
	return createdEvent, nil
}

func (s *eventService) GetEventByID(eventID int64) (*models.Event, error) {
	event, err := s.eventRepo.GetEventByID(eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event by ID %d: %w", eventID, err)
	}

	shifts, err := s.shiftRepo.GetShiftsByEventID(eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shifts for event %d: %w", eventID, err)
	}
	event.Shifts = shifts
	return event, nil
}

func (s *eventService) GetEvents(page, pageSize int, status *string) ([]models.Event, int, error) {
	if status != nil && *status != "" && !models.IsValidEventStatus(*status) {
		return nil, 0, fmt.Errorf("%w: invalid status filter %q", ErrEventValidation, *status)
	}
	events, total, err := s.eventRepo.GetEvents(page, pageSize, status)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get events: %w", err)
	}
	return events, total, nil
}

func (s *eventService) GetUpcomingEvents() ([]models.Event, error) {
	events, err := s.eventRepo.GetUpcomingEvents()
	if err != nil {
		return nil, fmt.Errorf("failed to get upcoming events: %w", err)
	}
	return events, nil
}

func (s *eventService) GetEventsByDateRange(startDate, endDate time.Time) ([]models.Event, error) {
	if !endDate.After(startDate) {
		return nil, ErrInvalidDateRange
	}
	events, err := s.eventRepo.GetEventsByDateRange(startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to get events by date range: %w", err)
	}
	return events, nil
}

func (s *eventService) GetEventsByCustomerID(customerID int64) ([]models.Event, error) {
	events, err := s.eventRepo.GetEventsByCustomerID(customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get events for customer %d: %w", customerID, err)
	}
	return events, nil
}

func (s *eventService) UpdateEvent(eventID int64, req UpdateEventRequest) (*models.Event, error) {
	event, err := s.eventRepo.GetEventByID(eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d for update: %w", eventID, err)
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: event name cannot be empty", ErrEventValidation)
		}
		event.Name = strings.TrimSpace(*req.Name)
	}
	if req.StartDate != nil {
		startDate, err := parseDateTime(*req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("%w: start_date: %v", ErrEventValidation, err)
		}
		event.StartDate = startDate
	}
	if req.EndDate != nil {
		endDate, err := parseDateTime(*req.EndDate)
		if err != nil {
			return nil, fmt.Errorf("%w: end_date: %v", ErrEventValidation, err)
		}
		event.EndDate = endDate
	}
	if !event.EndDate.After(event.StartDate) {
		return nil, ErrInvalidDateRange
	}
	if req.Location != nil {
		if strings.TrimSpace(*req.Location) == "" {
			return nil, fmt.Errorf("%w: event location cannot be empty", ErrEventValidation)
		}
		event.Location = strings.TrimSpace(*req.Location)
	}
	if req.Description != nil {
		event.Description = req.Description
	}
	if req.ContactPerson != nil {
		event.ContactPerson = req.ContactPerson
	}
	if req.ContactPhone != nil {
		event.ContactPhone = req.ContactPhone
	}
	if req.ContactEmail != nil {
		if *req.ContactEmail != "" && !emailRegex.MatchString(strings.ToLower(*req.ContactEmail)) {
			return nil, fmt.Errorf("%w: invalid contact email format", ErrEventValidation)
		}
		event.ContactEmail = req.ContactEmail
	}
	if req.RequiredStaffCount != nil {
		if err := validateRequiredStaffCount(*req.RequiredStaffCount); err != nil {
			return nil, err
		}
		event.RequiredStaffCount = *req.RequiredStaffCount
	}
	if req.CustomerID != nil {
		event.CustomerID = req.CustomerID
	}

	// Shrinking the event window must not strand existing shifts outside it.
	if req.StartDate != nil || req.EndDate != nil {
		shifts, err := s.shiftRepo.GetShiftsByEventID(eventID)
		if err != nil {
			return nil, fmt.Errorf("failed to check shifts for event %d: %w", eventID, err)
		}
		for _, shift := range shifts {
			if shift.Status == models.ShiftStatusCancelled {
				continue
			}
			if shift.StartTime.Before(event.StartDate) || shift.EndTime.After(event.EndDate) {
				return nil, fmt.Errorf("%w: shift %q (ID %d) would fall outside the new event window", ErrEventValidation, shift.Name, shift.ID)
			}
		}
	}

	decision := TransitionDecision{}
	if req.Status != nil && *req.Status != "" {
		newStatus := models.EventStatus(*req.Status)
		decision, err = EvaluateEventTransition(event, newStatus)
		if err != nil {
			return nil, err
		}
		event.Status = newStatus
	}

	updatedEvent, err := s.eventRepo.UpdateEvent(s.db, event)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to update event %d: %w", eventID, err)
	}

	s.dispatchTransitionNotifications(updatedEvent, decision)
	return updatedEvent, nil
}

// dispatchTransitionNotifications executes the email side effects of a status
// change. Email failures are logged and swallowed: the status change already
// persisted and must not be rolled back by a mail outage.
func (s *eventService) dispatchTransitionNotifications(event *models.Event, decision TransitionDecision) {
	if decision.SendPlannedNotice {
		if err := s.emailSvc.SendEventPlannedNotification(event); err != nil {
			utils.LogError(err, "Failed to send planned notification", map[string]interface{}{"event_id": event.ID})
		} else {
			s.recordNotification(event.ID, models.NotificationKindPlanned, event.ContactEmailValue())
			event.NotificationSent = true
			if decision.PromoteToConfirmed {
				event.Status = models.EventStatusConfirmed
			}
			if _, err := s.eventRepo.UpdateEvent(s.db, event); err != nil {
				utils.LogError(err, "Failed to persist post-notification event state", map[string]interface{}{"event_id": event.ID})
			}
		}
	}

	if decision.SendInvoiceNotices {
		alreadySent, err := s.eventRepo.HasNotification(event.ID, models.NotificationKindInvoice)
		if err != nil {
			utils.LogError(err, "Failed to check invoice notification log", map[string]interface{}{"event_id": event.ID})
		}
		if !alreadySent {
			if err := s.emailSvc.SendEventInvoiceNotification(event); err != nil {
				utils.LogError(err, "Failed to send invoice notification to contact", map[string]interface{}{"event_id": event.ID})
			} else {
				if event.ContactEmailValue() != "" {
					s.recordNotification(event.ID, models.NotificationKindInvoice, event.ContactEmailValue())
				}
				event.NotificationSent = true
				if _, err := s.eventRepo.UpdateEvent(s.db, event); err != nil {
					utils.LogError(err, "Failed to persist post-notification event state", map[string]interface{}{"event_id": event.ID})
				}
			}
			if err := s.emailSvc.SendFinancialInvoiceNotification(event); err != nil {
				utils.LogError(err, "Failed to send invoice notification to financial department", map[string]interface{}{"event_id": event.ID})
			} else {
				s.recordNotification(event.ID, models.NotificationKindFinancialInvoice, "financial")
			}
		}
	}
}

func (s *eventService) recordNotification(eventID int64, kind models.NotificationKind, recipient string) {
	notification := &models.EventNotification{
		EventID:   eventID,
		Kind:      kind,
		Recipient: recipient,
		SentAt:    time.Now(),
	}
	if err := s.eventRepo.RecordNotification(s.db, notification); err != nil {
		utils.LogError(err, "Failed to record notification dispatch", map[string]interface{}{"event_id": eventID, "kind": string(kind)})
	}
}

func (s *eventService) DeleteEvent(eventID int64) error {
	err := s.eventRepo.DeleteEvent(s.db, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrEventNotFound
		}
		return fmt.Errorf("failed to delete event %d: %w", eventID, err)
	}
	return nil
}

// RequestCancellation flags an event for cancellation without changing its
// status. An operator reviews flagged events and cancels them explicitly.
func (s *eventService) RequestCancellation(eventID int64, req RequestCancellationRequest) (*models.Event, error) {
	event, err := s.eventRepo.GetEventByID(eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event %d for cancellation request: %w", eventID, err)
	}
	if event.Status == models.EventStatusCancelled {
		return nil, fmt.Errorf("%w: event is already cancelled", ErrEventValidation)
	}
	if event.CancellationRequested {
		return nil, fmt.Errorf("%w: cancellation has already been requested", ErrEventValidation)
	}

	now := time.Now()
	event.CancellationRequested = true
	event.CancellationRequestedAt = &now
	event.CancellationReason = req.Reason

	updatedEvent, err := s.eventRepo.UpdateEvent(s.db, event)
	if err != nil {
		return nil, fmt.Errorf("failed to record cancellation request for event %d: %w", eventID, err)
	}
	return updatedEvent, nil
}
