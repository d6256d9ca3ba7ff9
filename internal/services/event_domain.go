package services

import (
	"errors"
	"fmt"

	"lotus_planning_backend/internal/models"
)

// --- Shared Service Errors for the Event Workflow ---
var (
	ErrInvalidStatusTransition = errors.New("invalid event status transition")
	ErrInvalidDateRange        = errors.New("end date must be after start date")
)

// TransitionDecision captures the side effects a status change must trigger.
// Evaluated before persisting, executed after.
type TransitionDecision struct {
	SendPlannedNotice  bool // notify the contact that planning has started
	PromoteToConfirmed bool // auto-advance planned -> confirmed after a successful planned notice
	SendInvoiceNotices bool // notify the contact and the financial department
}

// EvaluateEventTransition validates a requested status change and decides
// which notifications it triggers.
//
// Moving to planned sends the planning notice to the event contact, but only
// once: a previously sent notice (notification_sent) suppresses it. When the
// notice goes out successfully, the event is promoted straight to confirmed.
// Moving to send_invoice notifies the contact and the financial department.
func EvaluateEventTransition(event *models.Event, newStatus models.EventStatus) (TransitionDecision, error) {
	decision := TransitionDecision{}

	if !models.IsValidEventStatus(string(newStatus)) {
		return decision, fmt.Errorf("%w: unknown status %q", ErrInvalidStatusTransition, newStatus)
	}
	if !models.CanTransitionEventStatus(event.Status, newStatus) {
		return decision, fmt.Errorf("%w: cannot move from %s to %s", ErrInvalidStatusTransition, event.Status, newStatus)
	}
	if newStatus == event.Status {
		return decision, nil
	}

	switch newStatus {
	case models.EventStatusPlanned:
		if !event.NotificationSent && event.ContactEmailValue() != "" {
			decision.SendPlannedNotice = true
			decision.PromoteToConfirmed = true
		}
	case models.EventStatusSendInvoice:
		decision.SendInvoiceNotices = true
	}
	return decision, nil
}
