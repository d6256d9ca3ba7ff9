package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"lotus_planning_backend/internal/models"
	"lotus_planning_backend/internal/services"
	"lotus_planning_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// EventHandler holds the event service.
type EventHandler struct {
	eventService services.EventService
	shiftService services.ShiftService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(es services.EventService, ss services.ShiftService) *EventHandler {
	return &EventHandler{eventService: es, shiftService: ss}
}

func respondEventError(c *gin.Context, err error, action string) {
	utils.LogError(err, action+": Error from eventService")
	if errors.Is(err, services.ErrEventNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Event not found.", err.Error()))
	} else if errors.Is(err, services.ErrInvalidStatusTransition) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Invalid status transition: "+err.Error(), err.Error()))
	} else if errors.Is(err, services.ErrEventValidation) || errors.Is(err, services.ErrInvalidDateRange) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
	} else {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Event operation failed.", "Internal error"))
	}
}

// CreateEvent handles the creation of a new event.
func (h *EventHandler) CreateEvent(c *gin.Context) {
	var req services.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	event, err := h.eventService.CreateEvent(req)
	if err != nil {
		respondEventError(c, err, "CreateEvent")
		return
	}
	c.JSON(http.StatusCreated, event)
}

// GetEvents handles fetching all events with pagination and status filter.
func (h *EventHandler) GetEvents(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	status := c.Query("status")

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	var pStatus *string
	if status != "" {
		pStatus = &status
	}

	events, totalCount, err := h.eventService.GetEvents(page, pageSize, pStatus)
	if err != nil {
		respondEventError(c, err, "GetEvents")
		return
	}

	if events == nil {
		events = []models.Event{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      events,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetUpcomingEvents handles fetching events that have not started yet.
func (h *EventHandler) GetUpcomingEvents(c *gin.Context) {
	events, err := h.eventService.GetUpcomingEvents()
	if err != nil {
		respondEventError(c, err, "GetUpcomingEvents")
		return
	}
	c.JSON(http.StatusOK, events)
}

// GetEventsByDateRange handles fetching events between two dates.
// Query params: from and to, both YYYY-MM-DD.
func (h *EventHandler) GetEventsByDateRange(c *gin.Context) {
	fromStr := c.Query("from")
	toStr := c.Query("to")

	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid 'from' date, expected YYYY-MM-DD.", err.Error()))
		return
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid 'to' date, expected YYYY-MM-DD.", err.Error()))
		return
	}
	// Inclusive end date.
	to = to.Add(24*time.Hour - time.Second)

	events, err := h.eventService.GetEventsByDateRange(from, to)
	if err != nil {
		respondEventError(c, err, "GetEventsByDateRange")
		return
	}
	c.JSON(http.StatusOK, events)
}

// GetEventByID handles fetching a single event by ID, with its shifts.
func (h *EventHandler) GetEventByID(c *gin.Context) {
	idStr := c.Param("id")
	eventID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid event ID format.", err.Error()))
		return
	}

	event, err := h.eventService.GetEventByID(eventID)
	if err != nil {
		respondEventError(c, err, "GetEventByID")
		return
	}
	c.JSON(http.StatusOK, event)
}

// GetEventShifts handles fetching all shifts of an event.
func (h *EventHandler) GetEventShifts(c *gin.Context) {
	idStr := c.Param("id")
	eventID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid event ID format.", err.Error()))
		return
	}

	if _, err := h.eventService.GetEventByID(eventID); err != nil {
		respondEventError(c, err, "GetEventShifts")
		return
	}

	shifts, err := h.shiftService.GetShiftsByEventID(eventID)
	if err != nil {
		utils.LogError(err, "GetEventShifts: Error from shiftService.GetShiftsByEventID for ID "+idStr)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch event shifts.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, shifts)
}

// UpdateEvent handles updating an event, including status transitions.
func (h *EventHandler) UpdateEvent(c *gin.Context) {
	idStr := c.Param("id")
	eventID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid event ID format.", err.Error()))
		return
	}

	var req services.UpdateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	event, err := h.eventService.UpdateEvent(eventID, req)
	if err != nil {
		respondEventError(c, err, "UpdateEvent")
		return
	}
	c.JSON(http.StatusOK, event)
}

// RequestCancellation flags an event for cancellation review.
func (h *EventHandler) RequestCancellation(c *gin.Context) {
	idStr := c.Param("id")
	eventID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid event ID format.", err.Error()))
		return
	}

	// The body is optional; the reason may be omitted entirely.
	var req services.RequestCancellationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
			return
		}
	}

	event, err := h.eventService.RequestCancellation(eventID, req)
	if err != nil {
		respondEventError(c, err, "RequestCancellation")
		return
	}
	c.JSON(http.StatusOK, event)
}

// DeleteEvent handles deleting an event.
func (h *EventHandler) DeleteEvent(c *gin.Context) {
	idStr := c.Param("id")
	eventID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid event ID format.", err.Error()))
		return
	}

	if err := h.eventService.DeleteEvent(eventID); err != nil {
		respondEventError(c, err, "DeleteEvent")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Event deleted successfully"})
}
