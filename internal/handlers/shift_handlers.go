package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"lotus_planning_backend/internal/services"
	"lotus_planning_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ShiftHandler holds the shift service.
type ShiftHandler struct {
	shiftService services.ShiftService
}

// NewShiftHandler creates a new ShiftHandler.
func NewShiftHandler(ss services.ShiftService) *ShiftHandler {
	return &ShiftHandler{shiftService: ss}
}

func respondShiftError(c *gin.Context, err error, action string) {
	utils.LogError(err, action+": Error from shiftService")
	if errors.Is(err, services.ErrShiftNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Shift not found.", err.Error()))
	} else if errors.Is(err, services.ErrEventNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Event not found.", err.Error()))
	} else if errors.Is(err, services.ErrShiftHasAssignments) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Shift has active staff assignments.", err.Error()))
	} else if errors.Is(err, services.ErrShiftValidation) || errors.Is(err, services.ErrShiftOutsideEvent) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
	} else {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Shift operation failed.", "Internal error"))
	}
}

// CreateShift handles the creation of a new shift.
func (h *ShiftHandler) CreateShift(c *gin.Context) {
	var req services.CreateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	shift, err := h.shiftService.CreateShift(req)
	if err != nil {
		respondShiftError(c, err, "CreateShift")
		return
	}
	c.JSON(http.StatusCreated, shift)
}

// GetUpcomingShifts handles fetching shifts that have not started yet.
func (h *ShiftHandler) GetUpcomingShifts(c *gin.Context) {
	shifts, err := h.shiftService.GetUpcomingShifts()
	if err != nil {
		respondShiftError(c, err, "GetUpcomingShifts")
		return
	}
	c.JSON(http.StatusOK, shifts)
}

// GetShiftByID handles fetching a single shift with its event and assignments.
func (h *ShiftHandler) GetShiftByID(c *gin.Context) {
	idStr := c.Param("id")
	shiftID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid shift ID format.", err.Error()))
		return
	}

	shift, err := h.shiftService.GetShiftByID(shiftID)
	if err != nil {
		respondShiftError(c, err, "GetShiftByID")
		return
	}
	c.JSON(http.StatusOK, shift)
}

// UpdateShift handles updating a shift.
func (h *ShiftHandler) UpdateShift(c *gin.Context) {
	idStr := c.Param("id")
	shiftID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid shift ID format.", err.Error()))
		return
	}

	var req services.UpdateShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	shift, err := h.shiftService.UpdateShift(shiftID, req)
	if err != nil {
		respondShiftError(c, err, "UpdateShift")
		return
	}
	c.JSON(http.StatusOK, shift)
}

// DeleteShift handles deleting a shift.
func (h *ShiftHandler) DeleteShift(c *gin.Context) {
	idStr := c.Param("id")
	shiftID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid shift ID format.", err.Error()))
		return
	}

	if err := h.shiftService.DeleteShift(shiftID); err != nil {
		respondShiftError(c, err, "DeleteShift")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shift deleted successfully"})
}
