package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"lotus_planning_backend/internal/services"
	"lotus_planning_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CalendarHandler holds the calendar service.
type CalendarHandler struct {
	calendarService services.CalendarService
}

// NewCalendarHandler creates a new CalendarHandler.
func NewCalendarHandler(cs services.CalendarService) *CalendarHandler {
	return &CalendarHandler{calendarService: cs}
}

func respondCalendar(c *gin.Context, filename, content string) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(content))
}

// GetShiftCalendar serves one shift as an .ics file.
func (h *CalendarHandler) GetShiftCalendar(c *gin.Context) {
	idStr := strings.TrimSuffix(c.Param("id"), ".ics")
	shiftID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid shift ID format.", err.Error()))
		return
	}

	content, err := h.calendarService.GenerateShiftCalendar(shiftID)
	if err != nil {
		if errors.Is(err, services.ErrShiftNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Shift not found.", err.Error()))
		} else {
			utils.LogError(err, "GetShiftCalendar: Error from calendarService for ID "+idStr)
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to generate calendar.", "Internal error"))
		}
		return
	}
	respondCalendar(c, "shift-"+idStr+".ics", content)
}

// GetStaffCalendar serves all assignments of a staff member as an .ics feed.
func (h *CalendarHandler) GetStaffCalendar(c *gin.Context) {
	idStr := strings.TrimSuffix(c.Param("id"), ".ics")
	staffID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid staff ID format.", err.Error()))
		return
	}

	content, err := h.calendarService.GenerateStaffCalendar(staffID)
	if err != nil {
		utils.LogError(err, "GetStaffCalendar: Error from calendarService for ID "+idStr)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to generate calendar.", "Internal error"))
		return
	}
	respondCalendar(c, "staff-"+idStr+".ics", content)
}
