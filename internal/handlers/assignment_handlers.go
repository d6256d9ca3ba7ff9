package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"lotus_planning_backend/internal/services"
	"lotus_planning_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AssignmentHandler holds the assignment service.
type AssignmentHandler struct {
	assignmentService services.AssignmentService
}

// NewAssignmentHandler creates a new AssignmentHandler.
func NewAssignmentHandler(as services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: as}
}

func respondAssignmentError(c *gin.Context, err error, action string) {
	utils.LogError(err, action+": Error from assignmentService")
	if errors.Is(err, services.ErrAssignmentNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Assignment not found.", err.Error()))
	} else if errors.Is(err, services.ErrShiftNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Shift not found.", err.Error()))
	} else if errors.Is(err, services.ErrStaffNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Staff member not found.", err.Error()))
	} else if errors.Is(err, services.ErrStaffNotAvailable) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Staff member has an overlapping assignment.", err.Error()))
	} else if errors.Is(err, services.ErrStaffAlreadyAssigned) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Staff member is already assigned to this shift.", err.Error()))
	} else if errors.Is(err, services.ErrStaffInactive) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Staff member is deactivated.", err.Error()))
	} else if errors.Is(err, services.ErrAssignmentNotCheckedIn) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Assignment has not been checked in.", err.Error()))
	} else if errors.Is(err, services.ErrAssignmentValidation) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
	} else {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Assignment operation failed.", "Internal error"))
	}
}

// CreateAssignment handles assigning a staff member to a shift.
func (h *AssignmentHandler) CreateAssignment(c *gin.Context) {
	var req services.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	assignment, err := h.assignmentService.CreateAssignment(req)
	if err != nil {
		respondAssignmentError(c, err, "CreateAssignment")
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

// GetAssignments handles fetching all assignments, optionally filtered by shift.
func (h *AssignmentHandler) GetAssignments(c *gin.Context) {
	shiftIDStr := c.Query("shift_id")
	if shiftIDStr != "" {
		shiftID, err := strconv.ParseInt(shiftIDStr, 10, 64)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid shift_id format.", err.Error()))
			return
		}
		assignments, err := h.assignmentService.GetAssignmentsByShiftID(shiftID)
		if err != nil {
			respondAssignmentError(c, err, "GetAssignments")
			return
		}
		c.JSON(http.StatusOK, assignments)
		return
	}

	assignments, err := h.assignmentService.GetAllAssignments()
	if err != nil {
		respondAssignmentError(c, err, "GetAssignments")
		return
	}
	c.JSON(http.StatusOK, assignments)
}

// GetAssignmentByID handles fetching a single assignment by ID.
func (h *AssignmentHandler) GetAssignmentByID(c *gin.Context) {
	idStr := c.Param("id")
	assignmentID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid assignment ID format.", err.Error()))
		return
	}

	assignment, err := h.assignmentService.GetAssignmentByID(assignmentID)
	if err != nil {
		respondAssignmentError(c, err, "GetAssignmentByID")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// UpdateAssignment handles updating an assignment's status or notes.
func (h *AssignmentHandler) UpdateAssignment(c *gin.Context) {
	idStr := c.Param("id")
	assignmentID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid assignment ID format.", err.Error()))
		return
	}

	var req services.UpdateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	assignment, err := h.assignmentService.UpdateAssignment(assignmentID, req)
	if err != nil {
		respondAssignmentError(c, err, "UpdateAssignment")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// CheckIn stamps the arrival time on an assignment.
func (h *AssignmentHandler) CheckIn(c *gin.Context) {
	idStr := c.Param("id")
	assignmentID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid assignment ID format.", err.Error()))
		return
	}

	assignment, err := h.assignmentService.CheckIn(assignmentID)
	if err != nil {
		respondAssignmentError(c, err, "CheckIn")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// CheckOut stamps the departure time on an assignment.
func (h *AssignmentHandler) CheckOut(c *gin.Context) {
	idStr := c.Param("id")
	assignmentID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid assignment ID format.", err.Error()))
		return
	}

	assignment, err := h.assignmentService.CheckOut(assignmentID)
	if err != nil {
		respondAssignmentError(c, err, "CheckOut")
		return
	}
	c.JSON(http.StatusOK, assignment)
}

// DeleteAssignment handles removing an assignment.
func (h *AssignmentHandler) DeleteAssignment(c *gin.Context) {
	idStr := c.Param("id")
	assignmentID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid assignment ID format.", err.Error()))
		return
	}

	if err := h.assignmentService.DeleteAssignment(assignmentID); err != nil {
		respondAssignmentError(c, err, "DeleteAssignment")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Assignment removed"})
}
