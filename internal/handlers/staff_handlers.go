package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"lotus_planning_backend/internal/models"
	"lotus_planning_backend/internal/services"
	"lotus_planning_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// StaffHandler holds the staff and assignment services.
type StaffHandler struct {
	staffService      services.StaffService
	assignmentService services.AssignmentService
}

// NewStaffHandler creates a new StaffHandler.
func NewStaffHandler(ss services.StaffService, as services.AssignmentService) *StaffHandler {
	return &StaffHandler{staffService: ss, assignmentService: as}
}

func respondStaffError(c *gin.Context, err error, action string) {
	utils.LogError(err, action+": Error from staffService")
	if errors.Is(err, services.ErrStaffNotFound) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Staff member not found.", err.Error()))
	} else if errors.Is(err, services.ErrNoUserForEmail) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "No user account found for this staff member's email.", err.Error()))
	} else if errors.Is(err, services.ErrStaffEmailExists) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A staff member with this email already exists.", err.Error()))
	} else if errors.Is(err, services.ErrStaffValidation) {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
	} else {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Staff operation failed.", "Internal error"))
	}
}

// CreateStaff handles the creation of a new staff member.
func (h *StaffHandler) CreateStaff(c *gin.Context) {
	var req services.CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	staff, err := h.staffService.CreateStaff(req)
	if err != nil {
		respondStaffError(c, err, "CreateStaff")
		return
	}
	c.JSON(http.StatusCreated, staff)
}

// GetStaff handles fetching staff with pagination, search and the active filter.
func (h *StaffHandler) GetStaff(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	searchTerm := c.Query("search")
	activeOnly := c.DefaultQuery("active_only", "false") == "true"

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}

	var pSearchTerm *string
	if searchTerm != "" {
		pSearchTerm = &searchTerm
	}

	staffMembers, totalCount, err := h.staffService.GetStaff(page, pageSize, pSearchTerm, activeOnly)
	if err != nil {
		respondStaffError(c, err, "GetStaff")
		return
	}

	if staffMembers == nil {
		staffMembers = []models.Staff{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      staffMembers,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetStaffByID handles fetching a single staff member by ID.
func (h *StaffHandler) GetStaffByID(c *gin.Context) {
	idStr := c.Param("id")
	staffID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid staff ID format.", err.Error()))
		return
	}

	staff, err := h.staffService.GetStaffByID(staffID)
	if err != nil {
		respondStaffError(c, err, "GetStaffByID")
		return
	}
	c.JSON(http.StatusOK, staff)
}

// GetStaffAssignments handles fetching all assignments of one staff member.
func (h *StaffHandler) GetStaffAssignments(c *gin.Context) {
	idStr := c.Param("id")
	staffID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid staff ID format.", err.Error()))
		return
	}

	if _, err := h.staffService.GetStaffByID(staffID); err != nil {
		respondStaffError(c, err, "GetStaffAssignments")
		return
	}

	var assignments []models.StaffAssignment
	if c.DefaultQuery("confirmed_only", "false") == "true" {
		assignments, err = h.assignmentService.GetConfirmedAssignmentsByStaffID(staffID)
	} else {
		assignments, err = h.assignmentService.GetAssignmentsByStaffID(staffID)
	}
	if err != nil {
		utils.LogError(err, "GetStaffAssignments: Error from assignmentService for ID "+idStr)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch staff assignments.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, assignments)
}

// GetStaffHoursReport handles the per-year worked hours report.
func (h *StaffHandler) GetStaffHoursReport(c *gin.Context) {
	yearStr := c.Query("year")
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 2000 || year > 2200 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid or missing 'year' query parameter.", ""))
		return
	}

	reports, err := h.assignmentService.GetStaffHoursPerYear(year)
	if err != nil {
		utils.LogError(err, "GetStaffHoursReport: Error from assignmentService.GetStaffHoursPerYear")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to build hours report.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"year": year, "data": reports})
}

// UpdateStaff handles updating a staff member.
func (h *StaffHandler) UpdateStaff(c *gin.Context) {
	idStr := c.Param("id")
	staffID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid staff ID format.", err.Error()))
		return
	}

	var req services.UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	staff, err := h.staffService.UpdateStaff(staffID, req)
	if err != nil {
		respondStaffError(c, err, "UpdateStaff")
		return
	}
	c.JSON(http.StatusOK, staff)
}

// DeactivateStaff soft-deletes a staff member.
func (h *StaffHandler) DeactivateStaff(c *gin.Context) {
	idStr := c.Param("id")
	staffID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid staff ID format.", err.Error()))
		return
	}

	if err := h.staffService.DeactivateStaff(staffID); err != nil {
		respondStaffError(c, err, "DeactivateStaff")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Staff member deactivated"})
}

// LinkStaffUser links a staff record to the user account sharing its email.
func (h *StaffHandler) LinkStaffUser(c *gin.Context) {
	idStr := c.Param("id")
	staffID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid staff ID format.", err.Error()))
		return
	}

	staff, err := h.staffService.LinkUserByEmail(staffID)
	if err != nil {
		respondStaffError(c, err, "LinkStaffUser")
		return
	}
	c.JSON(http.StatusOK, staff)
}

// UnlinkStaffUser removes the user account link from a staff record.
func (h *StaffHandler) UnlinkStaffUser(c *gin.Context) {
	idStr := c.Param("id")
	staffID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid staff ID format.", err.Error()))
		return
	}

	staff, err := h.staffService.UnlinkUser(staffID)
	if err != nil {
		respondStaffError(c, err, "UnlinkStaffUser")
		return
	}
	c.JSON(http.StatusOK, staff)
}
