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

// CustomerHandler holds the customer and event services.
type CustomerHandler struct {
	customerService services.CustomerService
	eventService    services.EventService
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(cs services.CustomerService, es services.EventService) *CustomerHandler {
	return &CustomerHandler{customerService: cs, eventService: es}
}

// CreateCustomer handles the creation of a new customer.
func (h *CustomerHandler) CreateCustomer(c *gin.Context) {
	var req services.CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	customer, err := h.customerService.CreateCustomer(req)
	if err != nil {
		utils.LogError(err, "CreateCustomer: Error from customerService.CreateCustomer")
		if errors.Is(err, services.ErrCustomerEmailExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A customer with this email already exists.", err.Error()))
		} else if errors.Is(err, services.ErrCustomerValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create customer.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// GetCustomers handles fetching all customers with pagination and search.
func (h *CustomerHandler) GetCustomers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	searchTerm := c.Query("search")

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

	customers, totalCount, err := h.customerService.GetCustomers(page, pageSize, pSearchTerm)
	if err != nil {
		utils.LogError(err, "GetCustomers: Error from customerService.GetCustomers")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch customers.", "Internal error"))
		return
	}

	if customers == nil {
		customers = []models.Customer{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      customers,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetCustomerByID handles fetching a single customer by ID.
func (h *CustomerHandler) GetCustomerByID(c *gin.Context) {
	idStr := c.Param("id")
	customerID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid customer ID format.", err.Error()))
		return
	}

	customer, err := h.customerService.GetCustomerByID(customerID)
	if err != nil {
		if errors.Is(err, services.ErrCustomerNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Customer not found.", err.Error()))
		} else {
			utils.LogError(err, "GetCustomerByID: Error from customerService.GetCustomerByID for ID "+idStr)
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch customer.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, customer)
}

// GetCustomerEvents handles fetching all events belonging to one customer.
func (h *CustomerHandler) GetCustomerEvents(c *gin.Context) {
	idStr := c.Param("id")
	customerID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid customer ID format.", err.Error()))
		return
	}

	if _, err := h.customerService.GetCustomerByID(customerID); err != nil {
		if errors.Is(err, services.ErrCustomerNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Customer not found.", err.Error()))
			return
		}
		utils.LogError(err, "GetCustomerEvents: Error fetching customer "+idStr)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch customer.", "Internal error"))
		return
	}

	events, err := h.eventService.GetEventsByCustomerID(customerID)
	if err != nil {
		utils.LogError(err, "GetCustomerEvents: Error from eventService.GetEventsByCustomerID for ID "+idStr)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch customer events.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, events)
}

// UpdateCustomer handles updating a customer.
func (h *CustomerHandler) UpdateCustomer(c *gin.Context) {
	idStr := c.Param("id")
	customerID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid customer ID format.", err.Error()))
		return
	}

	var req services.UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	customer, err := h.customerService.UpdateCustomer(customerID, req)
	if err != nil {
		utils.LogError(err, "UpdateCustomer: Error from customerService.UpdateCustomer for ID "+idStr)
		if errors.Is(err, services.ErrCustomerNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Customer not found.", err.Error()))
		} else if errors.Is(err, services.ErrCustomerEmailExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "A customer with this email already exists.", err.Error()))
		} else if errors.Is(err, services.ErrCustomerValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update customer.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, customer)
}

// DeleteCustomer handles deleting a customer.
func (h *CustomerHandler) DeleteCustomer(c *gin.Context) {
	idStr := c.Param("id")
	customerID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid customer ID format.", err.Error()))
		return
	}

	err = h.customerService.DeleteCustomer(customerID)
	if err != nil {
		utils.LogError(err, "DeleteCustomer: Error from customerService.DeleteCustomer for ID "+idStr)
		if errors.Is(err, services.ErrCustomerNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Customer not found.", err.Error()))
		} else if errors.Is(err, services.ErrCustomerHasEvents) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Customer cannot be deleted: event(s) associated with this customer.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to delete customer.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully"})
}

// customerForRequest resolves the customer record of the authenticated user.
func (h *CustomerHandler) customerForRequest(c *gin.Context) (*models.Customer, bool) {
	userIDValue, exists := c.Get("userID")
	if !exists {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authentication required.", ""))
		return nil, false
	}
	userID, ok := userIDValue.(int64)
	if !ok {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Invalid user context.", ""))
		return nil, false
	}

	customer, err := h.customerService.GetCustomerByUserID(userID)
	if err != nil {
		if errors.Is(err, services.ErrCustomerNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "No customer record is linked to this account.", err.Error()))
		} else {
			utils.LogError(err, "customerForRequest: Error resolving customer for user")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to resolve customer record.", "Internal error"))
		}
		return nil, false
	}
	return customer, true
}

// GetMyEvents returns the events of the authenticated customer.
func (h *CustomerHandler) GetMyEvents(c *gin.Context) {
	customer, ok := h.customerForRequest(c)
	if !ok {
		return
	}

	events, err := h.eventService.GetEventsByCustomerID(customer.ID)
	if err != nil {
		utils.LogError(err, "GetMyEvents: Error from eventService.GetEventsByCustomerID")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch events.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, events)
}

// RequestMyEventCancellation lets a customer flag one of their own events
// for cancellation review.
func (h *CustomerHandler) RequestMyEventCancellation(c *gin.Context) {
	customer, ok := h.customerForRequest(c)
	if !ok {
		return
	}

	idStr := c.Param("id")
	eventID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid event ID format.", err.Error()))
		return
	}

	event, err := h.eventService.GetEventByID(eventID)
	if err != nil {
		if errors.Is(err, services.ErrEventNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Event not found.", err.Error()))
		} else {
			utils.LogError(err, "RequestMyEventCancellation: Error fetching event "+idStr)
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch event.", "Internal error"))
		}
		return
	}
	if event.CustomerID == nil || *event.CustomerID != customer.ID {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "This event does not belong to your account.", ""))
		return
	}

	var req services.RequestCancellationRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
			return
		}
	}

	updatedEvent, err := h.eventService.RequestCancellation(eventID, req)
	if err != nil {
		utils.LogError(err, "RequestMyEventCancellation: Error from eventService.RequestCancellation for ID "+idStr)
		if errors.Is(err, services.ErrEventValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to request cancellation.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, updatedEvent)
}

// LinkCustomerUser links a customer record to the user account sharing its email.
func (h *CustomerHandler) LinkCustomerUser(c *gin.Context) {
	idStr := c.Param("id")
	customerID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid customer ID format.", err.Error()))
		return
	}

	customer, err := h.customerService.LinkUserByEmail(customerID)
	if err != nil {
		utils.LogError(err, "LinkCustomerUser: Error from customerService.LinkUserByEmail for ID "+idStr)
		if errors.Is(err, services.ErrCustomerNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Customer not found.", err.Error()))
		} else if errors.Is(err, services.ErrNoUserForEmail) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "No user account found for this customer's email.", err.Error()))
		} else if errors.Is(err, services.ErrUserAlreadyLinked) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "User account is already linked to another customer.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to link customer.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, customer)
}
