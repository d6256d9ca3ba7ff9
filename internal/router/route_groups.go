package router

import (
	"lotus_planning_backend/internal/handlers"
	"lotus_planning_backend/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupCustomerRoutes sets up the customer management routes.
func SetupCustomerRoutes(authenticatedGroup *gin.RouterGroup, customerHandler *handlers.CustomerHandler) {
	customerRoutes := authenticatedGroup.Group("/customers")
	customerRoutes.Use(middleware.RoleAuthMiddleware("admin", "planner"))
	{
		customerRoutes.POST("", customerHandler.CreateCustomer)
		customerRoutes.GET("", customerHandler.GetCustomers)
		customerRoutes.GET("/:id", customerHandler.GetCustomerByID)
		customerRoutes.GET("/:id/events", customerHandler.GetCustomerEvents)
		customerRoutes.PUT("/:id", customerHandler.UpdateCustomer)
		customerRoutes.DELETE("/:id", customerHandler.DeleteCustomer)
		customerRoutes.POST("/:id/link-user", customerHandler.LinkCustomerUser)
	}
}

// SetupEventRoutes sets up the event management routes.
func SetupEventRoutes(authenticatedGroup *gin.RouterGroup, eventHandler *handlers.EventHandler) {
	eventRoutes := authenticatedGroup.Group("/events")
	eventRoutes.Use(middleware.RoleAuthMiddleware("admin", "planner"))
	{
		eventRoutes.POST("", eventHandler.CreateEvent)
		eventRoutes.GET("", eventHandler.GetEvents)
		eventRoutes.GET("/upcoming", eventHandler.GetUpcomingEvents)
		eventRoutes.GET("/range", eventHandler.GetEventsByDateRange)
		eventRoutes.GET("/:id", eventHandler.GetEventByID)
		eventRoutes.GET("/:id/shifts", eventHandler.GetEventShifts)
		eventRoutes.PUT("/:id", eventHandler.UpdateEvent)
		eventRoutes.POST("/:id/request-cancellation", eventHandler.RequestCancellation)
		eventRoutes.DELETE("/:id", eventHandler.DeleteEvent)
	}
}

// SetupShiftRoutes sets up the shift management routes.
// Staff can read shifts; only planners and admins change them.
func SetupShiftRoutes(authenticatedGroup *gin.RouterGroup, shiftHandler *handlers.ShiftHandler) {
	shiftRoutes := authenticatedGroup.Group("/shifts")
	shiftRoutes.Use(middleware.RoleAuthMiddleware("admin", "planner", "staff"))
	{
		shiftRoutes.GET("/upcoming", shiftHandler.GetUpcomingShifts)
		shiftRoutes.GET("/:id", shiftHandler.GetShiftByID)
	}

	shiftManageRoutes := authenticatedGroup.Group("/shifts")
	shiftManageRoutes.Use(middleware.RoleAuthMiddleware("admin", "planner"))
	{
		shiftManageRoutes.POST("", shiftHandler.CreateShift)
		shiftManageRoutes.PUT("/:id", shiftHandler.UpdateShift)
		shiftManageRoutes.DELETE("/:id", shiftHandler.DeleteShift)
	}
}

// SetupStaffRoutes sets up the staff management routes.
func SetupStaffRoutes(authenticatedGroup *gin.RouterGroup, staffHandler *handlers.StaffHandler) {
	staffRoutes := authenticatedGroup.Group("/staff")
	staffRoutes.Use(middleware.RoleAuthMiddleware("admin", "planner"))
	{
		staffRoutes.POST("", staffHandler.CreateStaff)
		staffRoutes.GET("", staffHandler.GetStaff)
		staffRoutes.GET("/hours", staffHandler.GetStaffHoursReport)
		staffRoutes.GET("/:id", staffHandler.GetStaffByID)
		staffRoutes.GET("/:id/assignments", staffHandler.GetStaffAssignments)
		staffRoutes.PUT("/:id", staffHandler.UpdateStaff)
		staffRoutes.DELETE("/:id", staffHandler.DeactivateStaff)
		staffRoutes.POST("/:id/link-user", staffHandler.LinkStaffUser)
		staffRoutes.DELETE("/:id/link-user", staffHandler.UnlinkStaffUser)
	}
}

// SetupAssignmentRoutes sets up the staff assignment routes.
// Check-in and check-out are open to the staff role as well, for on-site use.
func SetupAssignmentRoutes(authenticatedGroup *gin.RouterGroup, assignmentHandler *handlers.AssignmentHandler) {
	assignmentRoutes := authenticatedGroup.Group("/assignments")
	assignmentRoutes.Use(middleware.RoleAuthMiddleware("admin", "planner"))
	{
		assignmentRoutes.POST("", assignmentHandler.CreateAssignment)
		assignmentRoutes.GET("", assignmentHandler.GetAssignments)
		assignmentRoutes.GET("/:id", assignmentHandler.GetAssignmentByID)
		assignmentRoutes.PUT("/:id", assignmentHandler.UpdateAssignment)
		assignmentRoutes.DELETE("/:id", assignmentHandler.DeleteAssignment)
	}

	attendanceRoutes := authenticatedGroup.Group("/assignments")
	attendanceRoutes.Use(middleware.RoleAuthMiddleware("admin", "planner", "staff"))
	{
		attendanceRoutes.POST("/:id/check-in", assignmentHandler.CheckIn)
		attendanceRoutes.POST("/:id/check-out", assignmentHandler.CheckOut)
	}
}

// SetupCalendarRoutes sets up the iCalendar feed routes.
func SetupCalendarRoutes(apiGroup *gin.RouterGroup, calendarHandler *handlers.CalendarHandler) {
	calendarRoutes := apiGroup.Group("/calendar")
	{
		// The :id segment accepts both "42" and "42.ics".
		calendarRoutes.GET("/shift/:id", calendarHandler.GetShiftCalendar)
		calendarRoutes.GET("/staff/:id", calendarHandler.GetStaffCalendar)
	}
}

// SetupPortalRoutes sets up the customer self-service routes.
func SetupPortalRoutes(authenticatedGroup *gin.RouterGroup, customerHandler *handlers.CustomerHandler, eventHandler *handlers.EventHandler) {
	portalRoutes := authenticatedGroup.Group("/my")
	portalRoutes.Use(middleware.RoleAuthMiddleware("customer"))
	{
		portalRoutes.GET("/events", customerHandler.GetMyEvents)
		portalRoutes.POST("/events/:id/request-cancellation", customerHandler.RequestMyEventCancellation)
	}
}
