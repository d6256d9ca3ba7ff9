package router

import (
	"database/sql"
	"time"

	"lotus_planning_backend/internal/handlers"
	"lotus_planning_backend/internal/middleware"
	"lotus_planning_backend/internal/repositories"
	"lotus_planning_backend/internal/services"
	"lotus_planning_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Config carries the runtime settings the route tree needs.
type Config struct {
	JWTSecret     string
	JWTExpiration time.Duration
	Email         services.EmailConfig
}

// ConfigFromEnv builds the router configuration from environment variables.
func ConfigFromEnv() Config {
	smtpPort, err := utils.StrToInt64(utils.Getenv("SMTP_PORT", "587"))
	if err != nil {
		smtpPort = 587
	}
	return Config{
		JWTSecret:     utils.Getenv("JWT_SECRET_KEY", "insecure-local-development-key"),
		JWTExpiration: 72 * time.Hour,
		Email: services.EmailConfig{
			Host:               utils.Getenv("SMTP_HOST", ""),
			Port:               int(smtpPort),
			Username:           utils.Getenv("SMTP_USERNAME", ""),
			Password:           utils.Getenv("SMTP_PASSWORD", ""),
			FromEmail:          utils.Getenv("SMTP_FROM_EMAIL", "noreply@lotusplanning.example"),
			FromName:           utils.Getenv("SMTP_FROM_NAME", "Lotus Planning"),
			FinancialDeptEmail: utils.Getenv("FINANCIAL_DEPT_EMAIL", ""),
		},
	}
}

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB, cfg Config) {
	// Repositories
	authRepo := repositories.NewAuthRepository(db)
	customerRepo := repositories.NewCustomerRepository(db)
	eventRepo := repositories.NewEventRepository(db)
	shiftRepo := repositories.NewShiftRepository(db)
	staffRepo := repositories.NewStaffRepository(db)
	assignmentRepo := repositories.NewAssignmentRepository(db)

	// Services
	emailService := services.NewEmailService(cfg.Email)
	authService := services.NewAuthService(authRepo, customerRepo, db, cfg.JWTSecret, cfg.JWTExpiration)
	customerService := services.NewCustomerService(customerRepo, authRepo, db)
	eventService := services.NewEventService(eventRepo, shiftRepo, emailService, db)
	shiftService := services.NewShiftService(shiftRepo, eventRepo, assignmentRepo, db)
	staffService := services.NewStaffService(staffRepo, authRepo, db)
	assignmentService := services.NewAssignmentService(assignmentRepo, shiftRepo, staffRepo, emailService, db)
	calendarService := services.NewCalendarService(shiftRepo, assignmentRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	customerHandler := handlers.NewCustomerHandler(customerService, eventService)
	eventHandler := handlers.NewEventHandler(eventService, shiftService)
	shiftHandler := handlers.NewShiftHandler(shiftService)
	staffHandler := handlers.NewStaffHandler(staffService, assignmentService)
	assignmentHandler := handlers.NewAssignmentHandler(assignmentService)
	calendarHandler := handlers.NewCalendarHandler(calendarService)

	apiV1 := engine.Group("/api/v1")

	// Public routes: registration, login and token refresh.
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupCalendarRoutes(authenticated, calendarHandler)
		SetupCustomerRoutes(authenticated, customerHandler)
		SetupEventRoutes(authenticated, eventHandler)
		SetupShiftRoutes(authenticated, shiftHandler)
		SetupStaffRoutes(authenticated, staffHandler)
		SetupAssignmentRoutes(authenticated, assignmentHandler)
		SetupPortalRoutes(authenticated, customerHandler, eventHandler)
	}
}

// SetupPublicAuthRoutes wires registration and login.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.Register)
	group.POST("/login", authHandler.Login)
	group.POST("/refresh", authHandler.Refresh)
}

// SetupAuthenticatedAuthRoutes wires routes that need a valid token.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetProfile)
}
