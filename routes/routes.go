package routes

import (
	"KwanNurse/cache"
	"KwanNurse/config"
	"KwanNurse/controllers"
	"KwanNurse/handlers"
	"KwanNurse/middlewares"
	"KwanNurse/repositories"
	"KwanNurse/services"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes initializes the routes and middleware for the server
func SetupRoutes(cache *cache.Cache, config *config.AppConfig, db *gorm.DB) http.Handler {
	// Set Gin to release mode
	gin.SetMode(gin.ReleaseMode)

	// Create a Gin router
	router := gin.Default()

	// Create and apply CORS middleware configuration
	corsConfig := &middlewares.CorsConfig{
		AllowedOrigins:   []string{"http://localhost:3000", "https://staff.kwannurse.example.com"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}
	router.Use(middlewares.CorsMiddleware(corsConfig))

	// Apply rate limiter middleware
	router.Use(middlewares.NewRateLimiterMiddleware(middlewares.RateLimiterConfig{
		RequestsPerSecond: 15, // 15 requests per second
		Burst:             30, // Burst of 30
	}))

	// Apply logging middleware
	router.Use(middlewares.LoggingMiddleware())

	// Initialize repositories
	assessmentRepo := repositories.NewAssessmentRepository(db, cache)
	appointmentRepo := repositories.NewAppointmentRepository(db, cache)
	teleconsultRepo := repositories.NewTeleconsultRepository(db, cache)
	userRepo := repositories.NewUserRepository(db, cache)

	// Initialize services
	notifier := services.NewLineNotifier(config)
	riskService := services.NewRiskService(assessmentRepo, notifier, config.GetWorksheetLink())
	appointmentService := services.NewAppointmentService(appointmentRepo, notifier, config.GetWorksheetLink())
	teleconsultService := services.NewTeleconsultService(teleconsultRepo, notifier, services.NewRedisLocker(), config.NurseMailbox)
	userService := services.NewUserService(userRepo)

	// Initialize handlers
	webhookHandler := handlers.NewWebhookHandler(riskService, teleconsultService, appointmentService, config.NurseGroupID)
	staffHandler := handlers.NewStaffHandler(teleconsultService, appointmentService, riskService)
	authHandler := handlers.NewAuthHandler(userService)

	controllers.SetupWebhookRoute(router, webhookHandler, config.GetBearerToken())

	controllers.SetupStaffRoutes(router, staffHandler)

	authController := controllers.NewAuthController(authHandler)
	authController.RegisterRoutes(router)

	controllers.SetupRootRoute(router)

	return router
}
