package routes

import (
	"time"

	"queueflow/internal/adapters/http/handlers"
	"queueflow/internal/adapters/http/middleware"
	"queueflow/internal/config"
	"queueflow/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
)

// Deps are the services the HTTP layer is built on
type Deps struct {
	Config       *config.Config
	Location     *time.Location
	QueueService *services.QueueService
	AuthService  *services.AuthService
	Hub          *services.SSEHub
}

// Setup configures all routes for the application
func Setup(app *fiber.App, d *Deps) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(d.Hub)
	authHandler := handlers.NewAuthHandler(d.AuthService)
	queueHandler := handlers.NewQueueHandler(d.QueueService, d.Location)
	queueAdminHandler := handlers.NewQueueAdminHandler(d.QueueService, d.Location)
	displayHandler := handlers.NewQueueDisplayHandler(d.QueueService, d.Hub)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	setupAPIV1Routes(apiV1, authHandler, queueHandler, queueAdminHandler, displayHandler, d.Config)
}

// setupAPIV1Routes configures API v1 routes
func setupAPIV1Routes(
	router fiber.Router,
	authHandler *handlers.AuthHandler,
	queueHandler *handlers.QueueHandler,
	queueAdminHandler *handlers.QueueAdminHandler,
	displayHandler *handlers.QueueDisplayHandler,
	cfg *config.Config,
) {
	// Auth routes (operators)
	authRoutes := router.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// Public queue routes (participants and boards)
	setupCenterRoutes(router.Group("/centers"), queueHandler, displayHandler)
	setupParticipantRoutes(router.Group("/participants"), queueHandler)
	setupTokenRoutes(router.Group("/tokens"), queueHandler)
	router.Get("/track/:ref", middleware.NoCacheHeaders(), queueHandler.TrackByRef)

	// Operator routes, scoped to the center in the token
	adminRoutes := router.Group("/admin")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))
	adminRoutes.Use(middleware.OperatorOrAdmin())
	setupAdminRoutes(adminRoutes, queueAdminHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
}

// setupCenterRoutes configures center, queue state and stream routes
func setupCenterRoutes(router fiber.Router, handler *handlers.QueueHandler, display *handlers.QueueDisplayHandler) {
	router.Get("/", middleware.CacheControl(time.Minute), handler.ListCenters)
	router.Get("/:id", middleware.CacheControl(time.Minute), handler.GetCenter)
	router.Get("/:id/queue/:lane", middleware.NoCacheHeaders(), handler.QueueState)
	router.Get("/:id/track/:label", middleware.NoCacheHeaders(), handler.TrackByLabel)
	router.Get("/:id/stream", display.Stream)
	router.Post("/:id/tokens", handler.Admit)
}

// setupParticipantRoutes configures participant routes
func setupParticipantRoutes(router fiber.Router, handler *handlers.QueueHandler) {
	router.Post("/", handler.RegisterParticipant)
	router.Get("/:id", handler.GetParticipant)
	router.Get("/:id/history", handler.ParticipantHistory)
}

// setupTokenRoutes configures token routes
func setupTokenRoutes(router fiber.Router, handler *handlers.QueueHandler) {
	router.Get("/:id", middleware.NoCacheHeaders(), handler.TokenDetail)
	router.Post("/:id/payment", handler.ConfirmPayment)
	router.Post("/:id/cancel", handler.Cancel)
}

// setupAdminRoutes configures operator routes
func setupAdminRoutes(router fiber.Router, handler *handlers.QueueAdminHandler) {
	router.Get("/dashboard", middleware.NoCacheHeaders(), handler.Dashboard)
	router.Post("/queue/:lane/call-next", handler.CallNext)
	router.Post("/walkins", handler.AddWalkin)

	router.Post("/tokens/:id/complete", handler.Complete)
	router.Post("/tokens/:id/no-show", handler.NoShow)
	router.Post("/tokens/:id/cancel", handler.Cancel)

	router.Get("/history", handler.History)
	router.Get("/analytics", handler.Analytics)
	router.Put("/center", handler.UpdateCenter)
}
