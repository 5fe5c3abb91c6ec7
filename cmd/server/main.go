package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"queueflow/internal/adapters/http/middleware"
	"queueflow/internal/adapters/http/routes"
	"queueflow/internal/adapters/persistence/models"
	"queueflow/internal/adapters/persistence/repositories"
	"queueflow/internal/config"
	"queueflow/internal/core/services"
	"queueflow/internal/pkg/clock"
	"queueflow/internal/telemetry"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/pflag"

	_ "queueflow/docs" // Swagger docs
)

// @title QueueFlow API
// @version 1.0
// @description Queue timing and admission control for service centers
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@queueflow.example.com

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	var (
		envFile     string
		migrateOnly bool
		skipSeed    bool
	)
	flagSet := pflag.NewFlagSet("queueflow", pflag.ExitOnError)
	flagSet.StringVar(&envFile, "env-file", "", "path to an env file (default: .env)")
	flagSet.BoolVar(&migrateOnly, "migrate-only", false, "run migrations and seeders, then exit")
	flagSet.BoolVar(&skipSeed, "skip-seed", false, "do not run seeders")
	_ = flagSet.Parse(os.Args[1:])

	// Load configuration
	var envFiles []string
	if envFile != "" {
		envFiles = append(envFiles, envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}
	loc, _ := cfg.Location()

	shutdownTracing := telemetry.Setup("queueflow")

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase()

	// Auto migrate (creates tables if not exist)
	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	if !skipSeed {
		if err := config.NewSeeder(db, cfg.Queue.SeedFile).Run(); err != nil {
			log.Printf("⚠️ Warning: Failed to seed queue data: %v", err)
		}
	}
	if migrateOnly {
		return
	}

	// Initialize repositories
	centerRepo := repositories.NewCenterRepository(db)
	participantRepo := repositories.NewParticipantRepository(db)
	tokenRepo := repositories.NewTokenRepository(db)
	operatorRepo := repositories.NewOperatorRepository(db)

	// Notifications: SSE always, webhook when configured
	hub := services.NewSSEHub()
	notifier := services.MultiNotifier{services.NewQueueNotifyService(hub, loc)}
	var webhook *services.WebhookNotifier
	if cfg.Queue.WebhookURL != "" {
		webhook = services.NewWebhookNotifier(cfg.Queue.WebhookURL, cfg.Queue.WebhookToken, loc, clock.Real())
		notifier = append(notifier, webhook)
		log.Printf("📡 Webhook notifications → %s", cfg.Queue.WebhookURL)
	}

	// Initialize services
	queueService := services.NewQueueService(centerRepo, participantRepo, tokenRepo, notifier, clock.Real(), loc)
	authService := services.NewAuthService(operatorRepo, cfg)

	// Scheduled expiry sweep
	autoService := services.NewQueueAutoService(queueService, cfg.Queue.SweepSchedule)
	if err := autoService.Start(); err != nil {
		log.Fatalf("❌ Failed to start sweeper: %v", err)
	}

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "QueueFlow API v1.0",
		ErrorHandler: middleware.CustomErrorHandler,
	})

	// Setup middlewares
	middleware.Setup(app, cfg)

	// Setup routes
	routes.Setup(app, &routes.Deps{
		Config:       cfg,
		Location:     loc,
		QueueService: queueService,
		AuthService:  authService,
		Hub:          hub,
	})

	// Graceful shutdown
	go gracefulShutdown(app)

	// Start server
	log.Printf("🚀 Server starting on port %s [MODE: %s, TZ: %s]", cfg.Port, cfg.AppMode, loc)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}

	// Listen returned: stop background workers before the database closes
	autoService.Stop()
	if webhook != nil {
		webhook.Stop()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		log.Printf("⚠️ Tracer shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
}
