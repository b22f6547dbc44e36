package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"minigame-arcade/config"
	"minigame-arcade/handlers"
	"minigame-arcade/middleware"
	"minigame-arcade/models"
	"minigame-arcade/services"
	"minigame-arcade/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Category{},
		&models.Game{},
		&models.Account{},
		&models.LedgerEntry{},
		&models.BadgeType{},
		&models.UserBadge{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	images, err := newImageUploader(ctx, cfg)
	if err != nil {
		log.Fatal("failed to initialize image storage:", err)
	}

	validator := newTokenValidator(cfg)

	badgeService := services.NewBadgeService(db)
	if err := badgeService.EnsureBadgeTypes(); err != nil {
		log.Fatal("failed to seed badge types:", err)
	}
	catalogService := services.NewCatalogService(db, images)
	ledgerService := services.NewLedgerService(db, badgeService)

	if cfg.SeedCatalog {
		if err := services.SeedCatalog(db); err != nil {
			log.Fatal("failed to seed catalog:", err)
		}
	}

	scheduler, err := catalogService.StartPublishScheduler(cfg.PublishInterval)
	if err != nil {
		log.Fatal("failed to start publish scheduler:", err)
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 4 * 1024 * 1024,
	})
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	if !cfg.R2Enabled() {
		app.Static("/uploads", cfg.UploadDir)
	}

	// 🔐 Every API route requires a bearer token
	api := app.Group("/", middleware.BearerAuth(validator))
	handlers.SetupCatalogRoutes(api, catalogService)
	handlers.SetupLedgerRoutes(api, ledgerService)
	handlers.SetupUserRoutes(api, ledgerService, badgeService)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", cfg.Port)
	log.Printf("✅ Publish scheduler running (every %s)", cfg.PublishInterval)
	log.Printf("✅ CORS configured for origins: %s", cfg.AllowedOrigins)

	<-ctx.Done()
	log.Println("Shutting down server...")

	if err := scheduler.Shutdown(); err != nil {
		log.Printf("Scheduler shutdown error: %v", err)
	}
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
}

func newImageUploader(ctx context.Context, cfg config.Config) (services.ImageUploader, error) {
	if cfg.R2Enabled() {
		log.Printf("🖼️  Game images stored in R2 bucket %s", cfg.R2Bucket)
		return utils.NewR2Uploader(ctx, utils.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			Bucket:          cfg.R2Bucket,
			CDNBaseURL:      cfg.CDNBaseURL,
		})
	}
	log.Printf("⚠️  R2 not configured, storing game images in %s", cfg.UploadDir)
	return utils.NewLocalUploader(cfg.UploadDir, cfg.PublicBaseURL+"/uploads")
}

func newTokenValidator(cfg config.Config) services.TokenValidator {
	switch {
	case cfg.AuthJWTSecret != "":
		log.Println("🔐 Validating bearer tokens locally (HS256)")
		return services.NewJWTValidator(cfg.AuthJWTSecret)
	case cfg.AuthServiceURL != "":
		log.Printf("🔐 Validating bearer tokens via %s", cfg.AuthServiceURL)
		return services.NewAuthServiceClient(cfg.AuthServiceURL, cfg.AuthServiceToken)
	default:
		log.Fatal("either AUTH_JWT_SECRET or AUTH_SERVICE_URL must be set")
		return nil
	}
}
