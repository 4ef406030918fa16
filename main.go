package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fitnessfight-engine/handlers"
	"fitnessfight-engine/middleware"
	"fitnessfight-engine/models"
	"fitnessfight-engine/services"
	"fitnessfight-engine/utils"
	"fitnessfight-engine/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{})

	// Only Gateway requests allowed — no exceptions
	app.Use(middleware.GatewayAuthMiddleware())

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-User-ID, X-User-Roles, X-Service-Token",
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.BadgeDefinition{},
		&models.BadgeProgress{},
		&models.AwardedBadge{},
		&models.Activity{},
		&models.UserProfile{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := services.SeedCatalog(db); err != nil {
		log.Fatal("failed to seed badge catalog:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis guards against re-processing replayed activities; without it the
	// tier-monotonic awarder still keeps replays harmless.
	var dedupe services.DedupeGuard
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		rd, err := services.NewRedisDedupe(ctx, redisURL, 48*time.Hour)
		if err != nil {
			log.Fatal("failed to connect to redis:", err)
		}
		dedupe = rd
	} else {
		log.Println("⚠️  REDIS_URL not set, activity dedupe disabled")
	}

	var reports services.ReportSink
	if utils.R2Configured() {
		if err := utils.InitR2(); err != nil {
			log.Fatal("failed to initialize R2 client:", err)
		}
		reports = services.R2ReportSink{}
	} else {
		log.Println("⚠️  R2 not configured, detection report uploads disabled")
	}

	store := services.NewSQLStore(db)
	awarder := services.NewTierAwarder(store)
	engine := services.NewBadgeEngine(store, store, store, awarder, dedupe)
	detector := services.NewGroupDetector(store, store, awarder, reports)

	syncClient := workers.NewActivitySyncClient(db, engine)
	go workers.PollActivities(ctx, syncClient, 30*time.Second)

	detector.StartSchedule(1 * time.Hour)

	handlers.SetupBadgeRoutes(app, store, engine, detector)

	go func() {
		if err := app.Listen(":5300"); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Println("✅ Badge engine running on http://localhost:5300")
	log.Println("✅ Activity sync worker running (every 30s)")
	log.Println("✅ Group detector scheduled (hourly, 24h lookback)")

	<-ctx.Done()
	log.Println("Shutting down server...")
}
