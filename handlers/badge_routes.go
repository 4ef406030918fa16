// handlers/badge_routes.go
package handlers

import (
	"errors"
	"log"
	"strconv"
	"time"

	"fitnessfight-engine/middleware"
	"fitnessfight-engine/models"
	"fitnessfight-engine/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SetupBadgeRoutes registers the read API plus the admin triggers. The gateway
// forwards user identity in headers; the ingestion and scheduling collaborators
// call the admin routes with a service role.
func SetupBadgeRoutes(app *fiber.App, store *services.SQLStore, engine *services.BadgeEngine, detector *services.GroupDetector) {
	// Public: the catalog itself carries no user data.
	app.Get("/badges", func(c *fiber.Ctx) error {
		defs, err := store.ActiveDefinitions()
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load badge catalog",
				"cause": err.Error(),
			})
		}
		return c.JSON(defs)
	})

	securedGroup := app.Group("/", middleware.UserContextMiddleware())

	securedGroup.Get("/user/badges", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var rows []struct {
			models.AwardedBadge
			Code    string `json:"code"`
			Name    string `json:"name"`
			IconURL string `json:"icon_url"`
		}
		if err := store.DB.
			Table("awarded_badges").
			Select("awarded_badges.*, badge_definitions.code, badge_definitions.name, badge_definitions.icon_url").
			Joins("INNER JOIN badge_definitions ON badge_definitions.id = awarded_badges.badge_id").
			Where("awarded_badges.user_id = ?", userID).
			Order("awarded_badges.awarded_at DESC").
			Scan(&rows).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get badges",
				"cause": err.Error(),
			})
		}

		response := make([]fiber.Map, 0, len(rows))
		for _, r := range rows {
			response = append(response, fiber.Map{
				"badge_id":       r.BadgeID,
				"code":           r.Code,
				"name":           r.Name,
				"icon_url":       r.IconURL,
				"tier":           r.Tier,
				"progress_value": r.ProgressValue,
				"points_awarded": r.PointsAwarded,
				"awarded_at":     r.AwardedAt,
				"upgraded_at":    r.UpgradedAt,
			})
		}
		return c.JSON(response)
	})

	securedGroup.Get("/user/badges/progress", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)
		weekStart := services.WeekStart(time.Now().UTC())

		// Lifetime rows plus the current week; prior weeks are history the
		// leaderboard pages query separately.
		var rows []models.BadgeProgress
		if err := store.DB.
			Where("user_id = ? AND (period_start IS NULL OR period_start = ?)", userID, weekStart).
			Find(&rows).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get progress",
				"cause": err.Error(),
			})
		}
		return c.JSON(rows)
	})

	securedGroup.Get("/user/points", func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(string)

		var profile models.UserProfile
		err := store.DB.Where("user_id = ?", userID).First(&profile).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"user_id": userID, "badge_points": 0})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get points",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"user_id": userID, "badge_points": profile.BadgePoints})
	})

	// Admin endpoints
	adminGroup := app.Group("/s/admin", middleware.UserContextMiddleware(), middleware.RequireRole("admin"))

	adminGroup.Post("/detect/run", func(c *fiber.Ctx) error {
		hours, _ := strconv.Atoi(c.Query("lookback_hours", "24"))
		if hours < 1 || hours > 24*7 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "lookback_hours out of range"})
		}

		report, err := detector.Run(c.Context(), time.Duration(hours)*time.Hour)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "detection run failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(report)
	})

	adminGroup.Post("/catalog/reseed", func(c *fiber.Ctx) error {
		if err := services.SeedCatalog(store.DB); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "catalog reseed failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "catalog reseeded"})
	})

	// Backfill/debug hook: hand the engine one normalized activity. The live
	// path is the sync worker; this exists for replaying a single record.
	adminGroup.Post("/activities/process", func(c *fiber.Ctx) error {
		var act models.Activity
		if err := c.BodyParser(&act); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid activity JSON"})
		}
		if act.ExternalID == "" || act.UserID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "external_id and user_id are required"})
		}

		if act.ID == "" {
			act.ID = uuid.NewString()
		}
		if err := store.DB.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "activity_type", "sport_type", "start_date", "start_date_local",
				"distance_meters", "moving_time_seconds", "elapsed_time_seconds",
				"elevation_gain_meters", "average_speed_mps", "calories",
				"suffer_score", "photo_count", "polyline", "updated_at",
			}),
		}).Create(&act).Error; err != nil {
			log.Printf("DB Error upserting activity %s: %v", act.ExternalID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to store activity"})
		}
		// Re-read so a replay of an existing record keeps its original row ID.
		if err := store.DB.Where("external_id = ?", act.ExternalID).First(&act).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to reload activity"})
		}

		if err := engine.ProcessActivity(c.Context(), &act); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "badge evaluation failed",
				"cause": err.Error(),
			})
		}
		return c.JSON(fiber.Map{"message": "activity processed", "activity_id": act.ID})
	})
}
