package services

import (
	"errors"
	"fmt"
	"log"

	"fitnessfight-engine/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// SeedCatalog inserts the built-in badge definitions that are not in the
// database yet. Codes are slugged from names. Existing rows are left alone:
// the catalog belongs to administrators and a deploy must not clobber their
// edits.
func SeedCatalog(db *gorm.DB) error {
	for _, def := range models.SeedBadges {
		def.Code = slug.Make(def.Name)

		if def.Thresholds.Bronze >= def.Thresholds.Silver || def.Thresholds.Silver >= def.Thresholds.Gold {
			return fmt.Errorf("badge %s: thresholds must be strictly increasing", def.Code)
		}

		var existing models.BadgeDefinition
		err := db.Where("code = ?", def.Code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			def.ID = uuid.NewString()
			def.Active = true
			if err := db.Create(&def).Error; err != nil {
				return fmt.Errorf("seeding badge %s: %w", def.Code, err)
			}
			log.Printf("🎖️ Seeded badge: %s", def.Code)
			continue
		}
		if err != nil {
			return err
		}
	}
	return nil
}
