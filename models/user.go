package models

import (
	"time"

	"gorm.io/gorm"
)

// UserProfile is the slice of the platform's user we track locally: the
// cumulative badge point score. Mutated only through atomic SQL increments in
// the award store, never read-modify-write.
type UserProfile struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID      string `gorm:"uniqueIndex;not null" json:"user_id"` // links to profile service
	BadgePoints int    `gorm:"default:0" json:"badge_points"`

	Timestamps
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
