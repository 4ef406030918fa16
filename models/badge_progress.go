package models

import (
	"time"
)

// ProgressMetadata is the free-form audit state an evaluator keeps between
// activities: the sport set for unique_sports, the already-counted week keys
// for weekly_count.
type ProgressMetadata struct {
	Sports       []string `json:"sports,omitempty"`
	CountedWeeks []string `json:"counted_weeks,omitempty"`
}

// BadgeProgress: one row per (user, badge, period). PeriodStart is nil for
// non-periodic badges. Weekly badges get a fresh row each week; prior rows are
// kept as history, never reset in place. The achieved flags are monotonic
// within a row.
type BadgeProgress struct {
	ID             string           `gorm:"primaryKey;type:uuid" json:"id"`
	UserID         string           `gorm:"uniqueIndex:idx_progress_key;not null" json:"user_id"`
	BadgeID        string           `gorm:"uniqueIndex:idx_progress_key;not null" json:"badge_id"`
	PeriodStart    *time.Time       `gorm:"uniqueIndex:idx_progress_key" json:"period_start,omitempty"`
	PeriodEnd      *time.Time       `json:"period_end,omitempty"`
	CurrentValue   float64          `json:"current_value"`
	BronzeAchieved bool             `gorm:"default:false" json:"bronze_achieved"`
	SilverAchieved bool             `gorm:"default:false" json:"silver_achieved"`
	GoldAchieved   bool             `gorm:"default:false" json:"gold_achieved"`
	LastActivityID string           `json:"last_activity_id"`
	Metadata       ProgressMetadata `gorm:"serializer:json;type:jsonb" json:"metadata"`

	Timestamps
}
