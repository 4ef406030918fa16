package models

import (
	"time"
)

// Activity is the normalized exercise record the ingestion service hands us.
// The engine treats it as read-only; the sync worker owns writes.
type Activity struct {
	ID                  string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalID          string    `gorm:"uniqueIndex;not null" json:"external_id"` // provider activity ID
	UserID              string    `gorm:"index;not null" json:"user_id"`           // links to profile service
	Name                string    `json:"name"`
	ActivityType        string    `gorm:"index;type:varchar(32)" json:"activity_type"` // coarse, e.g. "Run", "Ride"
	SportType           string    `gorm:"type:varchar(48)" json:"sport_type"`          // finer, e.g. "TrailRun"
	StartDate           time.Time `gorm:"index" json:"start_date"`                     // UTC
	StartDateLocal      time.Time `json:"start_date_local"`                            // athlete's clock
	DistanceMeters      float64   `json:"distance_meters"`
	MovingTimeSeconds   int64     `json:"moving_time_seconds"`
	ElapsedTimeSeconds  int64     `json:"elapsed_time_seconds"`
	ElevationGainMeters float64   `json:"elevation_gain_meters"`
	AverageSpeedMps     float64   `json:"average_speed_mps"`
	Calories            float64   `json:"calories"`
	SufferScore         float64   `json:"suffer_score"`
	PhotoCount          int       `json:"photo_count"`
	Polyline            string    `gorm:"type:text" json:"polyline,omitempty"` // encoded summary path

	Timestamps
}
