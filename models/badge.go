package models

import (
	"time"
)

// CriteriaType selects the evaluation strategy for a badge. The set is
// closed: the evaluator dispatch in services rejects anything else.
type CriteriaType string

const (
	CriteriaCount            CriteriaType = "count"
	CriteriaCumulative       CriteriaType = "cumulative"
	CriteriaSingleActivity   CriteriaType = "single_activity"
	CriteriaWeeklyStreak     CriteriaType = "weekly_streak"
	CriteriaUniqueSports     CriteriaType = "unique_sports"
	CriteriaWeeklyCumulative CriteriaType = "weekly_cumulative"
	CriteriaWeeklyCount      CriteriaType = "weekly_count"
	CriteriaGroupActivity    CriteriaType = "group_activity"
)

// Metrics a definition can accumulate or measure.
const (
	MetricDistanceKm      = "distance_km"
	MetricDistanceMiles   = "distance_miles"
	MetricElevationGain   = "elevation_gain"
	MetricMovingTimeHours = "moving_time_hours"
	MetricSufferScore     = "suffer_score"
	MetricCaloriesPerHour = "calories_per_hour"
	MetricAverageSpeedKmh = "average_speed_kmh"
)

// ResetPeriod controls whether progress accumulates forever or per week.
type ResetPeriod string

const (
	ResetNone   ResetPeriod = "none"
	ResetWeekly ResetPeriod = "weekly"
)

// Tier is one of the three ascending award levels.
type Tier string

const (
	TierBronze Tier = "bronze"
	TierSilver Tier = "silver"
	TierGold   Tier = "gold"
)

// Rank orders tiers for monotonicity checks. The empty tier ranks below bronze.
func (t Tier) Rank() int {
	switch t {
	case TierBronze:
		return 1
	case TierSilver:
		return 2
	case TierGold:
		return 3
	}
	return 0
}

// PointsFamily selects the tier→points table for a badge. Group badges pay a
// richer gold than the standard family.
type PointsFamily string

const (
	FamilyStandard PointsFamily = "standard"
	FamilyGroup    PointsFamily = "group"
)

// Thresholds are the three ascending cut-offs, in the definition's metric units.
type Thresholds struct {
	Bronze float64 `json:"bronze"`
	Silver float64 `json:"silver"`
	Gold   float64 `json:"gold"`
}

// CriteriaParams carries the per-badge condition knobs used by count and
// weekly_count definitions, e.g. {"start_hour_before": 7} or {"min_photos": 1}.
type CriteriaParams map[string]float64

// Supported CriteriaParams keys.
const (
	ParamStartHourBefore   = "start_hour_before"
	ParamStartHourAfter    = "start_hour_after"
	ParamMinPhotos         = "min_photos"
	ParamMinDistanceKm     = "min_distance_km"
	ParamMinElapsedMinutes = "min_elapsed_minutes"
)

// BadgeDefinition: static catalog entry. Created and edited by an
// administrator; read-only to the engine.
type BadgeDefinition struct {
	ID                 string         `gorm:"primaryKey;type:uuid" json:"id"`
	Code               string         `gorm:"uniqueIndex;not null" json:"code"` // slugged from Name, e.g. "early-bird"
	Name               string         `gorm:"not null" json:"name"`
	Description        string         `json:"description"`
	IconURL            string         `gorm:"type:text" json:"icon_url"`
	Criteria           CriteriaType   `gorm:"type:varchar(32);not null" json:"criteria"`
	Metric             string         `gorm:"type:varchar(32)" json:"metric,omitempty"`
	ActivityTypeFilter string         `gorm:"type:varchar(32)" json:"activity_type_filter,omitempty"`
	SportList          []string       `gorm:"serializer:json;type:jsonb" json:"sport_list,omitempty"` // unique_sports only
	Params             CriteriaParams `gorm:"serializer:json;type:jsonb" json:"params,omitempty"`
	Thresholds         Thresholds     `gorm:"serializer:json;type:jsonb;not null" json:"thresholds"`
	ResetPeriod        ResetPeriod    `gorm:"type:varchar(16);default:'none'" json:"reset_period"`
	PointsFamily       PointsFamily   `gorm:"type:varchar(16);default:'standard'" json:"points_family"`
	Active             bool           `gorm:"default:true" json:"active"`
	CreatedAt          time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// AwardedBadge: one row per (user, badge), independent of period. Tier only
// ever moves forward; rows are never deleted, so a user cannot lose a badge.
type AwardedBadge struct {
	ID            string     `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string     `gorm:"uniqueIndex:idx_awards_user_badge;not null" json:"user_id"`
	BadgeID       string     `gorm:"uniqueIndex:idx_awards_user_badge;not null" json:"badge_id"`
	Tier          Tier       `gorm:"type:varchar(16);not null" json:"tier"`
	ProgressValue float64    `json:"progress_value"` // value at time of award/upgrade
	PointsAwarded int        `json:"points_awarded"` // cumulative points granted for this badge so far
	AwardedAt     time.Time  `gorm:"autoCreateTime" json:"awarded_at"`
	UpgradedAt    *time.Time `json:"upgraded_at,omitempty"`
}

// SeedBadges is the built-in catalog, upserted at startup. Codes are derived
// from names at seed time and administrator edits win over re-seeds.
var SeedBadges = []BadgeDefinition{
	{
		Name:        "Century Club",
		Description: "Ride or run your way to a lifetime distance milestone",
		Criteria:    CriteriaCumulative,
		Metric:      MetricDistanceKm,
		Thresholds:  Thresholds{Bronze: 100, Silver: 300, Gold: 600},
	},
	{
		Name:        "Mountain Goat",
		Description: "Climb a lifetime total worthy of the big cols",
		Criteria:    CriteriaCumulative,
		Metric:      MetricElevationGain,
		Thresholds:  Thresholds{Bronze: 2000, Silver: 5000, Gold: 8848},
	},
	{
		Name:        "Early Bird",
		Description: "Start workouts before 7am",
		Criteria:    CriteriaCount,
		Params:      CriteriaParams{ParamStartHourBefore: 7},
		Thresholds:  Thresholds{Bronze: 5, Silver: 15, Gold: 40},
	},
	{
		Name:        "Night Owl",
		Description: "Start workouts at 9pm or later",
		Criteria:    CriteriaCount,
		Params:      CriteriaParams{ParamStartHourAfter: 21},
		Thresholds:  Thresholds{Bronze: 5, Silver: 15, Gold: 40},
	},
	{
		Name:        "Iron Week",
		Description: "Hours of moving time inside a single week",
		Criteria:    CriteriaWeeklyCumulative,
		Metric:      MetricMovingTimeHours,
		ResetPeriod: ResetWeekly,
		Thresholds:  Thresholds{Bronze: 5, Silver: 10, Gold: 15},
	},
	{
		Name:        "Mileage Monster",
		Description: "Miles covered inside a single week",
		Criteria:    CriteriaWeeklyCumulative,
		Metric:      MetricDistanceMiles,
		ResetPeriod: ResetWeekly,
		Thresholds:  Thresholds{Bronze: 10, Silver: 30, Gold: 62},
	},
	{
		Name:        "Glutton For Punishment",
		Description: "Suffer score racked up inside a single week",
		Criteria:    CriteriaWeeklyCumulative,
		Metric:      MetricSufferScore,
		ResetPeriod: ResetWeekly,
		Thresholds:  Thresholds{Bronze: 100, Silver: 250, Gold: 500},
	},
	{
		Name:        "Furnace",
		Description: "Calories per hour burned in a single workout",
		Criteria:    CriteriaSingleActivity,
		Metric:      MetricCaloriesPerHour,
		Thresholds:  Thresholds{Bronze: 300, Silver: 500, Gold: 800},
	},
	{
		Name:               "Speed Demon",
		Description:        "Average speed on a single ride",
		Criteria:           CriteriaSingleActivity,
		Metric:             MetricAverageSpeedKmh,
		ActivityTypeFilter: "Ride",
		Thresholds:         Thresholds{Bronze: 20, Silver: 28, Gold: 35},
	},
	{
		Name:        "Metronome",
		Description: "Consecutive weeks with at least one workout",
		Criteria:    CriteriaWeeklyStreak,
		Thresholds:  Thresholds{Bronze: 2, Silver: 4, Gold: 8},
	},
	{
		Name:        "Jack Of All Trades",
		Description: "Distinct sports tried",
		Criteria:    CriteriaUniqueSports,
		Thresholds:  Thresholds{Bronze: 3, Silver: 5, Gold: 8},
	},
	{
		Name:        "Shutterbug",
		Description: "Weeks with at least one workout photo",
		Criteria:    CriteriaWeeklyCount,
		Params:      CriteriaParams{ParamMinPhotos: 1},
		Thresholds:  Thresholds{Bronze: 2, Silver: 5, Gold: 10},
	},
	{
		Name:         "Better Together",
		Description:  "Work out with friends at the same place and time",
		Criteria:     CriteriaGroupActivity,
		PointsFamily: FamilyGroup,
		Thresholds:   Thresholds{Bronze: 2, Silver: 3, Gold: 6},
	},
}
