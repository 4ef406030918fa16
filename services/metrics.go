package services

import (
	"fitnessfight-engine/models"
)

const (
	metersPerKm   = 1000.0
	metersPerMile = 1609.344
)

// MetricValue extracts the metric a definition accumulates or measures from a
// single activity. Unknown metrics yield 0, which can never cross a threshold.
func MetricValue(metric string, act *models.Activity) float64 {
	switch metric {
	case models.MetricDistanceKm:
		return act.DistanceMeters / metersPerKm
	case models.MetricDistanceMiles:
		return act.DistanceMeters / metersPerMile
	case models.MetricElevationGain:
		return act.ElevationGainMeters
	case models.MetricMovingTimeHours:
		return float64(act.MovingTimeSeconds) / 3600
	case models.MetricSufferScore:
		return act.SufferScore
	case models.MetricCaloriesPerHour:
		if act.MovingTimeSeconds == 0 {
			return 0
		}
		return act.Calories / (float64(act.MovingTimeSeconds) / 3600)
	case models.MetricAverageSpeedKmh:
		return act.AverageSpeedMps * 3.6
	}
	return 0
}

// matchesParams evaluates the boolean condition a count or weekly_count
// definition carries. All keys must hold; an empty params map matches every
// activity.
func matchesParams(params models.CriteriaParams, act *models.Activity) bool {
	for key, v := range params {
		switch key {
		case models.ParamStartHourBefore:
			if act.StartDateLocal.Hour() >= int(v) {
				return false
			}
		case models.ParamStartHourAfter:
			if act.StartDateLocal.Hour() < int(v) {
				return false
			}
		case models.ParamMinPhotos:
			if act.PhotoCount < int(v) {
				return false
			}
		case models.ParamMinDistanceKm:
			if act.DistanceMeters/metersPerKm < v {
				return false
			}
		case models.ParamMinElapsedMinutes:
			if float64(act.ElapsedTimeSeconds)/60 < v {
				return false
			}
		}
	}
	return true
}
