package services

import (
	"time"

	"fitnessfight-engine/models"
)

// Weeks run Monday 00:00:00.000 UTC through Sunday 23:59:59.999 UTC. Every
// piece of period arithmetic in the engine must go through these helpers:
// time.Weekday puts Sunday at 0, so a Sunday activity has to fold back into
// the previous Monday's week, and getting that wrong anywhere silently
// corrupts cross-period bookkeeping.

// WeekStart returns the Monday 00:00 UTC that starts the week containing t.
func WeekStart(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}

// WeekEnd returns the Sunday 23:59:59.999 UTC that closes the week containing t.
func WeekEnd(t time.Time) time.Time {
	return WeekStart(t).AddDate(0, 0, 7).Add(-time.Millisecond)
}

// WeekKey is the canonical string form of a week used in progress metadata.
func WeekKey(t time.Time) string {
	return WeekStart(t).Format("2006-01-02")
}

// ResolvePeriod returns the progress-row period bounds for a reset policy.
// Non-periodic badges get (nil, nil): their single progress row lives forever.
func ResolvePeriod(policy models.ResetPeriod, t time.Time) (start, end *time.Time) {
	if policy != models.ResetWeekly {
		return nil, nil
	}
	s := WeekStart(t)
	e := WeekEnd(t)
	return &s, &e
}
