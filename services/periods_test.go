package services

import (
	"testing"
	"time"

	"fitnessfight-engine/models"

	"github.com/stretchr/testify/assert"
)

func TestWeekStart(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		want time.Time
	}{
		{
			"sunday belongs to the preceding monday's week",
			time.Date(2025, 9, 7, 10, 0, 0, 0, time.UTC),
			time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			"monday starts its own week",
			time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			"wednesday mid-week",
			time.Date(2025, 9, 3, 23, 59, 0, 0, time.UTC),
			time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			"sunday just before midnight stays in the old week",
			time.Date(2025, 9, 7, 23, 59, 59, 999000000, time.UTC),
			time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			"monday midnight opens the new week",
			time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC),
			time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC),
		},
		{
			"year boundary",
			time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
			time.Date(2025, 12, 29, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WeekStart(tt.in))
		})
	}
}

func TestWeekEnd(t *testing.T) {
	end := WeekEnd(time.Date(2025, 9, 7, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 9, 7, 23, 59, 59, 999000000, time.UTC), end)
}

func TestResolvePeriod(t *testing.T) {
	ts := time.Date(2025, 9, 7, 10, 0, 0, 0, time.UTC)

	start, end := ResolvePeriod(models.ResetNone, ts)
	assert.Nil(t, start)
	assert.Nil(t, end)

	start, end = ResolvePeriod(models.ResetWeekly, ts)
	if assert.NotNil(t, start) && assert.NotNil(t, end) {
		assert.Equal(t, time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC), *start)
		assert.Equal(t, time.Date(2025, 9, 7, 23, 59, 59, 999000000, time.UTC), *end)
	}
}

func TestWeekKey(t *testing.T) {
	assert.Equal(t, "2025-09-01", WeekKey(time.Date(2025, 9, 7, 10, 0, 0, 0, time.UTC)))
}
