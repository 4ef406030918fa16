package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"fitnessfight-engine/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessActivityCumulativeScenario(t *testing.T) {
	// Three rides of 50, 60 and 500 km against thresholds {100, 300, 600}.
	def := standardDef()
	store := newMemStore(def)
	engine := NewBadgeEngine(store, store, store, NewTierAwarder(store), nil)

	ride := func(id string, km float64) *models.Activity {
		return testActivity(func(a *models.Activity) {
			a.ID = id
			a.ExternalID = id
			a.DistanceMeters = km * 1000
		})
	}

	require.NoError(t, engine.ProcessActivity(context.Background(), ride("a1", 50)))
	award, _ := store.GetAward("user-1", def.ID)
	assert.Nil(t, award, "50km total is below bronze")
	assert.Equal(t, 0, store.points["user-1"])

	require.NoError(t, engine.ProcessActivity(context.Background(), ride("a2", 60)))
	award, _ = store.GetAward("user-1", def.ID)
	require.NotNil(t, award)
	assert.Equal(t, models.TierBronze, award.Tier)
	assert.Equal(t, 3, store.points["user-1"])

	require.NoError(t, engine.ProcessActivity(context.Background(), ride("a3", 500)))
	award, _ = store.GetAward("user-1", def.ID)
	require.NotNil(t, award)
	assert.Equal(t, models.TierGold, award.Tier, "610km jumps straight to gold")
	assert.Equal(t, 10, store.points["user-1"], "net delta from bronze is +7")

	prog, err := store.GetProgress("user-1", def.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, prog)
	assert.InDelta(t, 610.0, prog.CurrentValue, 1e-9)
	assert.True(t, prog.BronzeAchieved)
	assert.True(t, prog.SilverAchieved)
	assert.True(t, prog.GoldAchieved)
	assert.Equal(t, "a3", prog.LastActivityID)
}

func TestProcessActivityWeeklyRowsAreIndependent(t *testing.T) {
	def := models.BadgeDefinition{
		ID:          "badge-week",
		Code:        "iron-week",
		Criteria:    models.CriteriaWeeklyCumulative,
		Metric:      models.MetricMovingTimeHours,
		ResetPeriod: models.ResetWeekly,
		Thresholds:  models.Thresholds{Bronze: 5, Silver: 10, Gold: 15},
	}
	store := newMemStore(def)
	engine := NewBadgeEngine(store, store, store, NewTierAwarder(store), nil)

	onDay := func(id string, day int, hours float64) *models.Activity {
		return testActivity(func(a *models.Activity) {
			a.ID = id
			a.StartDate = time.Date(2025, 9, day, 8, 0, 0, 0, time.UTC)
			a.MovingTimeSeconds = int64(hours * 3600)
		})
	}

	require.NoError(t, engine.ProcessActivity(context.Background(), onDay("w1a", 2, 3)))
	require.NoError(t, engine.ProcessActivity(context.Background(), onDay("w1b", 4, 3)))
	require.NoError(t, engine.ProcessActivity(context.Background(), onDay("w2a", 9, 2)))

	week1 := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	week2 := time.Date(2025, 9, 8, 0, 0, 0, 0, time.UTC)

	p1, err := store.GetProgress("user-1", def.ID, &week1)
	require.NoError(t, err)
	require.NotNil(t, p1, "prior week's row is retained as history")
	assert.InDelta(t, 6.0, p1.CurrentValue, 1e-9)
	assert.True(t, p1.BronzeAchieved)

	p2, err := store.GetProgress("user-1", def.ID, &week2)
	require.NoError(t, err)
	require.NotNil(t, p2)
	assert.InDelta(t, 2.0, p2.CurrentValue, 1e-9, "new week starts from zero")
	assert.False(t, p2.BronzeAchieved)
}

func TestProcessActivityIsolatesBadBadges(t *testing.T) {
	good := standardDef()
	bad := models.BadgeDefinition{
		ID:         "badge-bad",
		Code:       "mystery",
		Criteria:   models.CriteriaType("bogus"),
		Thresholds: models.Thresholds{Bronze: 1, Silver: 2, Gold: 3},
	}
	store := newMemStore(bad, good)
	engine := NewBadgeEngine(store, store, store, NewTierAwarder(store), nil)

	act := testActivity(func(a *models.Activity) { a.DistanceMeters = 150000 })
	require.NoError(t, engine.ProcessActivity(context.Background(), act))

	award, _ := store.GetAward("user-1", good.ID)
	require.NotNil(t, award, "a broken definition must not block the others")
	assert.Equal(t, models.TierBronze, award.Tier)
}

func TestProcessActivityHonorsActivityTypeFilter(t *testing.T) {
	def := standardDef()
	def.ActivityTypeFilter = "Ride"
	store := newMemStore(def)
	engine := NewBadgeEngine(store, store, store, NewTierAwarder(store), nil)

	run := testActivity(func(a *models.Activity) { a.DistanceMeters = 150000 })
	require.NoError(t, engine.ProcessActivity(context.Background(), run))
	prog, _ := store.GetProgress("user-1", def.ID, nil)
	assert.Nil(t, prog, "a Run must not touch a Ride-only badge")

	bikeRide := testActivity(func(a *models.Activity) {
		a.ActivityType = "Ride"
		a.DistanceMeters = 150000
	})
	require.NoError(t, engine.ProcessActivity(context.Background(), bikeRide))
	prog, _ = store.GetProgress("user-1", def.ID, nil)
	require.NotNil(t, prog)
	assert.InDelta(t, 150.0, prog.CurrentValue, 1e-9)
}

func TestProcessActivityDedupe(t *testing.T) {
	mr := miniredis.RunT(t)
	dedupe, err := NewRedisDedupe(context.Background(), fmt.Sprintf("redis://%s", mr.Addr()), time.Hour)
	require.NoError(t, err)

	def := standardDef()
	store := newMemStore(def)
	engine := NewBadgeEngine(store, store, store, NewTierAwarder(store), dedupe)

	act := testActivity(func(a *models.Activity) { a.DistanceMeters = 50000 })
	require.NoError(t, engine.ProcessActivity(context.Background(), act))
	require.NoError(t, engine.ProcessActivity(context.Background(), act))

	prog, err := store.GetProgress("user-1", def.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, prog)
	assert.InDelta(t, 50.0, prog.CurrentValue, 1e-9, "replayed activity must not accumulate twice")
}

func TestProcessActivityReplayUnderDifferentRowID(t *testing.T) {
	mr := miniredis.RunT(t)
	dedupe, err := NewRedisDedupe(context.Background(), fmt.Sprintf("redis://%s", mr.Addr()), time.Hour)
	require.NoError(t, err)

	def := standardDef()
	store := newMemStore(def)
	engine := NewBadgeEngine(store, store, store, NewTierAwarder(store), dedupe)

	// The sync loop re-fetches an overlapping window and mints a fresh row ID
	// for every delivery, so only the provider ID identifies a redelivery.
	delivery := func(rowID string) *models.Activity {
		return testActivity(func(a *models.Activity) {
			a.ID = rowID
			a.ExternalID = "ext-1"
			a.DistanceMeters = 50000
		})
	}

	require.NoError(t, engine.ProcessActivity(context.Background(), delivery("row-1")))
	require.NoError(t, engine.ProcessActivity(context.Background(), delivery("row-2")))

	prog, err := store.GetProgress("user-1", def.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, prog)
	assert.InDelta(t, 50.0, prog.CurrentValue, 1e-9, "redelivery under a new row ID must not accumulate twice")
}

func TestProcessActivityReplayRetriesFailedWrites(t *testing.T) {
	mr := miniredis.RunT(t)
	dedupe, err := NewRedisDedupe(context.Background(), fmt.Sprintf("redis://%s", mr.Addr()), time.Hour)
	require.NoError(t, err)

	def := standardDef()
	store := newMemStore(def)
	engine := NewBadgeEngine(store, store, store, NewTierAwarder(store), dedupe)

	act := testActivity(func(a *models.Activity) { a.DistanceMeters = 150000 })

	// First delivery hits a transient store failure: nothing lands, and the
	// activity must not be marked as processed.
	store.failAwardsFor["user-1"] = true
	require.NoError(t, engine.ProcessActivity(context.Background(), act))
	award, _ := store.GetAward("user-1", def.ID)
	assert.Nil(t, award)

	delete(store.failAwardsFor, "user-1")
	require.NoError(t, engine.ProcessActivity(context.Background(), act))

	award, _ = store.GetAward("user-1", def.ID)
	require.NotNil(t, award, "a replay repairs the failed pass")
	assert.Equal(t, models.TierBronze, award.Tier)
	assert.Equal(t, 3, store.points["user-1"])

	prog, err := store.GetProgress("user-1", def.ID, nil)
	require.NoError(t, err)
	require.NotNil(t, prog)
	assert.InDelta(t, 150.0, prog.CurrentValue, 1e-9, "the failed pass saved nothing, so no double count")
}
