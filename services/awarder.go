package services

import (
	"fmt"
	"sync"
	"time"

	"fitnessfight-engine/models"

	"github.com/google/uuid"
)

// tierPoints maps tier to points per badge family. The numbers are
// configuration, not invariants, but must stay internally consistent within a
// family: deltas are computed from them.
var tierPoints = map[models.PointsFamily]map[models.Tier]int{
	models.FamilyStandard: {
		models.TierBronze: 3,
		models.TierSilver: 6,
		models.TierGold:   10,
	},
	models.FamilyGroup: {
		models.TierBronze: 3,
		models.TierSilver: 6,
		models.TierGold:   15,
	},
}

// HighestTier returns the highest tier the value clears, checking gold first,
// or "" when even bronze is out of reach.
func HighestTier(th models.Thresholds, value float64) models.Tier {
	switch {
	case value >= th.Gold:
		return models.TierGold
	case value >= th.Silver:
		return models.TierSilver
	case value >= th.Bronze:
		return models.TierBronze
	}
	return ""
}

// TierAwarder upgrades awards and applies point deltas. It is the only writer
// of AwardedBadge rows and the only caller of the user-point increment.
type TierAwarder struct {
	Awards AwardStore

	// One mutex per (user, badge): the award row spans periods and callers,
	// so the engine's per-period lock alone cannot serialize upgrades. The
	// group detector also calls Apply directly.
	locks sync.Map
}

func NewTierAwarder(awards AwardStore) *TierAwarder {
	return &TierAwarder{Awards: awards}
}

// Apply compares value against the definition's thresholds and upgrades the
// user's award when a higher tier is reached. Tier never moves backwards and
// only the positive point delta is applied, so replaying the same value is a
// no-op. Returns the tier newly reached ("" if nothing changed) and the delta.
func (ta *TierAwarder) Apply(def *models.BadgeDefinition, userID string, value float64) (models.Tier, int, error) {
	target := HighestTier(def.Thresholds, value)
	if target == "" {
		return "", 0, nil
	}

	points, ok := tierPoints[def.PointsFamily]
	if !ok {
		points = tierPoints[models.FamilyStandard]
	}

	v, _ := ta.locks.LoadOrStore(userID+"|"+def.ID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	existing, err := ta.Awards.GetAward(userID, def.ID)
	if err != nil {
		return "", 0, fmt.Errorf("fetching award for badge %s: %w", def.Code, err)
	}

	if existing == nil {
		award := &models.AwardedBadge{
			ID:            uuid.NewString(),
			UserID:        userID,
			BadgeID:       def.ID,
			Tier:          target,
			ProgressValue: value,
			PointsAwarded: points[target],
		}
		if err := ta.Awards.InsertAward(award); err != nil {
			return "", 0, fmt.Errorf("inserting award for badge %s: %w", def.Code, err)
		}
		if err := ta.Awards.IncrementUserBadgePoints(userID, points[target]); err != nil {
			return "", 0, fmt.Errorf("crediting points for badge %s: %w", def.Code, err)
		}
		return target, points[target], nil
	}

	if existing.Tier.Rank() >= target.Rank() {
		// Already at or above this tier. A lower recomputed value must never
		// regress tier or points.
		return "", 0, nil
	}

	delta := points[target] - existing.PointsAwarded
	now := time.Now().UTC()
	existing.Tier = target
	existing.ProgressValue = value
	existing.PointsAwarded = points[target]
	existing.UpgradedAt = &now
	if err := ta.Awards.UpdateAward(existing); err != nil {
		return "", 0, fmt.Errorf("upgrading award for badge %s: %w", def.Code, err)
	}
	if delta > 0 {
		if err := ta.Awards.IncrementUserBadgePoints(userID, delta); err != nil {
			return "", 0, fmt.Errorf("crediting points for badge %s: %w", def.Code, err)
		}
	}
	return target, delta, nil
}

// markAchieved flips the progress row's achieved flags for every threshold the
// value clears. Flags are monotonic: they are only ever set, never cleared.
func markAchieved(prog *models.BadgeProgress, th models.Thresholds) {
	if prog.CurrentValue >= th.Bronze {
		prog.BronzeAchieved = true
	}
	if prog.CurrentValue >= th.Silver {
		prog.SilverAchieved = true
	}
	if prog.CurrentValue >= th.Gold {
		prog.GoldAchieved = true
	}
}
