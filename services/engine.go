package services

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"fitnessfight-engine/models"
)

// BadgeEngine runs one incoming activity through every active badge
// definition: resolve period, load progress, evaluate, award, save.
type BadgeEngine struct {
	Catalog    BadgeCatalog
	Progress   ProgressStore
	Activities ActivityReader
	Awarder    *TierAwarder
	Dedupe     DedupeGuard // optional

	// One mutex per (user, badge, period): the progress mutation is
	// read-then-write, and a backfill sync plus a live webhook can hit the
	// same key at the same time.
	locks sync.Map
}

func NewBadgeEngine(catalog BadgeCatalog, progress ProgressStore, activities ActivityReader, awarder *TierAwarder, dedupe DedupeGuard) *BadgeEngine {
	return &BadgeEngine{
		Catalog:    catalog,
		Progress:   progress,
		Activities: activities,
		Awarder:    awarder,
		Dedupe:     dedupe,
	}
}

// ProcessActivity evaluates every active definition against one activity.
// A failure in one badge is logged and does not stop the remaining badges.
// The dedupe guard keys on ExternalID: the row ID is minted locally and a
// redelivery of the same provider activity can arrive under a fresh one.
func (e *BadgeEngine) ProcessActivity(ctx context.Context, act *models.Activity) error {
	if e.Dedupe != nil {
		seen, err := e.Dedupe.Seen(ctx, act.ExternalID)
		if err != nil {
			log.Printf("[Engine] dedupe check failed for activity %s: %v", act.ExternalID, err)
		} else if seen {
			log.Printf("[Engine] activity %s already processed, skipping", act.ExternalID)
			return nil
		}
	}

	defs, err := e.Catalog.ActiveDefinitions()
	if err != nil {
		return err
	}

	var history []models.Activity
	historyLoaded := false
	clean := true

	for i := range defs {
		def := &defs[i]
		if def.Criteria == models.CriteriaGroupActivity {
			// Awarded by the group detector batch, not per activity.
			continue
		}
		if def.ActivityTypeFilter != "" && !strings.EqualFold(def.ActivityTypeFilter, act.ActivityType) {
			continue
		}

		ev, err := EvaluatorFor(def.Criteria)
		if err != nil {
			// Catalog bug, not transient; a replay cannot repair it.
			log.Printf("[Engine] badge %s: %v", def.Code, err)
			continue
		}

		if ev.NeedsHistory() && !historyLoaded {
			history, err = e.Activities.HistoryForUser(act.UserID)
			if err != nil {
				log.Printf("[Engine] badge %s: loading history for user %s: %v", def.Code, act.UserID, err)
				clean = false
				continue
			}
			historyLoaded = true
		}

		if err := e.evaluateOne(def, ev, act, history); err != nil {
			log.Printf("[Engine] badge %s failed for activity %s: %v", def.Code, act.ExternalID, err)
			clean = false
		}
	}

	// Mark only after a clean pass so a replay can retry transient failures.
	if e.Dedupe != nil && clean {
		if err := e.Dedupe.Mark(ctx, act.ExternalID); err != nil {
			log.Printf("[Engine] dedupe mark failed for activity %s: %v", act.ExternalID, err)
		}
	}
	return nil
}

func (e *BadgeEngine) evaluateOne(def *models.BadgeDefinition, ev Evaluator, act *models.Activity, history []models.Activity) error {
	periodStart, periodEnd := ResolvePeriod(def.ResetPeriod, act.StartDate)

	unlock := e.lock(act.UserID, def.ID, periodStart)
	defer unlock()

	prog, err := e.Progress.GetProgress(act.UserID, def.ID, periodStart)
	if err != nil {
		return err
	}
	if prog == nil {
		prog = &models.BadgeProgress{
			UserID:      act.UserID,
			BadgeID:     def.ID,
			PeriodStart: periodStart,
			PeriodEnd:   periodEnd,
		}
	}

	if err := ev.Evaluate(def, prog, act, history); err != nil {
		return err
	}
	prog.LastActivityID = act.ID
	markAchieved(prog, def.Thresholds)

	if tier, delta, err := e.Awarder.Apply(def, act.UserID, prog.CurrentValue); err != nil {
		return err
	} else if tier != "" {
		log.Printf("🎖️ [Engine] %s reached %s on %q (+%d pts)", act.UserID, tier, def.Name, delta)
	}

	return e.Progress.UpsertProgress(prog)
}

func (e *BadgeEngine) lock(userID, badgeID string, periodStart *time.Time) func() {
	key := userID + "|" + badgeID
	if periodStart != nil {
		key += "|" + periodStart.Format("2006-01-02")
	}
	v, _ := e.locks.LoadOrStore(key, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
