package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"fitnessfight-engine/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Evaluator turns one incoming activity into the next accumulated value for a
// badge definition. Implementations are pure: they read the activity (and,
// for history-backed criteria, the user's prior activities) and mutate only
// the given progress row. All I/O stays in the engine.
type Evaluator interface {
	Evaluate(def *models.BadgeDefinition, prog *models.BadgeProgress, act *models.Activity, history []models.Activity) error
	NeedsHistory() bool
}

// EvaluatorFor dispatches on the criteria type. The set is closed: an unknown
// type is a catalog bug and surfaces as an error, never a silent no-op.
// group_activity is excluded here on purpose; the group detector awards that
// family directly and it has no per-activity evaluator.
func EvaluatorFor(c models.CriteriaType) (Evaluator, error) {
	switch c {
	case models.CriteriaCount:
		return countEvaluator{}, nil
	case models.CriteriaCumulative, models.CriteriaWeeklyCumulative:
		// Same accumulation; the weekly variant is scoped by its period row.
		return cumulativeEvaluator{}, nil
	case models.CriteriaSingleActivity:
		return singleActivityEvaluator{}, nil
	case models.CriteriaWeeklyStreak:
		return weeklyStreakEvaluator{}, nil
	case models.CriteriaUniqueSports:
		return uniqueSportsEvaluator{}, nil
	case models.CriteriaWeeklyCount:
		return weeklyCountEvaluator{}, nil
	}
	return nil, fmt.Errorf("no evaluator for criteria type %q", c)
}

type countEvaluator struct{}

func (countEvaluator) NeedsHistory() bool { return false }

func (countEvaluator) Evaluate(def *models.BadgeDefinition, prog *models.BadgeProgress, act *models.Activity, _ []models.Activity) error {
	if matchesParams(def.Params, act) {
		prog.CurrentValue++
	}
	return nil
}

type cumulativeEvaluator struct{}

func (cumulativeEvaluator) NeedsHistory() bool { return false }

func (cumulativeEvaluator) Evaluate(def *models.BadgeDefinition, prog *models.BadgeProgress, act *models.Activity, _ []models.Activity) error {
	prog.CurrentValue += MetricValue(def.Metric, act)
	return nil
}

// singleActivityEvaluator does not accumulate: it measures the triggering
// activity on its own. CurrentValue tracks the best value ever observed, so a
// tier is granted the moment any one activity clears a threshold, whatever the
// order activities arrive in.
type singleActivityEvaluator struct{}

func (singleActivityEvaluator) NeedsHistory() bool { return false }

func (singleActivityEvaluator) Evaluate(def *models.BadgeDefinition, prog *models.BadgeProgress, act *models.Activity, _ []models.Activity) error {
	if v := MetricValue(def.Metric, act); v > prog.CurrentValue {
		prog.CurrentValue = v
	}
	return nil
}

// weeklyStreakEvaluator counts consecutive active weeks ending at the most
// recent active week. Week starts are UTC-anchored, so stepping back seven
// days at a time lands exactly on the previous week start.
type weeklyStreakEvaluator struct{}

func (weeklyStreakEvaluator) NeedsHistory() bool { return true }

func (weeklyStreakEvaluator) Evaluate(_ *models.BadgeDefinition, prog *models.BadgeProgress, act *models.Activity, history []models.Activity) error {
	active := make(map[time.Time]bool, len(history)+1)
	for i := range history {
		active[WeekStart(history[i].StartDate)] = true
	}
	active[WeekStart(act.StartDate)] = true

	var latest time.Time
	for wk := range active {
		if wk.After(latest) {
			latest = wk
		}
	}

	streak := 0
	for wk := latest; active[wk]; wk = wk.AddDate(0, 0, -7) {
		streak++
	}
	prog.CurrentValue = float64(streak)
	return nil
}

// uniqueSportsEvaluator recomputes the distinct-sport set from scratch every
// time, optionally restricted to the definition's sport list. The set is kept
// in metadata so awards can be audited.
type uniqueSportsEvaluator struct{}

func (uniqueSportsEvaluator) NeedsHistory() bool { return true }

func (uniqueSportsEvaluator) Evaluate(def *models.BadgeDefinition, prog *models.BadgeProgress, act *models.Activity, history []models.Activity) error {
	allowed := map[string]bool{}
	for _, s := range def.SportList {
		allowed[NormalizeSport(s)] = true
	}

	seen := map[string]bool{}
	record := func(sport string) {
		s := NormalizeSport(sport)
		if s == "" {
			return
		}
		if len(allowed) > 0 && !allowed[s] {
			return
		}
		seen[s] = true
	}
	for i := range history {
		record(history[i].SportType)
	}
	record(act.SportType)

	sports := make([]string, 0, len(seen))
	for s := range seen {
		sports = append(sports, s)
	}
	sort.Strings(sports)

	prog.CurrentValue = float64(len(sports))
	prog.Metadata.Sports = sports
	return nil
}

// weeklyCountEvaluator counts distinct weeks in which the condition held at
// least once. Counted week keys live in metadata so a week is never counted
// twice, however many qualifying activities it contains.
type weeklyCountEvaluator struct{}

func (weeklyCountEvaluator) NeedsHistory() bool { return false }

func (weeklyCountEvaluator) Evaluate(def *models.BadgeDefinition, prog *models.BadgeProgress, act *models.Activity, _ []models.Activity) error {
	if !matchesParams(def.Params, act) {
		return nil
	}
	wk := WeekKey(act.StartDate)
	for _, counted := range prog.Metadata.CountedWeeks {
		if counted == wk {
			return nil
		}
	}
	prog.Metadata.CountedWeeks = append(prog.Metadata.CountedWeeks, wk)
	prog.CurrentValue = float64(len(prog.Metadata.CountedWeeks))
	return nil
}

var sportCaser = cases.Title(language.English, cases.Compact)

// NormalizeSport canonicalizes provider sport strings ("run", "RUN", " Run ")
// so set membership is case-insensitive.
func NormalizeSport(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return sportCaser.String(strings.ToLower(s))
}
