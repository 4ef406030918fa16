package services

import (
	"fmt"
	"sync"
	"time"

	"fitnessfight-engine/models"
)

// memStore is an in-memory stand-in for the SQL-backed stores, with per-user
// write failure injection for the isolation tests. The mutex mirrors the
// database's own safety under concurrent callers.
type memStore struct {
	mu       sync.Mutex
	defs     []models.BadgeDefinition
	progress map[string]models.BadgeProgress
	awards   map[string]models.AwardedBadge
	points   map[string]int
	history  map[string][]models.Activity
	window   []models.Activity

	failAwardsFor map[string]bool
	increments    int // total IncrementUserBadgePoints calls that applied a delta
}

func newMemStore(defs ...models.BadgeDefinition) *memStore {
	return &memStore{
		defs:          defs,
		progress:      map[string]models.BadgeProgress{},
		awards:        map[string]models.AwardedBadge{},
		points:        map[string]int{},
		history:       map[string][]models.Activity{},
		failAwardsFor: map[string]bool{},
	}
}

func progressKey(userID, badgeID string, periodStart *time.Time) string {
	key := userID + "|" + badgeID
	if periodStart != nil {
		key += "|" + periodStart.Format("2006-01-02")
	}
	return key
}

func (m *memStore) GetProgress(userID, badgeID string, periodStart *time.Time) (*models.BadgeProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.progress[progressKey(userID, badgeID, periodStart)]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (m *memStore) UpsertProgress(p *models.BadgeProgress) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.progress[progressKey(p.UserID, p.BadgeID, p.PeriodStart)] = *p
	return nil
}

func (m *memStore) GetAward(userID, badgeID string) (*models.AwardedBadge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.awards[userID+"|"+badgeID]
	if !ok {
		return nil, nil
	}
	cp := a
	return &cp, nil
}

func (m *memStore) InsertAward(a *models.AwardedBadge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAwardsFor[a.UserID] {
		return fmt.Errorf("injected write failure for %s", a.UserID)
	}
	m.awards[a.UserID+"|"+a.BadgeID] = *a
	return nil
}

func (m *memStore) UpdateAward(a *models.AwardedBadge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAwardsFor[a.UserID] {
		return fmt.Errorf("injected write failure for %s", a.UserID)
	}
	m.awards[a.UserID+"|"+a.BadgeID] = *a
	return nil
}

func (m *memStore) IncrementUserBadgePoints(userID string, delta int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.points[userID] += delta
	m.increments++
	return nil
}

func (m *memStore) HistoryForUser(userID string) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history[userID], nil
}

func (m *memStore) InWindow(from, to time.Time, minElapsed time.Duration) ([]models.Activity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Activity
	for _, a := range m.window {
		if a.StartDate.Before(from) || !a.StartDate.Before(to) {
			continue
		}
		if a.ElapsedTimeSeconds < int64(minElapsed.Seconds()) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (m *memStore) ActiveDefinitions() ([]models.BadgeDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.defs, nil
}

func (m *memStore) ByCode(code string) (*models.BadgeDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.defs {
		if m.defs[i].Code == code {
			cp := m.defs[i]
			return &cp, nil
		}
	}
	return nil, nil
}
