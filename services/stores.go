package services

import (
	"errors"
	"time"

	"fitnessfight-engine/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store contracts for the engine's external collaborators. Absence of a row is
// the normal initial state everywhere, so Get methods return (nil, nil) when
// nothing exists yet.

type ProgressStore interface {
	GetProgress(userID, badgeID string, periodStart *time.Time) (*models.BadgeProgress, error)
	UpsertProgress(p *models.BadgeProgress) error
}

type AwardStore interface {
	GetAward(userID, badgeID string) (*models.AwardedBadge, error)
	InsertAward(a *models.AwardedBadge) error
	UpdateAward(a *models.AwardedBadge) error
	// IncrementUserBadgePoints applies a point delta atomically in SQL; the
	// caller never reads the total first.
	IncrementUserBadgePoints(userID string, delta int) error
}

type ActivityReader interface {
	HistoryForUser(userID string) ([]models.Activity, error)
	// InWindow returns non-deleted activities starting inside [from, to) with
	// at least minElapsed of elapsed time.
	InWindow(from, to time.Time, minElapsed time.Duration) ([]models.Activity, error)
}

type BadgeCatalog interface {
	ActiveDefinitions() ([]models.BadgeDefinition, error)
	ByCode(code string) (*models.BadgeDefinition, error)
}

// SQLStore backs every store contract with the shared Postgres database.
type SQLStore struct {
	DB *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{DB: db}
}

func (s *SQLStore) GetProgress(userID, badgeID string, periodStart *time.Time) (*models.BadgeProgress, error) {
	q := s.DB.Where("user_id = ? AND badge_id = ?", userID, badgeID)
	if periodStart == nil {
		q = q.Where("period_start IS NULL")
	} else {
		q = q.Where("period_start = ?", *periodStart)
	}

	var prog models.BadgeProgress
	if err := q.First(&prog).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &prog, nil
}

func (s *SQLStore) UpsertProgress(p *models.BadgeProgress) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
		return s.DB.Create(p).Error
	}
	return s.DB.Save(p).Error
}

func (s *SQLStore) GetAward(userID, badgeID string) (*models.AwardedBadge, error) {
	var award models.AwardedBadge
	err := s.DB.Where("user_id = ? AND badge_id = ?", userID, badgeID).First(&award).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &award, nil
}

func (s *SQLStore) InsertAward(a *models.AwardedBadge) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return s.DB.Create(a).Error
}

func (s *SQLStore) UpdateAward(a *models.AwardedBadge) error {
	return s.DB.Save(a).Error
}

// IncrementUserBadgePoints is a single UPDATE with a SQL-side addition, so two
// concurrent ingestion paths can both land their deltas without losing one.
func (s *SQLStore) IncrementUserBadgePoints(userID string, delta int) error {
	res := s.DB.Model(&models.UserProfile{}).
		Where("user_id = ?", userID).
		UpdateColumn("badge_points", gorm.Expr("badge_points + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.DB.Create(&models.UserProfile{
			ID:          uuid.NewString(),
			UserID:      userID,
			BadgePoints: delta,
		}).Error
	}
	return nil
}

func (s *SQLStore) HistoryForUser(userID string) ([]models.Activity, error) {
	var acts []models.Activity
	err := s.DB.Where("user_id = ?", userID).
		Order("start_date ASC").
		Find(&acts).Error
	return acts, err
}

func (s *SQLStore) InWindow(from, to time.Time, minElapsed time.Duration) ([]models.Activity, error) {
	var acts []models.Activity
	err := s.DB.Where("start_date >= ? AND start_date < ? AND elapsed_time_seconds >= ?",
		from, to, int64(minElapsed.Seconds())).
		Order("start_date ASC").
		Find(&acts).Error
	return acts, err
}

func (s *SQLStore) ActiveDefinitions() ([]models.BadgeDefinition, error) {
	var defs []models.BadgeDefinition
	err := s.DB.Where("active = ?", true).Order("created_at ASC").Find(&defs).Error
	return defs, err
}

func (s *SQLStore) ByCode(code string) (*models.BadgeDefinition, error) {
	var def models.BadgeDefinition
	err := s.DB.Where("code = ?", code).First(&def).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &def, nil
}
