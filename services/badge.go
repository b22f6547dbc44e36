package services

import (
	"fmt"

	"minigame-arcade/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeService struct {
	DB *gorm.DB
}

func NewBadgeService(db *gorm.DB) *BadgeService {
	return &BadgeService{DB: db}
}

// EnsureBadgeTypes upserts models.BadgeTriggers by code.
func (s *BadgeService) EnsureBadgeTypes() error {
	for _, trigger := range models.BadgeTriggers {
		bt := trigger
		bt.ID = uuid.NewString()
		if err := s.DB.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "rarity", "threshold"}),
		}).Create(&bt).Error; err != nil {
			return fmt.Errorf("upsert badge %s: %w", trigger.Code, err)
		}
	}
	return nil
}

type badgeStats struct {
	AccountPoints int64
	GamesJoined   int64
	GamesPlayed   int64
}

// AutoAwardBadges checks all badge triggers for a user after a ledger update
func (s *BadgeService) AutoAwardBadges(externalUserID string) error {
	stats, err := s.stats(externalUserID)
	if err != nil {
		return err
	}

	var types []models.BadgeType
	if err := s.DB.Find(&types).Error; err != nil {
		return err
	}

	for _, bt := range types {
		if !meetsThreshold(stats, bt.Threshold) {
			continue
		}
		award := models.UserBadge{
			ID:             uuid.NewString(),
			ExternalUserID: externalUserID,
			BadgeTypeID:    bt.ID,
		}
		res := s.DB.Clauses(clause.OnConflict{DoNothing: true}).Create(&award)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 1 {
			fmt.Printf("🎖️ Badge awarded: %s → %s\n", bt.Name, externalUserID)
		}
	}
	return nil
}

// UserBadges lists awarded badges with their type.
func (s *BadgeService) UserBadges(externalUserID string) ([]models.UserBadge, error) {
	var badges []models.UserBadge
	err := s.DB.Preload("BadgeType").
		Where("external_user_id = ?", externalUserID).
		Order("awarded_at ASC").
		Find(&badges).Error
	return badges, err
}

func (s *BadgeService) stats(externalUserID string) (badgeStats, error) {
	var st badgeStats

	var acct models.Account
	err := s.DB.Where("external_user_id = ?", externalUserID).First(&acct).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return st, err
	}
	st.AccountPoints = acct.Points

	if err := s.DB.Model(&models.LedgerEntry{}).
		Where("user_id = ?", externalUserID).
		Count(&st.GamesJoined).Error; err != nil {
		return st, err
	}
	if err := s.DB.Model(&models.LedgerEntry{}).
		Where("user_id = ? AND played_at IS NOT NULL", externalUserID).
		Count(&st.GamesPlayed).Error; err != nil {
		return st, err
	}
	return st, nil
}

func meetsThreshold(st badgeStats, req map[string]int64) bool {
	if len(req) == 0 {
		return false
	}
	for key, required := range req {
		switch key {
		case models.ThresholdAccountPoints:
			if st.AccountPoints < required {
				return false
			}
		case models.ThresholdGamesJoined:
			if st.GamesJoined < required {
				return false
			}
		case models.ThresholdGamesPlayed:
			if st.GamesPlayed < required {
				return false
			}
		default:
			return false
		}
	}
	return true
}
