package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"minigame-arcade/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrGameNotFound = errors.New("game not found")

// ValidationError carries per-field messages; handlers render it as 422.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %v", e.Fields)
}

func (e *ValidationError) add(field, msg string) {
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// LedgerService owns the (user, game) ledger and the account-wide totals.
type LedgerService struct {
	DB     *gorm.DB
	Badges *BadgeService
}

func NewLedgerService(db *gorm.DB, badges *BadgeService) *LedgerService {
	return &LedgerService{DB: db, Badges: badges}
}

// EnsureAccount ensures an Account row exists (idempotent)
func (s *LedgerService) EnsureAccount(externalUserID string) (*models.Account, error) {
	var acct models.Account
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := ensureAccount(tx, externalUserID); err != nil {
			return err
		}
		return tx.Where("external_user_id = ?", externalUserID).First(&acct).Error
	})
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// Join registers the user on a game. A repeat join returns the existing entry
// untouched; a first join creates it with zero points.
func (s *LedgerService) Join(userID, gameID string) (*models.JoinResponse, error) {
	game, err := s.findGame(gameID)
	if err != nil {
		return nil, err
	}

	var (
		entry   models.LedgerEntry
		created bool
	)
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := ensureAccount(tx, userID); err != nil {
			return err
		}
		res, err := ensureEntry(tx, userID, gameID)
		if err != nil {
			return err
		}
		created = res
		return tx.Where("user_id = ? AND game_id = ?", userID, gameID).First(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	if created {
		log.Printf("🎮 [LEDGER] %s joined game %s", userID, gameID)
		s.awardBadges(userID)
		return &models.JoinResponse{
			Message: "Game joined successfully!",
			Game:    game,
		}, nil
	}

	points := entry.Points
	return &models.JoinResponse{
		Message: "You have already joined this game.",
		Game:    game,
		Points:  &points,
	}, nil
}

// ValidatePlayReport checks the wire-level constraints of a play report.
func ValidatePlayReport(points *int64, userPoints *int64) error {
	verr := &ValidationError{}
	if points == nil {
		verr.add("points", "The points field is required.")
	} else if *points < 0 {
		verr.add("points", "The points field must be at least 0.")
	}
	if userPoints != nil && *userPoints < 0 {
		verr.add("user_points", "The user points field must be at least 0.")
	}
	if len(verr.Fields) > 0 {
		return verr
	}
	return nil
}

// ApplyPlay records a play report as one atomic read-modify-write: the entry's
// points are overwritten with report.Points and the account total grows by
// report.Delta(). Concurrent reports for the same key serialize on the row lock.
func (s *LedgerService) ApplyPlay(userID, gameID string, report models.PlayReport) (*models.LedgerEntry, error) {
	if err := ValidatePlayReport(&report.Points, report.UserPoints); err != nil {
		return nil, err
	}
	if _, err := s.findGame(gameID); err != nil {
		return nil, err
	}

	var metadata json.RawMessage
	if report.Metadata != nil {
		raw, err := json.Marshal(report.Metadata)
		if err != nil {
			return nil, &ValidationError{Fields: map[string][]string{"metadata": {"The metadata field must be an object."}}}
		}
		metadata = raw
	}

	delta := report.Delta()
	var updated models.LedgerEntry
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := ensureAccount(tx, userID); err != nil {
			return err
		}
		if _, err := ensureEntry(tx, userID, gameID); err != nil {
			return err
		}

		var entry models.LedgerEntry
		if err := forUpdate(tx).Where("user_id = ? AND game_id = ?", userID, gameID).First(&entry).Error; err != nil {
			return fmt.Errorf("lock ledger entry: %w", err)
		}

		now := time.Now().UTC()
		if err := tx.Model(&entry).Updates(map[string]interface{}{
			"points":    report.Points,
			"played_at": now,
			"metadata":  metadata,
		}).Error; err != nil {
			return fmt.Errorf("update ledger entry: %w", err)
		}

		if delta != 0 {
			if err := tx.Model(&models.Account{}).
				Where("external_user_id = ?", userID).
				UpdateColumn("points", gorm.Expr("points + ?", delta)).Error; err != nil {
				return fmt.Errorf("increment account: %w", err)
			}
		}

		var acct models.Account
		if err := tx.Where("external_user_id = ?", userID).First(&acct).Error; err != nil {
			return fmt.Errorf("reload account: %w", err)
		}

		if err := tx.Where("user_id = ? AND game_id = ?", userID, gameID).First(&updated).Error; err != nil {
			return fmt.Errorf("reload ledger entry: %w", err)
		}
		updated.AccountPoints = acct.Points
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("🎮 [LEDGER] Play recorded: user=%s game=%s points=%d delta=%d total=%d",
		userID, gameID, updated.Points, delta, updated.AccountPoints)

	s.awardBadges(userID)
	return &updated, nil
}

// Entries returns every ledger entry of a user, most recently played first.
func (s *LedgerService) Entries(userID string) ([]models.LedgerEntry, error) {
	var entries []models.LedgerEntry
	err := s.DB.Where("user_id = ?", userID).
		Order("played_at DESC NULLS LAST").
		Find(&entries).Error
	return entries, err
}

func (s *LedgerService) findGame(gameID string) (*models.Game, error) {
	var game models.Game
	if err := s.DB.Preload("Category").First(&game, "id = ?", gameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, err
	}
	return &game, nil
}

func (s *LedgerService) awardBadges(userID string) {
	if s.Badges == nil {
		return
	}
	if err := s.Badges.AutoAwardBadges(userID); err != nil {
		log.Printf("⚠️  [BADGES] Auto-award failed for %s: %v", userID, err)
	}
}

func ensureAccount(tx *gorm.DB, externalUserID string) error {
	acct := models.Account{
		ID:             uuid.NewString(),
		ExternalUserID: externalUserID,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_user_id"}},
		DoNothing: true,
	}).Create(&acct).Error
}

// ensureEntry creates the (user, game) entry with zero points if missing and
// reports whether it did.
func ensureEntry(tx *gorm.DB, userID, gameID string) (bool, error) {
	entry := models.LedgerEntry{UserID: userID, GameID: gameID}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "game_id"}},
		DoNothing: true,
	}).Create(&entry)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// forUpdate adds SELECT ... FOR UPDATE where the dialect supports row locks.
// SQLite serializes writers on its own.
func forUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}
