package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// LedgerEntry is the per-(user, game) score record. Points holds the running
// session total reported by the client and is overwritten on every play.
type LedgerEntry struct {
	UserID   string          `gorm:"primaryKey" json:"user_id"`
	GameID   string          `gorm:"primaryKey" json:"game_id"`
	Points   int64           `gorm:"not null;default:0" json:"points"`
	PlayedAt *time.Time      `json:"played_at,omitempty"`
	Metadata json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`

	// Filled by the ledger after a play; not a column.
	AccountPoints int64 `gorm:"-" json:"account_points"`

	Timestamps
}

func (LedgerEntry) TableName() string { return "game_users" }

// Account holds the account-wide points total. It only moves by the deltas
// carried in play reports, never by a ledger entry's absolute value.
type Account struct {
	ID             string `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"` // links to the auth provider's subject
	Points         int64  `gorm:"not null;default:0" json:"points"`

	Timestamps
}

// PlayReport is the body of POST /games/:id/play.
//
// Points is the absolute per-game total (overwrites the entry). UserPoints is
// the delta added to the account; when absent, Points is used as the delta.
type PlayReport struct {
	Points     int64          `json:"points"`
	UserPoints *int64         `json:"user_points,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Delta returns the amount the account total moves by for this report.
func (r PlayReport) Delta() int64 {
	if r.UserPoints != nil {
		return *r.UserPoints
	}
	return r.Points
}

// JoinResponse is returned by POST /games/:id/join. Points is only present
// when the user had already joined.
type JoinResponse struct {
	Message string `json:"message"`
	Game    *Game  `json:"game"`
	Points  *int64 `json:"points,omitempty"`
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
