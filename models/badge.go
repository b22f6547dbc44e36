package models

import (
	"time"
)

// BadgeType: static config, upserted by code at startup
type BadgeType struct {
	ID          string           `gorm:"primaryKey;type:uuid" json:"id"`
	Code        string           `gorm:"uniqueIndex;not null" json:"code"` // e.g., "FIRST_PLAY", "POINTS_100"
	Name        string           `gorm:"not null" json:"name"`
	Description string           `json:"description"`
	IconURL     string           `gorm:"type:text" json:"icon_url,omitempty"`
	Rarity      string           `gorm:"type:varchar(16);default:'common'" json:"rarity"` // common, rare, epic, legendary
	Threshold   map[string]int64 `gorm:"serializer:json" json:"threshold"`                // e.g., {"account_points": 100}
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

// UserBadge: awarded instance, at most one per (user, badge type)
type UserBadge struct {
	ID             string    `gorm:"primaryKey;type:uuid" json:"id"`
	ExternalUserID string    `gorm:"uniqueIndex:idx_user_badge;not null" json:"external_user_id"`
	BadgeTypeID    string    `gorm:"uniqueIndex:idx_user_badge;not null" json:"badge_type_id"`
	BadgeType      BadgeType `gorm:"foreignKey:BadgeTypeID" json:"badge_type"`
	AwardedAt      time.Time `gorm:"autoCreateTime" json:"awarded_at"`
}

// Threshold keys understood by the badge service.
const (
	ThresholdAccountPoints = "account_points"
	ThresholdGamesPlayed   = "games_played"
	ThresholdGamesJoined   = "games_joined"
)

// BadgeTriggers are the milestone badges the platform awards.
var BadgeTriggers = []BadgeType{
	{
		Code:        "WELCOME",
		Name:        "Welcome Aboard!",
		Description: "Joined your first game",
		Rarity:      "common",
		Threshold:   map[string]int64{ThresholdGamesJoined: 1},
	},
	{
		Code:        "FIRST_PLAY",
		Name:        "First Blood",
		Description: "Reported your first play",
		Rarity:      "common",
		Threshold:   map[string]int64{ThresholdGamesPlayed: 1},
	},
	{
		Code:        "ALL_ROUNDER",
		Name:        "All-Rounder",
		Description: "Played two different games",
		Rarity:      "rare",
		Threshold:   map[string]int64{ThresholdGamesPlayed: 2},
	},
	{
		Code:        "POINTS_100",
		Name:        "Century",
		Description: "Reached 100 points",
		Rarity:      "rare",
		Threshold:   map[string]int64{ThresholdAccountPoints: 100},
	},
	{
		Code:        "POINTS_1000",
		Name:        "High Roller",
		Description: "Reached 1000 points",
		Rarity:      "epic",
		Threshold:   map[string]int64{ThresholdAccountPoints: 1000},
	},
}
