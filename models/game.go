// models/game.go
package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

const (
	GameStatusDraft     = "draft"
	GameStatusScheduled = "scheduled"
	GameStatusPublished = "published"
)

// Game is a catalog entry. Rules is a variant-specific JSON payload that the
// play engine parses once per session.
type Game struct {
	ID          string          `json:"id" gorm:"primaryKey"`
	Name        string          `json:"name" gorm:"not null"`
	Slug        string          `json:"slug" gorm:"uniqueIndex;not null"`
	Description string          `json:"description"`
	Rules       json.RawMessage `json:"rules" gorm:"type:jsonb"`

	CategoryID *string   `json:"category_id,omitempty" gorm:"index"`
	Category   *Category `json:"category,omitempty" gorm:"foreignKey:CategoryID"`

	// 🖼️ Media
	ImageURL string `json:"image_url,omitempty"`

	// 🎛️ Publishing state
	Status    string     `json:"status" gorm:"default:'draft'"` // draft | scheduled | published
	PublishAt *time.Time `json:"publish_at,omitempty"`          // only used if scheduled

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

type Category struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"not null"`
	Slug      string    `json:"slug" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
