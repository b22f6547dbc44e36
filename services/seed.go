package services

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"

	"minigame-arcade/models"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed seed/catalog.yaml
var defaultCatalogSeed []byte

type catalogSeed struct {
	Categories []struct {
		Name string `yaml:"name"`
	} `yaml:"categories"`
	Games []struct {
		Name        string         `yaml:"name"`
		Category    string         `yaml:"category"`
		Description string         `yaml:"description"`
		Status      string         `yaml:"status"`
		Rules       map[string]any `yaml:"rules"`
	} `yaml:"games"`
}

// SeedCatalog loads the embedded catalog seed.
func SeedCatalog(db *gorm.DB) error {
	return SeedCatalogFrom(db, defaultCatalogSeed)
}

// SeedCatalogFrom inserts the categories and games described by a YAML
// document. Rows are matched by slug, so reseeding never duplicates or
// overwrites existing games.
func SeedCatalogFrom(db *gorm.DB, data []byte) error {
	var seed catalogSeed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse catalog seed: %w", err)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		categoryIDs := map[string]string{}
		for _, c := range seed.Categories {
			cat := models.Category{ID: uuid.NewString(), Name: c.Name, Slug: slug.Make(c.Name)}
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "slug"}},
				DoNothing: true,
			}).Create(&cat).Error; err != nil {
				return fmt.Errorf("seed category %s: %w", c.Name, err)
			}
			var stored models.Category
			if err := tx.Where("slug = ?", cat.Slug).First(&stored).Error; err != nil {
				return err
			}
			categoryIDs[c.Name] = stored.ID
		}

		for _, g := range seed.Games {
			rules, err := json.Marshal(g.Rules)
			if err != nil {
				return fmt.Errorf("seed game %s rules: %w", g.Name, err)
			}
			game := models.Game{
				ID:          uuid.NewString(),
				Name:        g.Name,
				Slug:        slug.Make(g.Name),
				Description: g.Description,
				Rules:       rules,
				Status:      g.Status,
			}
			if game.Status == "" {
				game.Status = models.GameStatusDraft
			}
			if id, ok := categoryIDs[g.Category]; ok {
				game.CategoryID = &id
			}
			res := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "slug"}},
				DoNothing: true,
			}).Create(&game)
			if res.Error != nil {
				return fmt.Errorf("seed game %s: %w", g.Name, res.Error)
			}
			if res.RowsAffected == 1 {
				log.Printf("🌱 [SEED] Added game %s", g.Name)
			}
		}
		return nil
	})
}
