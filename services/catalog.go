package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"minigame-arcade/models"
	"minigame-arcade/play"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// ImageUploader stores a game image and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, fileHeader *multipart.FileHeader, key string) (string, error)
}

type CatalogService struct {
	DB     *gorm.DB
	Images ImageUploader
}

func NewCatalogService(db *gorm.DB, images ImageUploader) *CatalogService {
	return &CatalogService{DB: db, Images: images}
}

// GetAllGames returns published games with their category
func (s *CatalogService) GetAllGames(c *fiber.Ctx) error {
	var games []models.Game
	if err := s.DB.Preload("Category").
		Where("status = ?", models.GameStatusPublished).
		Order("name ASC").
		Find(&games).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch games"})
	}
	return c.JSON(games)
}

// GetGameByID returns a single game definition, rules included. Only admins
// see draft and scheduled games.
func (s *CatalogService) GetGameByID(c *fiber.Ctx) error {
	id := c.Params("id")

	query := s.DB.Preload("Category")
	if !hasRole(c, "admin") {
		query = query.Where("status = ?", models.GameStatusPublished)
	}
	var game models.Game
	if err := query.First(&game, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	return c.JSON(game)
}

func hasRole(c *fiber.Ctx, role string) bool {
	roles, _ := c.Locals("user_roles").([]string)
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// GetCategories lists all categories
func (s *CatalogService) GetCategories(c *fiber.Ctx) error {
	var categories []models.Category
	if err := s.DB.Order("name ASC").Find(&categories).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to fetch categories"})
	}
	return c.JSON(categories)
}

// CreateGame creates a game from a multipart form (name, description,
// category_id, rules, status, publish_at, image).
func (s *CatalogService) CreateGame(c *fiber.Ctx) error {
	game := &models.Game{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(c.FormValue("name")),
		Description: c.FormValue("description"),
		Status:      models.GameStatusDraft,
	}

	verr := &ValidationError{}
	if game.Name == "" {
		verr.add("name", "The name field is required.")
	} else if len(game.Name) > 255 {
		verr.add("name", "The name field must not be greater than 255 characters.")
	}
	if err := s.applyCategory(game, c.FormValue("category_id"), verr); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	applyRules(game, c.FormValue("rules"), verr)
	applyStatus(game, c.FormValue("status"), c.FormValue("publish_at"), verr)
	if len(verr.Fields) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": verr.Fields})
	}

	gameSlug, err := s.uniqueSlug(game.Name, "")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	game.Slug = gameSlug

	if err := s.uploadImage(c, game); err != nil {
		return imageError(c, err)
	}

	if err := s.DB.Create(game).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create game", "cause": err.Error()})
	}

	log.Printf("✅ [CATALOG] Created game %s (%s)", game.Name, game.ID)
	return c.Status(fiber.StatusCreated).JSON(game)
}

// UpdateGame applies the provided form fields; absent fields keep their value.
func (s *CatalogService) UpdateGame(c *fiber.Ctx) error {
	id := c.Params("id")

	var game models.Game
	if err := s.DB.First(&game, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	verr := &ValidationError{}
	renamed := false
	if name := strings.TrimSpace(c.FormValue("name")); name != "" && name != game.Name {
		renamed = true
		game.Name = name
		newSlug, err := s.uniqueSlug(name, game.ID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
		}
		game.Slug = newSlug
	}
	if desc := c.FormValue("description"); desc != "" {
		game.Description = desc
	}
	if err := s.applyCategory(&game, c.FormValue("category_id"), verr); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}
	if raw := c.FormValue("rules"); raw != "" {
		applyRules(&game, raw, verr)
	} else if renamed {
		checkPlayable(&game, verr)
	}
	if status := c.FormValue("status"); status != "" {
		applyStatus(&game, status, c.FormValue("publish_at"), verr)
	}
	if len(verr.Fields) > 0 {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": verr.Fields})
	}

	if err := s.uploadImage(c, &game); err != nil {
		return imageError(c, err)
	}

	if err := s.DB.Save(&game).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "update failed", "cause": err.Error()})
	}
	return c.JSON(game)
}

// DeleteGame soft-deletes a game. Ledger entries are kept.
func (s *CatalogService) DeleteGame(c *fiber.Ctx) error {
	id := c.Params("id")

	var game models.Game
	if err := s.DB.First(&game, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "game not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "DB error"})
	}

	if err := s.DB.Delete(&game).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to delete game"})
	}

	return c.JSON(fiber.Map{
		"message": "Game deleted successfully",
		"id":      id,
	})
}

func (s *CatalogService) applyCategory(game *models.Game, categoryID string, verr *ValidationError) error {
	if categoryID == "" {
		return nil
	}
	var count int64
	if err := s.DB.Model(&models.Category{}).Where("id = ?", categoryID).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		verr.add("category_id", "The selected category id is invalid.")
		return nil
	}
	game.CategoryID = &categoryID
	return nil
}

// applyRules stores raw as the game's rules, then checks the game is still
// playable.
func applyRules(game *models.Game, raw string, verr *ValidationError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		game.Rules = nil
	} else {
		if !json.Valid([]byte(raw)) {
			verr.add("rules", "The rules field must be a valid JSON string.")
			return
		}
		game.Rules = json.RawMessage(raw)
	}
	checkPlayable(game, verr)
}

// checkPlayable requires a game named after a known play variant to carry
// rules that variant accepts.
func checkPlayable(game *models.Game, verr *ValidationError) {
	if !play.DefaultRegistry.Has(game.Name) {
		return
	}
	if _, err := play.DefaultRegistry.New(game.Name, game.Rules); err != nil {
		verr.add("rules", err.Error())
	}
}

func applyStatus(game *models.Game, status, publishAt string, verr *ValidationError) {
	switch status {
	case "":
		return
	case models.GameStatusDraft, models.GameStatusPublished:
		game.Status = status
		game.PublishAt = nil
	case models.GameStatusScheduled:
		if publishAt == "" {
			verr.add("publish_at", "publish_at is required for scheduled status")
			return
		}
		at, err := time.Parse(time.RFC3339, publishAt)
		if err != nil {
			verr.add("publish_at", "invalid publish_at, use RFC3339 (e.g., 2025-12-31T23:00:00Z)")
			return
		}
		game.Status = models.GameStatusScheduled
		game.PublishAt = &at
	default:
		verr.add("status", "invalid status (use: draft, scheduled, published)")
	}
}

// uniqueSlug slugifies name, suffixing it when another game already uses it.
func (s *CatalogService) uniqueSlug(name, selfID string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "game"
	}
	var count int64
	q := s.DB.Unscoped().Model(&models.Game{}).Where("slug = ?", base)
	if selfID != "" {
		q = q.Where("id <> ?", selfID)
	}
	if err := q.Count(&count).Error; err != nil {
		return "", err
	}
	if count == 0 {
		return base, nil
	}
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8]), nil
}

func (s *CatalogService) uploadImage(c *fiber.Ctx, game *models.Game) error {
	file, err := c.FormFile("image")
	if err != nil || file.Size == 0 {
		return nil
	}
	if s.Images == nil {
		return errors.New("image storage is not configured")
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png":
	default:
		return &ValidationError{Fields: map[string][]string{"image": {"The image must be a file of type: jpg, jpeg, png."}}}
	}
	if file.Size > 2*1024*1024 {
		return &ValidationError{Fields: map[string][]string{"image": {"The image must not be greater than 2048 kilobytes."}}}
	}

	url, err := s.Images.Upload(c.UserContext(), file, "games/"+uuid.NewString()+ext)
	if err != nil {
		return err
	}
	game.ImageURL = url
	return nil
}

func imageError(c *fiber.Ctx, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": verr.Fields})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to upload image", "cause": err.Error()})
}
