package services

import (
	"encoding/json"
	"errors"
	"log"
	"strings"

	"minigame-arcade/models"

	"github.com/gofiber/fiber/v2"
)

// playRequest mirrors models.PlayReport with Points optional so a missing
// field can be reported instead of defaulting to zero.
type playRequest struct {
	Points     *int64         `json:"points"`
	UserPoints *int64         `json:"user_points"`
	Metadata   map[string]any `json:"metadata"`
}

// JoinGame handles POST /games/:id/join
func (s *LedgerService) JoinGame(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	resp, err := s.Join(userID, c.Params("id"))
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(resp)
}

// PlayGame handles POST /games/:id/play
func (s *LedgerService) PlayGame(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)

	var req playRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": decodeErrors(err)})
	}
	if err := ValidatePlayReport(req.Points, req.UserPoints); err != nil {
		return ledgerError(c, err)
	}

	entry, err := s.ApplyPlay(userID, c.Params("id"), models.PlayReport{
		Points:     *req.Points,
		UserPoints: req.UserPoints,
		Metadata:   req.Metadata,
	})
	if err != nil {
		return ledgerError(c, err)
	}
	return c.JSON(entry)
}

// decodeErrors names the field a play body failed to decode on.
func decodeErrors(err error) map[string][]string {
	var typeErr *json.UnmarshalTypeError
	if !errors.As(err, &typeErr) || typeErr.Field == "" {
		return map[string][]string{"body": {"The request body must be a valid JSON object."}}
	}
	field, _, _ := strings.Cut(typeErr.Field, ".")
	switch field {
	case "points", "user_points":
		return map[string][]string{field: {"The " + field + " field must be an integer."}}
	case "metadata":
		return map[string][]string{field: {"The metadata field must be an object."}}
	default:
		return map[string][]string{field: {"The " + field + " field is invalid."}}
	}
}

func ledgerError(c *fiber.Ctx, err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"errors": verr.Fields})
	case errors.Is(err, ErrGameNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "game not found"})
	default:
		log.Printf("❌ [LEDGER] %s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "ledger update failed",
			"cause": err.Error(),
		})
	}
}
