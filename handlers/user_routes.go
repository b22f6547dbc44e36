// handlers/user_routes.go
package handlers

import (
	"minigame-arcade/middleware"
	"minigame-arcade/services"

	"github.com/gofiber/fiber/v2"
)

func SetupUserRoutes(router fiber.Router, ledger *services.LedgerService, badges *services.BadgeService) {
	router.Get("/user", func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)

		acct, err := ledger.EnsureAccount(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load account",
				"cause": err.Error(),
			})
		}

		entries, err := ledger.Entries(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to load games",
				"cause": err.Error(),
			})
		}

		userBadges, err := badges.UserBadges(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to get badges",
				"cause": err.Error(),
			})
		}

		var badgeList []fiber.Map
		for _, ub := range userBadges {
			badgeList = append(badgeList, fiber.Map{
				"id":          ub.ID,
				"code":        ub.BadgeType.Code,
				"name":        ub.BadgeType.Name,
				"description": ub.BadgeType.Description,
				"icon_url":    ub.BadgeType.IconURL,
				"rarity":      ub.BadgeType.Rarity,
				"awarded_at":  ub.AwardedAt,
			})
		}

		return c.JSON(fiber.Map{
			"id":     acct.ExternalUserID,
			"points": acct.Points,
			"games":  entries,
			"badges": badgeList,
			"roles":  c.Locals(middleware.LocalUserRoles),
		})
	})
}
