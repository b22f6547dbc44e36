// middleware/auth.go
package middleware

import (
	"errors"
	"log"
	"strings"

	"minigame-arcade/services"

	"github.com/gofiber/fiber/v2"
)

const (
	LocalUserID    = "user_id"
	LocalUserRoles = "user_roles"
)

// BearerAuth validates "Authorization: Bearer <token>" with the given validator
// and attaches the caller's identity to the request locals.
func BearerAuth(validator services.TokenValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			log.Printf("🚫 [AUTH] Missing Authorization header for %s", c.Path())
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthenticated",
			})
		}

		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" || token == authHeader {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthenticated",
			})
		}

		resp, err := validator.ValidateToken(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, services.ErrInvalidToken) {
				log.Printf("❌ [AUTH] Rejected token for %s (prefix: %.10s...)", c.Path(), token)
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Unauthenticated",
				})
			}
			log.Printf("❌ [AUTH] Validator error for %s: %v", c.Path(), err)
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "auth provider unavailable",
				"cause": err.Error(),
			})
		}

		c.Locals(LocalUserID, resp.UserID)
		c.Locals(LocalUserRoles, resp.Roles)
		return c.Next()
	}
}

// RequireRole rejects callers whose validated roles do not include role.
// Must run after BearerAuth.
func RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		roles, _ := c.Locals(LocalUserRoles).([]string)
		for _, r := range roles {
			if r == role {
				return c.Next()
			}
		}
		log.Printf("🚫 [AUTH] User %v lacks role %q for %s", c.Locals(LocalUserID), role, c.Path())
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "forbidden",
		})
	}
}

// UserID returns the authenticated user id set by BearerAuth.
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}
