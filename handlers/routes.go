// handlers/routes.go
package handlers

import (
	"minigame-arcade/middleware"
	"minigame-arcade/services"

	"github.com/gofiber/fiber/v2"
)

// SetupCatalogRoutes mounts the catalog on a router that already runs BearerAuth.
func SetupCatalogRoutes(router fiber.Router, catalog *services.CatalogService) {
	router.Get("/categories", catalog.GetCategories)
	router.Get("/games", catalog.GetAllGames)
	router.Get("/games/:id", catalog.GetGameByID)

	// 🔐 Admin-only catalog management
	admin := router.Group("/admin", middleware.RequireRole("admin"))
	admin.Post("/games", catalog.CreateGame)
	admin.Put("/games/:id", catalog.UpdateGame)
	admin.Patch("/games/:id", catalog.UpdateGame)
	admin.Delete("/games/:id", catalog.DeleteGame)
}

// SetupLedgerRoutes mounts join and play reporting.
func SetupLedgerRoutes(router fiber.Router, ledger *services.LedgerService) {
	router.Post("/games/:id/join", ledger.JoinGame)
	router.Post("/games/:id/play", ledger.PlayGame)
}
