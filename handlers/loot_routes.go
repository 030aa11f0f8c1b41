// handlers/loot_routes.go
package handlers

import (
	"errors"

	"community-hub/middleware"
	"community-hub/services"

	"github.com/gofiber/fiber/v2"
)

func SetupLootRoutes(app *fiber.App, sessions *services.SessionRegistry) {
	secured := app.Group("/s/loot", middleware.UserContextMiddleware())

	secured.Get("/", func(c *fiber.Ctx) error {
		s := sessions.Get(c.UserContext(), middleware.UserID(c))
		return c.JSON(s.Loot.Snapshot())
	})

	secured.Post("/claim", func(c *fiber.Ctx) error {
		s := sessions.Get(c.UserContext(), middleware.UserID(c))

		claim, err := s.Loot.Claim(c.UserContext())
		switch {
		case errors.Is(err, services.ErrAlreadyClaimed), errors.Is(err, services.ErrClaimInProgress):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": err.Error(),
				"loot":  s.Loot.Snapshot(),
			})
		case err != nil:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to claim daily loot",
				"cause": err.Error(),
				"loot":  s.Loot.Snapshot(),
			})
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"claim": claim,
			"loot":  s.Loot.Snapshot(),
		})
	})
}
