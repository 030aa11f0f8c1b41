package handlers

import (
	"community-hub/services"

	"github.com/gofiber/fiber/v2"
)

func SetupHealthRoutes(app *fiber.App, sessions *services.SessionRegistry) {
	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "ok",
			"sessions": sessions.Len(),
			"streams":  ActiveQuestStreams(),
		})
	})
}
