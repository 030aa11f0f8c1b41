// handlers/admin_routes.go
package handlers

import (
	"errors"
	"strings"

	"community-hub/middleware"
	"community-hub/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ReengageRequest is the optional body of the re-engagement endpoint.
type ReengageRequest struct {
	Subject string `json:"subject" validate:"max=120"`
	Note    string `json:"note" validate:"max=2000"`
}

type AdminDeps struct {
	Churn    *services.ChurnService
	Reengage *services.ReengagementService
	Reports  *services.ReportService
	// RequireAdmin enforces the gateway's admin role. Off for local runs without a gateway.
	RequireAdmin bool
}

func SetupAdminRoutes(app *fiber.App, deps AdminDeps) {
	chain := []fiber.Handler{middleware.UserContextMiddleware()}
	if deps.RequireAdmin {
		chain = append(chain, middleware.RequireRole("admin"))
	}
	admin := app.Group("/s/admin", chain...)

	admin.Get("/members", func(c *fiber.Ctx) error {
		rows := deps.Churn.Members(c.Query("q"))
		return c.JSON(fiber.Map{
			"members": rows,
			"count":   len(rows),
		})
	})

	admin.Get("/stats", func(c *fiber.Ctx) error {
		return c.JSON(deps.Churn.Stats())
	})

	admin.Post("/members/:id/reengage", func(c *fiber.Ctx) error {
		var req ReengageRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid request body",
					"cause": err.Error(),
				})
			}
		}
		req.Subject = strings.TrimSpace(req.Subject)
		req.Note = strings.TrimSpace(req.Note)
		if err := validate.Struct(req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "validation failed",
				"cause": err.Error(),
			})
		}

		member, err := deps.Reengage.Send(c.UserContext(), c.Params("id"), req.Subject, req.Note)
		switch {
		case errors.Is(err, services.ErrMemberNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, services.ErrMemberNotAtRisk):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":  err.Error(),
				"status": member.Status,
			})
		case err != nil:
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "failed to send re-engagement email",
				"cause": err.Error(),
			})
		}

		return c.JSON(fiber.Map{
			"sent":   true,
			"member": member,
		})
	})

	admin.Post("/reports/churn", func(c *fiber.Ctx) error {
		report, err := deps.Reports.ExportChurn(c.UserContext())
		if errors.Is(err, services.ErrReportsDisabled) {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "failed to export churn report",
				"cause": err.Error(),
			})
		}
		return c.Status(fiber.StatusCreated).JSON(report)
	})
}
