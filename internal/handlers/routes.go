package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the API under /api/v1.
func RegisterRoutes(app *fiber.App, evaluate *EvaluationHandler, results *ResultHandler) {
	api := app.Group("/api/v1")

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now(),
		})
	})

	api.Post("/evaluate", evaluate.HandleEvaluate)
	api.Post("/evaluations", evaluate.HandleEnqueue)
	api.Get("/evaluations/:id", results.HandleGetResult)
	api.Get("/evaluations/:id/report", results.HandleDownloadReport)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "SmartHire Resume Matcher API",
			"endpoints": []string{
				"GET /api/v1/health",
				"POST /api/v1/evaluate",
				"POST /api/v1/evaluations",
				"GET /api/v1/evaluations/:id",
				"GET /api/v1/evaluations/:id/report",
				"GET /metrics",
			},
		})
	})
}
