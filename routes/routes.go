package routes

import (
	"app/handlers"
	"app/middleware"

	"github.com/gofiber/fiber/v2"
)

// SetupRoutes defines all the routes for the application.
func SetupRoutes(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api/v1")

	// --- Analytics Routes ---
	analytics := api.Group("/analytics", middleware.Authenticate)

	analytics.Get("/forecast", handlers.HandleGetForecast)

	analytics.Get("/pricing/anomalies", handlers.HandleGetPricingAnomalies)
	analytics.Get("/pricing/elasticity", handlers.HandleGetPriceElasticity)
	analytics.Get("/pricing/range", handlers.HandleGetPriceRange)

	analytics.Get("/reorder", handlers.HandleGetReorderPlan)

	analytics.Get("/margins", handlers.HandleGetMarginAnalysis)
}
