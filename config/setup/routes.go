package setup

import (
	"todolist/app"
	"todolist/handlers"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers all application routes
func RegisterRoutes(fiberApp *fiber.App, application *app.App) {
	fiberApp.Get("/health", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"status": "ok"}) })

	// Content routes: /api/content/<authority>/<path>[/<id>]
	api := fiberApp.Group("/api")
	api.Post("/content/*", handlers.InsertTask(application))
	api.Get("/content/*", handlers.QueryTasks(application))
	api.Put("/content/*", handlers.UpdateTasks(application))
	api.Delete("/content/*", handlers.DeleteTasks(application))
	api.Get("/type/*", handlers.GetType(application))
}
