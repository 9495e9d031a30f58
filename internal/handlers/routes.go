package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/dealer-dashboard/internal/middleware"
)

// SetupRoutes registers the data service routes on app
func SetupRoutes(app *fiber.App, h *Handler) {
	app.Get("/health", h.Health)

	api := app.Group("/api")

	// Auth routes (public)
	api.Post("/signup", h.Signup)
	api.Post("/login", h.Login)

	auth := middleware.AuthRequired(h.cfg, h.repo)
	api.Get("/me", auth, h.Me)

	api.Get("/statistics", auth, h.GetStatistics)
	api.Get("/vehicles", auth, h.ListVehicles)
	api.Get("/vehicle/:id", auth, h.GetVehicle)
	api.Delete("/vehicle/:id", auth, h.DeleteVehicle)
	api.Get("/stores", auth, h.ListStores)
	api.Get("/recent-activity", auth, h.RecentActivity)

	// Admin routes
	api.Get("/debug/book-values", auth, middleware.AdminRequired(), h.DebugBookValues)

	admin := api.Group("/admin", auth, middleware.AdminRequired())
	admin.Get("/users", h.AdminListUsers)
	admin.Post("/users", h.AdminCreateUser)
	admin.Put("/users/:id", h.AdminUpdateUser)
	admin.Delete("/users/:id", h.AdminDeleteUser)
}

// Health reports service and database liveness
func (h *Handler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	status := "healthy"
	code := fiber.StatusOK
	if err := h.repo.Ping(ctx); err != nil {
		h.logger.Warn("health check database ping failed", zap.Error(err))
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"timestamp": h.now().UTC().Format(time.RFC3339),
	})
}
