package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/dealer-dashboard/internal/middleware"
	"github.com/foxxcyber/dealer-dashboard/internal/models"
)

// ListStores returns the stores the caller may view. Admins see every store
// that has vehicle records plus their own; others see only their own.
func (h *Handler) ListStores(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return Error(c, fiber.StatusForbidden, middleware.DetailNotAuthenticated)
	}

	if !user.IsAdmin() {
		return c.JSON(models.StoresResponse{
			Success: true,
			Stores:  []*models.Store{{ID: user.StoreID}},
		})
	}

	ids, err := h.repo.ListStoreIDs(c.Context())
	if err != nil {
		h.logger.Error("list stores failed", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to list stores")
	}

	stores := make([]*models.Store, 0, len(ids)+1)
	seen := map[string]bool{}
	for _, id := range ids {
		seen[id] = true
		stores = append(stores, &models.Store{ID: id})
	}
	if user.StoreID != "" && !seen[user.StoreID] {
		stores = append(stores, &models.Store{ID: user.StoreID})
	}

	return c.JSON(models.StoresResponse{Success: true, Stores: stores})
}
