package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/dealer-dashboard/internal/database"
	"github.com/foxxcyber/dealer-dashboard/internal/middleware"
	"github.com/foxxcyber/dealer-dashboard/internal/models"
	"github.com/foxxcyber/dealer-dashboard/internal/services"
)

// AdminCreateUser creates a dashboard account for any store (admin only)
func (h *Handler) AdminCreateUser(c *fiber.Ctx) error {
	var req models.AdminCreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	req.Username = strings.TrimSpace(req.Username)
	req.StoreID = strings.TrimSpace(req.StoreID)

	if len(req.Username) < 3 || len(req.Username) > 50 {
		return Error(c, fiber.StatusBadRequest, "username must be between 3 and 50 characters")
	}
	if len(req.Password) < 6 {
		return Error(c, fiber.StatusBadRequest, "password must be at least 6 characters")
	}
	if req.StoreID == "" {
		return Error(c, fiber.StatusBadRequest, "store_id is required")
	}
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	if !req.Role.Valid() {
		return Error(c, fiber.StatusBadRequest, "invalid role")
	}
	if req.Role == models.RoleSuperAdmin && middleware.GetUser(c).Role != models.RoleSuperAdmin {
		return Error(c, fiber.StatusForbidden, "only a super admin can create super admins")
	}

	hashed, err := services.HashPassword(req.Password)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to hash password")
	}

	user, err := h.repo.CreateUser(c.Context(), req.Username, hashed, req.StoreID, req.Role)
	if err != nil {
		if errors.Is(err, database.ErrUsernameExists) {
			return Error(c, fiber.StatusConflict, "username already taken")
		}
		h.logger.Error("admin create user failed", zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to create user")
	}

	return c.Status(fiber.StatusCreated).JSON(user.ToResponse())
}

// AdminListUsers returns every dashboard account
func (h *Handler) AdminListUsers(c *fiber.Ctx) error {
	users, err := h.repo.ListUsers(c.Context())
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to list users")
	}

	out := make([]*models.UserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, u.ToResponse())
	}
	return c.JSON(fiber.Map{
		"success": true,
		"users":   out,
	})
}

// AdminUpdateUser changes a user's store, role, active flag or password
func (h *Handler) AdminUpdateUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid user id")
	}

	var req models.AdminUpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Role != nil && !req.Role.Valid() {
		return Error(c, fiber.StatusBadRequest, "invalid role")
	}
	if req.StoreID != nil && strings.TrimSpace(*req.StoreID) == "" {
		return Error(c, fiber.StatusBadRequest, "store_id cannot be empty")
	}

	current := middleware.GetUser(c)
	isSuper := current != nil && current.Role == models.RoleSuperAdmin
	if req.Role != nil && *req.Role == models.RoleSuperAdmin && !isSuper {
		return Error(c, fiber.StatusForbidden, "only a super admin can grant super admin")
	}
	if current != nil && current.ID == id {
		if req.Role != nil && *req.Role != current.Role {
			return Error(c, fiber.StatusBadRequest, "cannot change your own role")
		}
		if req.IsActive != nil && !*req.IsActive {
			return Error(c, fiber.StatusBadRequest, "cannot deactivate your own account")
		}
	}

	target, err := h.repo.GetUserByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return Error(c, fiber.StatusNotFound, "user not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to load user")
	}
	if target.Role == models.RoleSuperAdmin && !isSuper {
		return Error(c, fiber.StatusForbidden, "only a super admin can modify a super admin")
	}

	var hashed string
	if req.Password != nil {
		if len(*req.Password) < 6 {
			return Error(c, fiber.StatusBadRequest, "password must be at least 6 characters")
		}
		if hashed, err = services.HashPassword(*req.Password); err != nil {
			return Error(c, fiber.StatusInternalServerError, "failed to hash password")
		}
	}

	user, err := h.repo.AdminUpdateUser(c.Context(), id, &req, hashed)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return Error(c, fiber.StatusNotFound, "user not found")
		}
		h.logger.Error("admin update user failed", zap.Int("id", id), zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to update user")
	}

	return c.JSON(user.ToResponse())
}

// AdminDeleteUser deletes a user
func (h *Handler) AdminDeleteUser(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid user id")
	}
	if current := middleware.GetUser(c); current != nil && current.ID == id {
		return Error(c, fiber.StatusBadRequest, "cannot delete your own account")
	}

	if err := h.repo.DeleteUser(c.Context(), id); err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return Error(c, fiber.StatusNotFound, "user not found")
		}
		return Error(c, fiber.StatusInternalServerError, "failed to delete user")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "user deleted successfully",
	})
}
