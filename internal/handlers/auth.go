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

const errIncorrectLogin = "Incorrect username or password"

// Signup handles user registration
func (h *Handler) Signup(c *fiber.Ctx) error {
	var req models.SignupRequest
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
	if req.StoreID == "" || len(req.StoreID) > 100 {
		return Error(c, fiber.StatusBadRequest, "store_id must be between 1 and 100 characters")
	}

	hashed, err := services.HashPassword(req.Password)
	if err != nil {
		return Error(c, fiber.StatusInternalServerError, "failed to process password")
	}

	user, err := h.repo.CreateUser(c.Context(), req.Username, hashed, req.StoreID, models.RoleUser)
	if err != nil {
		if errors.Is(err, database.ErrUsernameExists) {
			return Error(c, fiber.StatusBadRequest, "Username already registered")
		}
		h.logger.Error("create user failed", zap.String("username", req.Username), zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "failed to create user")
	}

	h.logger.Info("user registered", zap.String("username", user.Username), zap.String("store_id", user.StoreID))
	return c.JSON(user.ToResponse())
}

// Login handles user authentication
func (h *Handler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return Error(c, fiber.StatusBadRequest, "username and password are required")
	}

	user, err := h.repo.GetUserByUsername(c.Context(), req.Username)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			h.countLogin("rejected")
			return h.rejectLogin(c)
		}
		h.countLogin("error")
		h.logger.Error("load user failed", zap.String("username", req.Username), zap.Error(err))
		return Error(c, fiber.StatusInternalServerError, "authentication failed")
	}

	ok, needsUpgrade := services.CheckPassword(user.PasswordHash, req.Password)
	if !ok || !user.IsActive {
		h.countLogin("rejected")
		return h.rejectLogin(c)
	}

	if needsUpgrade {
		if hashed, err := services.HashPassword(req.Password); err == nil {
			if err := h.repo.UpdateUserPassword(c.Context(), user.ID, hashed); err != nil {
				h.logger.Warn("password upgrade failed", zap.Int("user_id", user.ID), zap.Error(err))
			} else {
				h.logger.Info("upgraded legacy password hash", zap.Int("user_id", user.ID))
			}
		}
	}

	if err := h.repo.UpdateUserLastLogin(c.Context(), user.ID); err != nil {
		h.logger.Warn("update last login failed", zap.Int("user_id", user.ID), zap.Error(err))
	}

	token, err := middleware.GenerateToken(h.cfg, user, h.now())
	if err != nil {
		h.countLogin("error")
		return Error(c, fiber.StatusInternalServerError, "failed to generate token")
	}

	h.countLogin("success")
	return c.JSON(models.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Me returns the current user
func (h *Handler) Me(c *fiber.Ctx) error {
	user := middleware.GetUser(c)
	if user == nil {
		return Error(c, fiber.StatusForbidden, middleware.DetailNotAuthenticated)
	}
	return c.JSON(user.ToResponse())
}

func (h *Handler) rejectLogin(c *fiber.Ctx) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return Error(c, fiber.StatusUnauthorized, errIncorrectLogin)
}
