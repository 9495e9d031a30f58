package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/foxxcyber/dealer-dashboard/internal/config"
	"github.com/foxxcyber/dealer-dashboard/internal/models"
)

// Auth failure details. Dashboard clients match on these strings to detect
// an expired or missing credential, so they must not change.
const (
	DetailNotAuthenticated   = "Not authenticated"
	DetailInvalidCredentials = "Could not validate credentials"
)

// JWTClaims represents the claims in our JWT token
type JWTClaims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// UserLookup loads the account a token refers to.
type UserLookup interface {
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// GenerateToken signs an access token for user. The subject is the username.
func GenerateToken(cfg *config.Config, user *models.User, now time.Time) (string, error) {
	claims := &JWTClaims{
		UserID: user.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.JWTExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// AuthRequired middleware checks for a valid JWT token and an active user
func AuthRequired(cfg *config.Config, users UserLookup) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") || strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer ")) == "" {
			return authError(c, DetailNotAuthenticated)
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			// Validate signing method
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fiber.NewError(fiber.StatusUnauthorized, "invalid signing method")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil {
			return authError(c, DetailInvalidCredentials)
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok || !token.Valid || claims.Subject == "" {
			return authError(c, DetailInvalidCredentials)
		}

		user, err := users.GetUserByUsername(c.Context(), claims.Subject)
		if err != nil || !user.IsActive {
			return authError(c, DetailInvalidCredentials)
		}

		c.Locals("user", user)
		return c.Next()
	}
}

// AdminRequired middleware checks if the user has admin role or higher
func AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := GetUser(c)
		if user == nil {
			return authError(c, DetailNotAuthenticated)
		}
		if !user.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"detail":  "Admin or super admin access required",
			})
		}
		return c.Next()
	}
}

// GetUser returns the authenticated user stored by AuthRequired
func GetUser(c *fiber.Ctx) *models.User {
	if user, ok := c.Locals("user").(*models.User); ok {
		return user
	}
	return nil
}

func authError(c *fiber.Ctx, detail string) error {
	c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"success": false,
		"detail":  detail,
	})
}
