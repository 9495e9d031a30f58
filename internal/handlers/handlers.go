package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/foxxcyber/dealer-dashboard/internal/config"
	"github.com/foxxcyber/dealer-dashboard/internal/middleware"
	"github.com/foxxcyber/dealer-dashboard/internal/models"
	"github.com/foxxcyber/dealer-dashboard/internal/services"
)

// Repository is the data access the handlers need; *database.DB implements it.
type Repository interface {
	middleware.UserLookup
	Ping(ctx context.Context) error

	GetUserByID(ctx context.Context, id int) (*models.User, error)
	CreateUser(ctx context.Context, username, passwordHash, storeID string, role models.Role) (*models.User, error)
	UpdateUserLastLogin(ctx context.Context, id int) error
	UpdateUserPassword(ctx context.Context, id int, passwordHash string) error
	ListUsers(ctx context.Context) ([]*models.User, error)
	AdminUpdateUser(ctx context.Context, id int, req *models.AdminUpdateUserRequest, passwordHash string) (*models.User, error)
	DeleteUser(ctx context.Context, id int) error

	ListVehicles(ctx context.Context, params *models.VehicleListParams) ([]*models.VehicleRecord, int, error)
	GetVehicleByID(ctx context.Context, id int, storeID string) (*models.VehicleRecord, error)
	DeleteVehicle(ctx context.Context, id int, storeID string) (*models.VehicleRecord, error)
	RecentVehicles(ctx context.Context, storeID string, limit int) ([]*models.VehicleRecord, error)
	SampleBookValueVehicles(ctx context.Context, storeID string, limit int) ([]*models.VehicleRecord, error)
	ListStoreIDs(ctx context.Context) ([]string, error)

	GetVehicleCounts(ctx context.Context, params *models.StatsParams) (*models.VehicleCounts, error)
	ListBookValuePairs(ctx context.Context, storeID string, since, until time.Time) ([]*models.BookValuePair, error)
}

// Handler holds all handler dependencies
type Handler struct {
	repo    Repository
	cfg     *config.Config
	logger  *zap.Logger
	storage services.ScreenshotStore
	cache   services.StatsCache
	metrics *services.Metrics
	now     func() time.Time
}

// Option configures optional Handler dependencies.
type Option func(*Handler)

// WithStorage enables presigned screenshot URLs.
func WithStorage(s services.ScreenshotStore) Option {
	return func(h *Handler) { h.storage = s }
}

// WithStatsCache enables statistics caching.
func WithStatsCache(c services.StatsCache) Option {
	return func(h *Handler) { h.cache = c }
}

// WithMetrics enables login and cache metrics.
func WithMetrics(m *services.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// New creates a new Handler instance
func New(repo Repository, cfg *config.Config, logger *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
		cache:  services.NoopStatsCache{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ErrorHandler is a custom error handler for Fiber
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
		if code == fiber.StatusNotFound && message == "Cannot "+c.Method()+" "+c.Path() {
			message = "Endpoint not found"
		}
	}

	return c.Status(code).JSON(APIResponse{
		Success: false,
		Error:   message,
	})
}

// APIResponse is the error envelope. Successful responses use the
// per-endpoint types in models, which all carry success=true.
type APIResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

// Error returns an error response
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(APIResponse{
		Success: false,
		Error:   message,
		Detail:  message,
	})
}

// storeScope resolves the store a request may see. Admins may ask for any
// store or none (all stores); everyone else is pinned to their own store.
func storeScope(c *fiber.Ctx) (string, error) {
	user := middleware.GetUser(c)
	if user == nil {
		return "", fiber.NewError(fiber.StatusForbidden, middleware.DetailNotAuthenticated)
	}
	requested := c.Query("store_id")
	if user.IsAdmin() {
		return requested, nil
	}
	if requested != "" && requested != user.StoreID {
		return "", fiber.NewError(fiber.StatusForbidden, "store access denied")
	}
	return user.StoreID, nil
}

func (h *Handler) countLogin(result string) {
	if h.metrics != nil {
		h.metrics.LoginAttempts.WithLabelValues(result).Inc()
	}
}

func (h *Handler) countCache(outcome string) {
	if h.metrics != nil {
		h.metrics.StatsCacheHits.WithLabelValues(outcome).Inc()
	}
}
