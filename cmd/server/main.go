package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/foxxcyber/dealer-dashboard/internal/config"
	"github.com/foxxcyber/dealer-dashboard/internal/database"
	"github.com/foxxcyber/dealer-dashboard/internal/handlers"
	"github.com/foxxcyber/dealer-dashboard/internal/logging"
	"github.com/foxxcyber/dealer-dashboard/internal/middleware"
	"github.com/foxxcyber/dealer-dashboard/internal/services"
)

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.IsProduction() && cfg.UsesDefaultSecret() {
		log.Fatal("SECRET_KEY must be set in production")
	}
	if cfg.UsesDefaultSecret() {
		log.Warn("using the default SECRET_KEY; set one before deploying")
	}

	ctx := context.Background()

	db, err := database.Connect(cfg.DatabaseURL, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.RunMigrations(ctx, db); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	// Create admin user if it doesn't exist
	if err := database.EnsureAdminUser(ctx, db, cfg); err != nil {
		log.Warn("could not ensure admin user", zap.Error(err))
	}

	metrics := services.NewMetrics()
	opts := []handlers.Option{handlers.WithMetrics(metrics)}

	if cfg.RedisURL != "" {
		cache, err := services.NewRedisStatsCache(ctx, cfg.RedisURL, cfg.StatsCacheTTL, log)
		if err != nil {
			log.Warn("statistics cache disabled", zap.Error(err))
		} else {
			defer cache.Close()
			opts = append(opts, handlers.WithStatsCache(cache))
			log.Info("statistics cache enabled", zap.Duration("ttl", cfg.StatsCacheTTL))
		}
	}

	if cfg.S3Enabled {
		storage, err := initStorage(ctx, cfg)
		if err != nil {
			log.Warn("screenshot storage disabled", zap.Error(err))
		} else {
			opts = append(opts, handlers.WithStorage(storage))
			log.Info("screenshot storage enabled", zap.String("bucket", cfg.S3Bucket))
		}
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(middleware.Metrics(metrics))

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	h := handlers.New(db, cfg, log, opts...)
	handlers.SetupRoutes(app, h)

	log.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func initStorage(ctx context.Context, cfg *config.Config) (*services.StorageService, error) {
	if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		return nil, fmt.Errorf("S3 credentials not configured")
	}
	storage, err := services.NewStorageService(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := storage.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("ensure bucket: %w", err)
	}
	return storage, nil
}
