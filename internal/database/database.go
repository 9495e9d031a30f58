package database

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/foxxcyber/dealer-dashboard/internal/config"
	"github.com/foxxcyber/dealer-dashboard/internal/models"
	"github.com/foxxcyber/dealer-dashboard/internal/services"
)

// DB wraps the connection pool
type DB struct {
	Pool   *pgxpool.Pool
	logger *zap.Logger
}

// Connect creates a new database connection pool
func Connect(databaseURL string, logger *zap.Logger) (*DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database URL: %w", err)
	}

	// Configure pool
	poolConfig.MaxConns = 25
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	logger.Info("database connected")
	return &DB{Pool: pool, logger: logger}, nil
}

// Close closes the database connection pool
func (db *DB) Close() {
	db.Pool.Close()
}

// Ping checks the database connection
func (db *DB) Ping(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// RunMigrations applies pending migrations in version order
func RunMigrations(ctx context.Context, db *DB) error {
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INT PRIMARY KEY,
			applied_at TIMESTAMP DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	versions := make([]int, 0, len(migrations))
	for v := range migrations {
		versions = append(versions, v)
	}
	sort.Ints(versions)

	for _, version := range versions {
		var exists bool
		err := db.Pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
			version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration %d: %w", version, err)
		}
		if exists {
			continue
		}

		db.logger.Info("applying migration", zap.Int("version", version))
		tx, err := db.Pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", version, err)
		}
		if _, err := tx.Exec(ctx, migrations[version]); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to apply migration %d: %w", version, err)
		}
		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("failed to record migration %d: %w", version, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", version, err)
		}
	}

	return nil
}

// EnsureAdminUser creates the bootstrap super admin if it doesn't exist
func EnsureAdminUser(ctx context.Context, db *DB, cfg *config.Config) error {
	if cfg.AdminPassword == "" {
		db.logger.Info("ADMIN_PASSWORD not set, skipping admin user creation")
		return nil
	}

	_, err := db.GetUserByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrUserNotFound) {
		return fmt.Errorf("failed to check for admin user: %w", err)
	}

	hash, err := services.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}

	if _, err := db.CreateUser(ctx, cfg.AdminUsername, hash, cfg.AdminStoreID, models.RoleSuperAdmin); err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	db.logger.Info("admin user created", zap.String("username", cfg.AdminUsername))
	return nil
}

// migrations maps version to SQL. The vehicle table is shared with the
// automation system, which writes environment_id as the store id.
var migrations = map[int]string{
	1: migration001,
	2: migration002,
}

const migration001 = `
CREATE TABLE IF NOT EXISTS users (
    id SERIAL PRIMARY KEY,
    username VARCHAR(50) UNIQUE NOT NULL,
    password_hash VARCHAR(128) NOT NULL,
    store_id VARCHAR(100) NOT NULL,
    role VARCHAR(20) NOT NULL DEFAULT 'dealership_user',
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    created_at TIMESTAMP NOT NULL DEFAULT NOW(),
    last_login TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_users_store_id ON users(store_id);

CREATE TABLE IF NOT EXISTS vehicle_processing_records (
    id SERIAL PRIMARY KEY,
    stock_number VARCHAR(50) NOT NULL,
    vin VARCHAR(17),
    vehicle_name VARCHAR(200),
    environment_id VARCHAR(100),
    processing_date TIMESTAMP NOT NULL DEFAULT NOW(),
    processing_session_id VARCHAR(100),
    odometer VARCHAR(20),
    days_in_inventory VARCHAR(10),
    original_description TEXT,
    ai_generated_description TEXT,
    final_description TEXT,
    description_updated BOOLEAN DEFAULT FALSE,
    starred_features TEXT,
    marked_features_count INT DEFAULT 0,
    feature_decisions TEXT,
    no_fear_certificate BOOLEAN DEFAULT FALSE,
    no_fear_certificate_text TEXT,
    ai_analysis_result TEXT,
    screenshot_path VARCHAR(500),
    processing_status VARCHAR(20) DEFAULT 'pending',
    processing_successful BOOLEAN DEFAULT FALSE,
    errors_encountered TEXT,
    processing_duration VARCHAR(20),
    no_build_data_found BOOLEAN DEFAULT FALSE,
    book_values_processed BOOLEAN DEFAULT FALSE,
    book_values_before_processing TEXT,
    book_values_after_processing TEXT,
    media_tab_processed BOOLEAN DEFAULT FALSE,
    media_totals_found TEXT
);
`

const migration002 = `
CREATE INDEX IF NOT EXISTS idx_vpr_stock_number ON vehicle_processing_records(stock_number);
CREATE INDEX IF NOT EXISTS idx_vpr_vin ON vehicle_processing_records(vin);
CREATE INDEX IF NOT EXISTS idx_vpr_environment_date ON vehicle_processing_records(environment_id, processing_date DESC);
`
