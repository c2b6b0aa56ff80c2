package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations contains all database migrations in order.
// Each migration has a version key and SQL to execute.
var migrations = []struct {
	Version string
	SQL     string
}{
	{
		Version: "000001_create_leads",
		SQL: `
			CREATE TABLE IF NOT EXISTS leads (
				id         VARCHAR(36)  PRIMARY KEY,
				first_name VARCHAR(255) NOT NULL,
				last_name  VARCHAR(255) NOT NULL,
				email      VARCHAR(255) NOT NULL,
				company    VARCHAR(255) NOT NULL,
				job_title  VARCHAR(255) NOT NULL DEFAULT '',
				phone      VARCHAR(64)  NOT NULL DEFAULT '',
				country    VARCHAR(255) NOT NULL,
				purpose    VARCHAR(64)  NOT NULL,
				budget     VARCHAR(64)  NOT NULL DEFAULT '',
				timeline   VARCHAR(64)  NOT NULL DEFAULT '',
				message    TEXT         NOT NULL,
				newsletter BOOLEAN      NOT NULL DEFAULT FALSE,
				ip         VARCHAR(64)  NOT NULL DEFAULT '',
				user_agent VARCHAR(512) NOT NULL DEFAULT '',
				referrer   VARCHAR(512) NOT NULL DEFAULT '',
				email_sent BOOLEAN      NOT NULL DEFAULT FALSE,
				created_at TIMESTAMPTZ  NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);
			CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);
		`,
	},
	{
		Version: "000002_create_contact_rate_limit",
		SQL: `
			CREATE TABLE IF NOT EXISTS contact_rate_limit (
				id           BIGSERIAL   PRIMARY KEY,
				key_hash     VARCHAR(16) NOT NULL,
				submitted_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_contact_rate_limit_key ON contact_rate_limit(key_hash, submitted_at);
		`,
	},
}

// DB wraps a pgxpool connection pool and provides health checks and migrations.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new database connection pool.
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("connected to database")
	return &DB{Pool: pool}, nil
}

// RunMigrations applies all pending database migrations in order.
func (db *DB) RunMigrations(ctx context.Context) error {
	// Create migrations tracking table
	_, err := db.Pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		// Check if already applied
		var exists bool
		err := db.Pool.QueryRow(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)",
			m.Version,
		).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration status for %s: %w", m.Version, err)
		}
		if exists {
			continue
		}

		// Execute migration in a transaction
		tx, err := db.Pool.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %s: %w", m.Version, err)
		}

		if _, err := tx.Exec(ctx, m.SQL); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("failed to execute migration %s: %w", m.Version, err)
		}

		if _, err := tx.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", m.Version); err != nil {
			tx.Rollback(ctx)
			return fmt.Errorf("failed to record migration %s: %w", m.Version, err)
		}

		if err := tx.Commit(ctx); err != nil {
			return fmt.Errorf("failed to commit migration %s: %w", m.Version, err)
		}

		slog.Info("applied migration", "version", m.Version)
	}

	return nil
}

// HealthCheck verifies the database connection is alive.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.Pool.Ping(ctx)
}

// Close shuts down the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}
