package ratelimit

import (
	"context"
	"fmt"
	"time"

	"sitekit/internal/server/database"
)

// PostgresLimiter keeps rolling-window state in the contact_rate_limit
// table, so the cap holds across multiple server instances. The count
// and the insert are separate statements; the limiter is advisory, and
// a race between concurrent submissions from one IP is tolerated.
type PostgresLimiter struct {
	db     *database.DB
	window time.Duration
	cap    int
}

// NewPostgresLimiter creates a Postgres-backed limiter on the shared pool.
func NewPostgresLimiter(db *database.DB, window time.Duration, cap int) *PostgresLimiter {
	return &PostgresLimiter{db: db, window: window, cap: cap}
}

func (l *PostgresLimiter) Allow(ctx context.Context, key string) (bool, error) {
	cutoff := time.Now().UTC().Add(-l.window)

	var count int
	err := l.db.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM contact_rate_limit WHERE key_hash = $1 AND submitted_at > $2",
		key, cutoff,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count submissions: %w", err)
	}

	return count < l.cap, nil
}

func (l *PostgresLimiter) Record(ctx context.Context, key string) error {
	_, err := l.db.Pool.Exec(ctx,
		"INSERT INTO contact_rate_limit (key_hash, submitted_at) VALUES ($1, NOW())",
		key,
	)
	if err != nil {
		return fmt.Errorf("failed to record submission: %w", err)
	}
	return nil
}

// Prune deletes rows outside the window; rows only matter while inside
// it, so this is pure housekeeping.
func (l *PostgresLimiter) Prune(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-l.window)

	_, err := l.db.Pool.Exec(ctx,
		"DELETE FROM contact_rate_limit WHERE submitted_at < $1",
		cutoff,
	)
	if err != nil {
		return fmt.Errorf("failed to prune rate-limit state: %w", err)
	}
	return nil
}
