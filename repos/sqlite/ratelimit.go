package sqlite

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/juho05/paw-id/repos"
)

type rateLimitRepository struct {
	db *sqlx.DB
}

func (d *DB) NewRateLimitRepository() repos.RateLimitRepository {
	return &rateLimitRepository{
		db: d.db,
	}
}

func (r *rateLimitRepository) Increment(ctx context.Context, key string, now time.Time, window time.Duration) (int, time.Time, error) {
	// Increment and lazy window reset in one statement so concurrent requests
	// for the same key never lose an increment.
	cutoff := now.Add(-window).Unix()
	var count int
	var windowStart int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO rate_limits (rate_key, count, window_start) VALUES (?, 1, ?)
		ON CONFLICT (rate_key) DO UPDATE SET
			count = CASE WHEN rate_limits.window_start <= ? THEN 1 ELSE rate_limits.count + 1 END,
			window_start = CASE WHEN rate_limits.window_start <= ? THEN excluded.window_start ELSE rate_limits.window_start END
		RETURNING count, window_start`,
		key, now.Unix(), cutoff, cutoff).Scan(&count, &windowStart)
	if err != nil {
		return 0, time.Time{}, repoErr("increment rate limit: %w", err)
	}
	return count, time.Unix(windowStart, 0), nil
}
