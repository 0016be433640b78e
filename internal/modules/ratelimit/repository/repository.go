package repository

import (
	"context"
	"time"
)

// Repository persists per-author post counters.
type Repository interface {
	// TryConsume atomically checks the author's day and week counters
	// against the limits (0 = unlimited) and increments both when allowed.
	// A rejected attempt leaves both counters unchanged.
	TryConsume(ctx context.Context, chatID, authorID int64, dayLimit, weekLimit int, now time.Time) (bool, error)
	// Count returns the current count for a period key, 0 when absent.
	Count(ctx context.Context, chatID, authorID int64, periodKey string) (int, error)
	// DeleteExpired prunes counters whose period ended before cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
