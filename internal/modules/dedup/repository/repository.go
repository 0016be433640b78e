package repository

import (
	"context"
	"time"
)

// Repository persists fingerprint records for the rolling duplicate window.
type Repository interface {
	// Seen reports whether hash was recorded for the group at or after cutoff.
	Seen(ctx context.Context, chatID int64, hash string, cutoff time.Time) (bool, error)
	// Record upserts a fingerprint observation.
	Record(ctx context.Context, chatID int64, hash string, seenAt time.Time) error
	// DeleteExpired removes records older than cutoff across all groups.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
}
