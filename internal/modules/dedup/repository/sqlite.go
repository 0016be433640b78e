package repository

import (
	"context"
	"time"

	"github.com/reshetovitsme/post-normalizer/internal/shared/storage"
	"github.com/samber/oops"
)

// SQLiteStorage implements dedup.Repository on the shared SQLite database.
type SQLiteStorage struct {
	db *storage.DB
}

// NewSQLiteStorage creates a new SQLite-backed fingerprint repository.
func NewSQLiteStorage(db *storage.DB) Repository {
	return &SQLiteStorage{db: db}
}

func (s *SQLiteStorage) Seen(ctx context.Context, chatID int64, hash string, cutoff time.Time) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM fingerprints
		WHERE chat_id = ? AND hash = ? AND seen_at >= ?
	`, chatID, hash, cutoff.Unix()).Scan(&n)
	if err != nil {
		return false, oops.With("chat_id", chatID, "context", "failed to query fingerprint").Wrap(err)
	}
	return n > 0, nil
}

func (s *SQLiteStorage) Record(ctx context.Context, chatID int64, hash string, seenAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO fingerprints (chat_id, hash, seen_at)
		VALUES (?, ?, ?)
	`, chatID, hash, seenAt.Unix())
	if err != nil {
		return oops.With("chat_id", chatID, "context", "failed to record fingerprint").Wrap(err)
	}
	return nil
}

func (s *SQLiteStorage) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fingerprints WHERE seen_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, oops.With("context", "failed to delete expired fingerprints").Wrap(err)
	}
	return res.RowsAffected()
}
