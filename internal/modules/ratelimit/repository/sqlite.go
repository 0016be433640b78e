package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/reshetovitsme/post-normalizer/internal/modules/ratelimit/domain"
	"github.com/reshetovitsme/post-normalizer/internal/shared/storage"
	"github.com/samber/oops"
)

// SQLiteStorage implements ratelimit.Repository on the shared SQLite database.
// The check-then-increment runs inside a single transaction so concurrent
// attempts can never push a counter past its limit.
type SQLiteStorage struct {
	db *storage.DB
}

// NewSQLiteStorage creates a new SQLite-backed counter repository.
func NewSQLiteStorage(db *storage.DB) Repository {
	return &SQLiteStorage{db: db}
}

func (s *SQLiteStorage) TryConsume(ctx context.Context, chatID, authorID int64, dayLimit, weekLimit int, now time.Time) (allowed bool, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, oops.With("chat_id", chatID, "context", "failed to begin transaction").Wrap(err)
	}
	defer func() {
		if err != nil || !allowed {
			tx.Rollback()
		}
	}()

	dayKey, weekKey := domain.DayKey(now), domain.WeekKey(now)

	dayCount, err := countInTx(ctx, tx, chatID, authorID, dayKey)
	if err != nil {
		return false, err
	}
	if dayLimit > 0 && dayCount >= dayLimit {
		return false, nil
	}

	weekCount, err := countInTx(ctx, tx, chatID, authorID, weekKey)
	if err != nil {
		return false, err
	}
	if weekLimit > 0 && weekCount >= weekLimit {
		return false, nil
	}

	for key, expires := range map[string]time.Time{
		dayKey:  domain.DayEnd(now),
		weekKey: domain.WeekEnd(now),
	} {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO author_counters (chat_id, author_id, period_key, count, expires_at)
			VALUES (?, ?, ?, 1, ?)
			ON CONFLICT (chat_id, author_id, period_key)
			DO UPDATE SET count = count + 1
		`, chatID, authorID, key, expires.Unix())
		if err != nil {
			return false, oops.With("chat_id", chatID, "author_id", authorID, "period_key", key,
				"context", "failed to increment counter").Wrap(err)
		}
	}

	if err = tx.Commit(); err != nil {
		return false, oops.With("chat_id", chatID, "context", "failed to commit counters").Wrap(err)
	}
	return true, nil
}

func countInTx(ctx context.Context, tx *sql.Tx, chatID, authorID int64, periodKey string) (int, error) {
	var count int
	err := tx.QueryRowContext(ctx, `
		SELECT count FROM author_counters
		WHERE chat_id = ? AND author_id = ? AND period_key = ?
	`, chatID, authorID, periodKey).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, oops.With("chat_id", chatID, "author_id", authorID, "period_key", periodKey,
			"context", "failed to query counter").Wrap(err)
	}
	return count, nil
}

func (s *SQLiteStorage) Count(ctx context.Context, chatID, authorID int64, periodKey string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT count FROM author_counters
		WHERE chat_id = ? AND author_id = ? AND period_key = ?
	`, chatID, authorID, periodKey).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, oops.With("chat_id", chatID, "author_id", authorID, "context", "failed to query counter").Wrap(err)
	}
	return count, nil
}

func (s *SQLiteStorage) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM author_counters WHERE expires_at < ?`, cutoff.Unix())
	if err != nil {
		return 0, oops.With("context", "failed to delete expired counters").Wrap(err)
	}
	return res.RowsAffected()
}
