package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/reshetovitsme/post-normalizer/internal/modules/repost/domain"
	"github.com/reshetovitsme/post-normalizer/internal/shared/storage"
	"github.com/samber/oops"
)

// SQLiteStorage implements repost.Repository on the shared SQLite database.
type SQLiteStorage struct {
	db *storage.DB
}

// NewSQLiteStorage creates a new SQLite-backed repost repository.
func NewSQLiteStorage(db *storage.DB) Repository {
	return &SQLiteStorage{db: db}
}

func (s *SQLiteStorage) SaveIncident(ctx context.Context, incident *domain.Incident) error {
	if incident.CreatedAt.IsZero() {
		incident.CreatedAt = time.Now()
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO incidents (chat_id, message_id, author_id, content, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, incident.ChatID, incident.MessageID, incident.AuthorID, incident.Content,
		incident.Error, incident.CreatedAt.Unix())
	if err != nil {
		return oops.With("chat_id", incident.ChatID, "message_id", incident.MessageID,
			"context", "failed to save incident").Wrap(err)
	}
	if id, err := res.LastInsertId(); err == nil {
		incident.ID = id
	}
	return nil
}

func (s *SQLiteStorage) ListIncidents(ctx context.Context, limit int) ([]*domain.Incident, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, message_id, author_id, content, error, created_at
		FROM incidents ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, oops.With("context", "failed to query incidents").Wrap(err)
	}
	defer rows.Close()

	var incidents []*domain.Incident
	for rows.Next() {
		var inc domain.Incident
		var createdAt int64
		if err := rows.Scan(&inc.ID, &inc.ChatID, &inc.MessageID, &inc.AuthorID,
			&inc.Content, &inc.Error, &createdAt); err != nil {
			return nil, oops.With("context", "failed to scan incident").Wrap(err)
		}
		inc.CreatedAt = time.Unix(createdAt, 0)
		incidents = append(incidents, &inc)
	}
	return incidents, rows.Err()
}

func (s *SQLiteStorage) Rotation(ctx context.Context, chatID int64, slot, cycle int) (int, error) {
	if cycle <= 0 {
		return 0, nil
	}

	var idx int
	err := s.db.QueryRowContext(ctx, `
		SELECT idx FROM rotation_counters WHERE chat_id = ? AND slot = ?
	`, chatID, slot).Scan(&idx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, oops.With("chat_id", chatID, "slot", slot, "context", "failed to query rotation counter").Wrap(err)
	}
	return idx % cycle, nil
}

func (s *SQLiteStorage) AdvanceRotation(ctx context.Context, chatID int64, slot, cycle int) (err error) {
	if cycle <= 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return oops.With("chat_id", chatID, "context", "failed to begin rotation transaction").Wrap(err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	var idx int
	err = tx.QueryRowContext(ctx, `
		SELECT idx FROM rotation_counters WHERE chat_id = ? AND slot = ?
	`, chatID, slot).Scan(&idx)
	if errors.Is(err, sql.ErrNoRows) {
		idx, err = 0, nil
	}
	if err != nil {
		return oops.With("chat_id", chatID, "slot", slot, "context", "failed to query rotation counter").Wrap(err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO rotation_counters (chat_id, slot, idx) VALUES (?, ?, ?)
	`, chatID, slot, (idx%cycle+1)%cycle)
	if err != nil {
		return oops.With("chat_id", chatID, "slot", slot, "context", "failed to advance rotation counter").Wrap(err)
	}

	if err = tx.Commit(); err != nil {
		return oops.With("chat_id", chatID, "context", "failed to commit rotation counter").Wrap(err)
	}
	return nil
}
