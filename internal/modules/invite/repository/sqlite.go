package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/reshetovitsme/post-normalizer/internal/modules/invite/domain"
	"github.com/reshetovitsme/post-normalizer/internal/shared/storage"
	"github.com/samber/oops"
)

// SQLiteStorage implements invite.Repository on the shared SQLite database.
type SQLiteStorage struct {
	db *storage.DB
}

// NewSQLiteStorage creates a new SQLite-backed invite repository.
func NewSQLiteStorage(db *storage.DB) Repository {
	return &SQLiteStorage{db: db}
}

func (s *SQLiteStorage) Upsert(ctx context.Context, invite *domain.PendingInvite) error {
	if invite.CreatedAt.IsZero() {
		invite.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pending_invites
			(chat_id, author_id, author_name, author_username, post_message_id, due_at, sent_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL, ?)
		ON CONFLICT (chat_id, author_id) DO UPDATE SET
			author_name     = excluded.author_name,
			author_username = excluded.author_username,
			post_message_id = excluded.post_message_id,
			due_at          = excluded.due_at
		WHERE pending_invites.sent_at IS NULL
	`, invite.ChatID, invite.AuthorID, invite.AuthorName, invite.AuthorUsername,
		invite.PostMessageID, invite.DueAt.Unix(), invite.CreatedAt.Unix())
	if err != nil {
		return oops.With("chat_id", invite.ChatID, "author_id", invite.AuthorID,
			"context", "failed to upsert invite").Wrap(err)
	}
	return nil
}

func (s *SQLiteStorage) Get(ctx context.Context, chatID, authorID int64) (*domain.PendingInvite, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT chat_id, author_id, author_name, author_username, post_message_id, due_at, sent_at, created_at
		FROM pending_invites WHERE chat_id = ? AND author_id = ?
	`, chatID, authorID)
	invite, err := scanInvite(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.With("chat_id", chatID, "author_id", authorID, "context", "failed to query invite").Wrap(err)
	}
	return invite, nil
}

func (s *SQLiteStorage) Due(ctx context.Context, now time.Time, limit int) ([]*domain.PendingInvite, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chat_id, author_id, author_name, author_username, post_message_id, due_at, sent_at, created_at
		FROM pending_invites
		WHERE sent_at IS NULL AND due_at <= ?
		ORDER BY due_at
		LIMIT ?
	`, now.Unix(), limit)
	if err != nil {
		return nil, oops.With("context", "failed to query due invites").Wrap(err)
	}
	defer rows.Close()

	var invites []*domain.PendingInvite
	for rows.Next() {
		invite, err := scanInvite(rows)
		if err != nil {
			return nil, oops.With("context", "failed to scan invite").Wrap(err)
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}

func (s *SQLiteStorage) MarkSent(ctx context.Context, chatID, authorID int64, sentAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE pending_invites SET sent_at = ? WHERE chat_id = ? AND author_id = ? AND sent_at IS NULL
	`, sentAt.Unix(), chatID, authorID)
	if err != nil {
		return oops.With("chat_id", chatID, "author_id", authorID, "context", "failed to mark invite sent").Wrap(err)
	}
	return nil
}

func (s *SQLiteStorage) DeleteUnsent(ctx context.Context, chatID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM pending_invites WHERE chat_id = ? AND sent_at IS NULL
	`, chatID)
	if err != nil {
		return 0, oops.With("chat_id", chatID, "context", "failed to delete unsent invites").Wrap(err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvite(row rowScanner) (*domain.PendingInvite, error) {
	var (
		invite    domain.PendingInvite
		dueAt     int64
		sentAt    sql.NullInt64
		createdAt int64
	)
	err := row.Scan(&invite.ChatID, &invite.AuthorID, &invite.AuthorName,
		&invite.AuthorUsername, &invite.PostMessageID, &dueAt, &sentAt, &createdAt)
	if err != nil {
		return nil, err
	}
	invite.DueAt = time.Unix(dueAt, 0)
	if sentAt.Valid {
		t := time.Unix(sentAt.Int64, 0)
		invite.SentAt = &t
	}
	invite.CreatedAt = time.Unix(createdAt, 0)
	return &invite, nil
}
