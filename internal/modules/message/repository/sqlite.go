package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/reshetovitsme/post-normalizer/internal/modules/message/domain"
	"github.com/reshetovitsme/post-normalizer/internal/shared/storage"
	"github.com/samber/oops"
)

// SQLiteStorage implements message.Repository on the shared SQLite database.
type SQLiteStorage struct {
	db *storage.DB
}

// NewSQLiteStorage creates a new SQLite-backed message archive.
func NewSQLiteStorage(db *storage.DB) Repository {
	return &SQLiteStorage{db: db}
}

func (s *SQLiteStorage) Save(ctx context.Context, m *domain.Message) error {
	var mediaType, fileID, uniqueID string
	if m.Media != nil {
		mediaType, fileID, uniqueID = string(m.Media.Type), m.Media.FileID, m.Media.UniqueID
	}
	var fwdID int64
	var fwdName, fwdUser string
	if m.Forward != nil {
		fwdID, fwdName, fwdUser = m.Forward.FromID, m.Forward.Name, m.Forward.Username
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO messages
			(chat_id, message_id, author_id, text, media_type, media_file_id,
			 media_unique_id, forward_from_id, forward_name, forward_user, media_group_id, date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ChatID, m.MessageID, m.AuthorID, m.Text, mediaType, fileID, uniqueID,
		fwdID, fwdName, fwdUser, m.MediaGroupID, m.Date.Unix())
	if err != nil {
		return oops.With("chat_id", m.ChatID, "message_id", m.MessageID, "context", "failed to save message").Wrap(err)
	}
	return nil
}

func (s *SQLiteStorage) Get(ctx context.Context, chatID int64, messageID int) (*domain.Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT chat_id, message_id, author_id, text, media_type, media_file_id,
		       media_unique_id, forward_from_id, forward_name, forward_user, media_group_id, date
		FROM messages WHERE chat_id = ? AND message_id = ?
	`, chatID, messageID)

	m, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, oops.With("chat_id", chatID, "message_id", messageID, "context", "failed to query message").Wrap(err)
	}
	return m, nil
}

func (s *SQLiteStorage) GetRange(ctx context.Context, chatID int64, fromID, toID, limit int) ([]*domain.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT chat_id, message_id, author_id, text, media_type, media_file_id,
		       media_unique_id, forward_from_id, forward_name, forward_user, media_group_id, date
		FROM messages
		WHERE chat_id = ? AND message_id >= ? AND message_id <= ?
		ORDER BY message_id
		LIMIT ?
	`, chatID, fromID, toID, limit)
	if err != nil {
		return nil, oops.With("chat_id", chatID, "context", "failed to query message range").Wrap(err)
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, oops.With("chat_id", chatID, "context", "failed to scan message").Wrap(err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (s *SQLiteStorage) Delete(ctx context.Context, chatID int64, messageID int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ? AND message_id = ?`, chatID, messageID)
	if err != nil {
		return oops.With("chat_id", chatID, "message_id", messageID, "context", "failed to delete message").Wrap(err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	var (
		m         domain.Message
		mediaType string
		fileID    string
		uniqueID  string
		fwdID     int64
		fwdName   string
		fwdUser   string
		date      int64
	)
	err := row.Scan(&m.ChatID, &m.MessageID, &m.AuthorID, &m.Text, &mediaType,
		&fileID, &uniqueID, &fwdID, &fwdName, &fwdUser, &m.MediaGroupID, &date)
	if err != nil {
		return nil, err
	}
	if mediaType != "" || fileID != "" {
		m.Media = &domain.Media{Type: domain.MediaType(mediaType), FileID: fileID, UniqueID: uniqueID}
	}
	if fwdID != 0 {
		m.Forward = &domain.Forward{FromID: fwdID, Name: fwdName, Username: fwdUser}
	}
	m.Date = time.Unix(date, 0)
	return &m, nil
}
