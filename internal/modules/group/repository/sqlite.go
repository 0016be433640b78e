package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/reshetovitsme/post-normalizer/internal/modules/group/domain"
	apperrors "github.com/reshetovitsme/post-normalizer/internal/shared/errors"
	"github.com/reshetovitsme/post-normalizer/internal/shared/storage"
	"github.com/samber/oops"
)

// SQLiteStorage implements group.Repository on the shared SQLite database.
type SQLiteStorage struct {
	db *storage.DB
}

// NewSQLiteStorage creates a new SQLite-backed group repository.
func NewSQLiteStorage(db *storage.DB) Repository {
	return &SQLiteStorage{db: db}
}

const groupColumns = `chat_id, title, is_active, group_type, sort_order, country, category, owner,
	tags, subscribers_count, delay_min_seconds, delay_max_seconds, limit_posts_day,
	limit_posts_week, dedup_window_hours, reject_policy, suffix_text, buttons,
	invite_enabled, invite_text, rules_link, paused_at, pause_reason, created_at, updated_at`

func (s *SQLiteStorage) Get(ctx context.Context, chatID int64) (*domain.Group, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+groupColumns+` FROM groups WHERE chat_id = ?`, chatID)
	group, err := scanGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrGroupNotFound
	}
	if err != nil {
		return nil, oops.With("chat_id", chatID, "context", "failed to query group").Wrap(err)
	}
	return group, nil
}

func (s *SQLiteStorage) GetAll(ctx context.Context) ([]*domain.Group, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+groupColumns+` FROM groups ORDER BY sort_order, chat_id`)
	if err != nil {
		return nil, oops.With("context", "failed to query groups").Wrap(err)
	}
	defer rows.Close()

	var groups []*domain.Group
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, oops.With("context", "failed to scan group").Wrap(err)
		}
		groups = append(groups, group)
	}
	return groups, rows.Err()
}

func (s *SQLiteStorage) Save(ctx context.Context, group *domain.Group) error {
	buttons, err := json.Marshal(group.Buttons)
	if err != nil {
		return oops.With("chat_id", group.ChatID, "context", "failed to marshal buttons").Wrap(err)
	}

	now := time.Now()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now

	var pausedAt any
	if group.PausedAt != nil {
		pausedAt = group.PausedAt.Unix()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO groups (`+groupColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		group.ChatID, group.Title, group.IsActive, string(group.Type), group.Order,
		group.Country, group.Category, group.Owner, group.Tags, group.SubscribersCount,
		group.DelayMinSeconds, group.DelayMaxSeconds, group.LimitPostsDay,
		group.LimitPostsWeek, group.DedupWindowHours, string(group.RejectPolicy),
		group.SuffixText, string(buttons), group.InviteEnabled, group.InviteText,
		group.RulesLink, pausedAt, group.PauseReason,
		group.CreatedAt.Unix(), group.UpdatedAt.Unix(),
	)
	if err != nil {
		return oops.With("chat_id", group.ChatID, "context", "failed to save group").Wrap(err)
	}
	return nil
}

func (s *SQLiteStorage) SetPaused(ctx context.Context, chatID int64, reason string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE groups SET paused_at = ?, pause_reason = ?, updated_at = ? WHERE chat_id = ?`,
		time.Now().Unix(), reason, time.Now().Unix(), chatID)
	if err != nil {
		return oops.With("chat_id", chatID, "context", "failed to pause group").Wrap(err)
	}
	return nil
}

func (s *SQLiteStorage) ClearPaused(ctx context.Context, chatID int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE groups SET paused_at = NULL, pause_reason = '', updated_at = ? WHERE chat_id = ?`,
		time.Now().Unix(), chatID)
	if err != nil {
		return oops.With("chat_id", chatID, "context", "failed to unpause group").Wrap(err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGroup(row rowScanner) (*domain.Group, error) {
	var (
		g         domain.Group
		groupType string
		policy    string
		buttons   string
		pausedAt  sql.NullInt64
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(
		&g.ChatID, &g.Title, &g.IsActive, &groupType, &g.Order, &g.Country, &g.Category,
		&g.Owner, &g.Tags, &g.SubscribersCount, &g.DelayMinSeconds, &g.DelayMaxSeconds,
		&g.LimitPostsDay, &g.LimitPostsWeek, &g.DedupWindowHours, &policy, &g.SuffixText,
		&buttons, &g.InviteEnabled, &g.InviteText, &g.RulesLink, &pausedAt, &g.PauseReason,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	g.Type = domain.GroupType(groupType)
	g.RejectPolicy = domain.RejectPolicy(policy)
	if err := json.Unmarshal([]byte(buttons), &g.Buttons); err != nil {
		return nil, err
	}
	if pausedAt.Valid {
		t := time.Unix(pausedAt.Int64, 0)
		g.PausedAt = &t
	}
	g.CreatedAt = time.Unix(createdAt, 0)
	g.UpdatedAt = time.Unix(updatedAt, 0)
	return &g, nil
}
