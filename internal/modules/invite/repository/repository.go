package repository

import (
	"context"
	"time"

	"github.com/reshetovitsme/post-normalizer/internal/modules/invite/domain"
)

// Repository persists pending invites.
type Repository interface {
	// Upsert records an invite. An already-sent invite for the same
	// (group, author) is left alone; an unsent one gets its due time and
	// post reference refreshed.
	Upsert(ctx context.Context, invite *domain.PendingInvite) error
	Get(ctx context.Context, chatID, authorID int64) (*domain.PendingInvite, error)
	// Due returns unsent invites due at or before now.
	Due(ctx context.Context, now time.Time, limit int) ([]*domain.PendingInvite, error)
	MarkSent(ctx context.Context, chatID, authorID int64, sentAt time.Time) error
	// DeleteUnsent purges queued unsent invites of a group.
	DeleteUnsent(ctx context.Context, chatID int64) (int64, error)
}
