package repository

import (
	"context"

	"github.com/reshetovitsme/post-normalizer/internal/modules/group/domain"
)

// Repository is the read/write boundary to the external group configuration
// store. The pipeline only reads snapshots; writes happen on behalf of the
// administrative surface and the pause/resume failure path.
type Repository interface {
	Get(ctx context.Context, chatID int64) (*domain.Group, error)
	GetAll(ctx context.Context) ([]*domain.Group, error)
	Save(ctx context.Context, group *domain.Group) error
	SetPaused(ctx context.Context, chatID int64, reason string) error
	ClearPaused(ctx context.Context, chatID int64) error
}
