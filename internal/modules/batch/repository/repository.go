package repository

import (
	"context"

	"github.com/reshetovitsme/post-normalizer/internal/modules/batch/domain"
)

// Repository persists batch jobs and their progress cursors.
type Repository interface {
	Save(ctx context.Context, job *domain.Job) error
	Get(ctx context.Context, id string) (*domain.Job, error)
	GetByChat(ctx context.Context, chatID int64) ([]*domain.Job, error)
	GetAll(ctx context.Context) ([]*domain.Job, error)
}
