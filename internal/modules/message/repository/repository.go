package repository

import (
	"context"

	"github.com/reshetovitsme/post-normalizer/internal/modules/message/domain"
)

// Repository defines the interface for the message archive.
type Repository interface {
	Save(ctx context.Context, message *domain.Message) error
	Get(ctx context.Context, chatID int64, messageID int) (*domain.Message, error)
	// GetRange returns archived messages of a group whose ids fall in
	// [fromID, toID], ordered by message id ascending, at most limit rows.
	GetRange(ctx context.Context, chatID int64, fromID, toID, limit int) ([]*domain.Message, error)
	Delete(ctx context.Context, chatID int64, messageID int) error
}
