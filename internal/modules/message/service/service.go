package service

import (
	"context"

	"github.com/reshetovitsme/post-normalizer/internal/modules/message/domain"
	messageRepo "github.com/reshetovitsme/post-normalizer/internal/modules/message/repository"
)

// Service maintains the archive of messages seen in monitored groups. The
// archive is the history source batch jobs replay.
type Service struct {
	repo messageRepo.Repository
}

// New creates a new message archive service.
func New(repo messageRepo.Repository) *Service {
	return &Service{repo: repo}
}

// Archive stores a message seen at intake. Empty (service) messages are not
// worth keeping.
func (s *Service) Archive(ctx context.Context, m *domain.Message) error {
	if m.Empty() {
		return nil
	}
	return s.repo.Save(ctx, m)
}

// Get returns an archived message, or nil when unknown.
func (s *Service) Get(ctx context.Context, chatID int64, messageID int) (*domain.Message, error) {
	return s.repo.Get(ctx, chatID, messageID)
}

// Range returns archived messages with ids in [fromID, toID].
func (s *Service) Range(ctx context.Context, chatID int64, fromID, toID, limit int) ([]*domain.Message, error) {
	return s.repo.GetRange(ctx, chatID, fromID, toID, limit)
}

// Forget drops a message from the archive, used when the original is deleted
// before its repost fires.
func (s *Service) Forget(ctx context.Context, chatID int64, messageID int) error {
	return s.repo.Delete(ctx, chatID, messageID)
}
