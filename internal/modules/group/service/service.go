package service

import (
	"context"
	"log/slog"

	"github.com/reshetovitsme/post-normalizer/internal/modules/group/domain"
	groupRepo "github.com/reshetovitsme/post-normalizer/internal/modules/group/repository"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Service exposes group configuration snapshots to the pipeline and owns the
// operator-facing pause state.
type Service struct {
	repo groupRepo.Repository
}

// New creates a new group service.
func New(repo groupRepo.Repository) *Service {
	return &Service{repo: repo}
}

// Snapshot returns the current configuration of a group. Callers must re-read
// at fire time rather than hold on to a snapshot across a delay.
func (s *Service) Snapshot(ctx context.Context, chatID int64) (*domain.Group, error) {
	return s.repo.Get(ctx, chatID)
}

// All returns all configured groups.
func (s *Service) All(ctx context.Context) ([]*domain.Group, error) {
	return s.repo.GetAll(ctx)
}

// Active returns the groups the pipeline should process right now.
func (s *Service) Active(ctx context.Context) ([]*domain.Group, error) {
	groups, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return lo.Filter(groups, func(g *domain.Group, _ int) bool {
		return g.IsActive && !g.Paused()
	}), nil
}

// Save upserts a group configuration on behalf of the administrative surface.
func (s *Service) Save(ctx context.Context, group *domain.Group) error {
	if group.RejectPolicy == "" {
		group.RejectPolicy = domain.RejectPolicyKeep
	}
	if group.Type == "" {
		group.Type = domain.GroupTypeOther
	}
	if !group.RejectPolicy.IsValid() {
		return oops.With("chat_id", group.ChatID, "reject_policy", group.RejectPolicy).
			Errorf("invalid reject policy")
	}
	return s.repo.Save(ctx, group)
}

// Pause marks a group as requiring operator attention. Used when the bot
// loses the permissions it needs; the pipeline skips paused groups.
func (s *Service) Pause(ctx context.Context, chatID int64, reason string) error {
	slog.Error("Pausing group for operator attention", "chat_id", chatID, "reason", reason)
	return s.repo.SetPaused(ctx, chatID, reason)
}

// Resume clears the pause state of a group.
func (s *Service) Resume(ctx context.Context, chatID int64) error {
	slog.Info("Resuming group", "chat_id", chatID)
	return s.repo.ClearPaused(ctx, chatID)
}
