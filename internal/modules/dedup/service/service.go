package service

import (
	"context"
	"log/slog"
	"time"

	dedupRepo "github.com/reshetovitsme/post-normalizer/internal/modules/dedup/repository"
	groupDomain "github.com/reshetovitsme/post-normalizer/internal/modules/group/domain"
)

// RetentionGrace keeps expired fingerprints around a little longer than the
// widest configured window before the sweep removes them, so a group that
// widens its window does not lose recent history.
const RetentionGrace = 24 * time.Hour

// WindowSource exposes the configured groups so the sweep can honor the
// widest per-group window. Implemented by the group service.
type WindowSource interface {
	All(ctx context.Context) ([]*groupDomain.Group, error)
}

// Service is the rolling duplicate window. Expiry is lazy on lookup; the
// retention sweep physically deletes stale rows.
type Service struct {
	repo   dedupRepo.Repository
	groups WindowSource
}

// New creates a new duplicate window service.
func New(repo dedupRepo.Repository, groups WindowSource) *Service {
	return &Service{repo: repo, groups: groups}
}

// SeenRecently reports whether the hash was already accepted inside the
// group's dedup window. An expired record never causes a positive.
func (s *Service) SeenRecently(ctx context.Context, group *groupDomain.Group, hash string, now time.Time) (bool, error) {
	return s.repo.Seen(ctx, group.ChatID, hash, now.Add(-group.DedupWindow()))
}

// Record stores the fingerprint of an accepted repost.
func (s *Service) Record(ctx context.Context, chatID int64, hash string, now time.Time) error {
	return s.repo.Record(ctx, chatID, hash, now)
}

// Sweep deletes records no group can consult anymore: older than the widest
// configured window plus grace. The window is per-group and unbounded, so
// the cutoff follows the configuration rather than a fixed cap. Registered
// with the shared cron scheduler.
func (s *Service) Sweep(ctx context.Context) {
	window := (&groupDomain.Group{}).DedupWindow()
	if s.groups != nil {
		all, err := s.groups.All(ctx)
		if err != nil {
			slog.Error("Fingerprint sweep skipped: failed to load group windows", "error", err)
			return
		}
		for _, g := range all {
			if w := g.DedupWindow(); w > window {
				window = w
			}
		}
	}

	cutoff := time.Now().Add(-(window + RetentionGrace))
	deleted, err := s.repo.DeleteExpired(ctx, cutoff)
	if err != nil {
		slog.Error("Fingerprint sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("Fingerprint sweep completed", "deleted", deleted, "window", window)
	}
}
