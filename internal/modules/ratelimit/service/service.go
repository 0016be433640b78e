package service

import (
	"context"
	"log/slog"
	"time"

	groupDomain "github.com/reshetovitsme/post-normalizer/internal/modules/group/domain"
	"github.com/reshetovitsme/post-normalizer/internal/modules/ratelimit/domain"
	rateRepo "github.com/reshetovitsme/post-normalizer/internal/modules/ratelimit/repository"
)

// CounterGrace keeps rolled-over counters available this long for inspection
// before the retention sweep prunes them.
const CounterGrace = 48 * time.Hour

// Service is the per-author rate ledger.
type Service struct {
	repo rateRepo.Repository
}

// New creates a new rate ledger service.
func New(repo rateRepo.Repository) *Service {
	return &Service{repo: repo}
}

// TryConsume decides whether the author may post in the group right now and,
// when allowed, counts the post against both the day and week buckets. The
// decision and the increment are atomic.
func (s *Service) TryConsume(ctx context.Context, group *groupDomain.Group, authorID int64, now time.Time) (bool, error) {
	if group.LimitPostsDay == 0 && group.LimitPostsWeek == 0 {
		return true, nil
	}
	return s.repo.TryConsume(ctx, group.ChatID, authorID, group.LimitPostsDay, group.LimitPostsWeek, now)
}

// Usage reports the author's current day and week counts.
func (s *Service) Usage(ctx context.Context, chatID, authorID int64, now time.Time) (day, week int, err error) {
	day, err = s.repo.Count(ctx, chatID, authorID, domain.DayKey(now))
	if err != nil {
		return 0, 0, err
	}
	week, err = s.repo.Count(ctx, chatID, authorID, domain.WeekKey(now))
	return day, week, err
}

// Sweep prunes counters whose period ended before the grace window.
func (s *Service) Sweep(ctx context.Context) {
	deleted, err := s.repo.DeleteExpired(ctx, time.Now().Add(-CounterGrace))
	if err != nil {
		slog.Error("Counter sweep failed", "error", err)
		return
	}
	if deleted > 0 {
		slog.Info("Counter sweep completed", "deleted", deleted)
	}
}
