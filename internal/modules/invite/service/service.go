package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	groupDomain "github.com/reshetovitsme/post-normalizer/internal/modules/group/domain"
	groupService "github.com/reshetovitsme/post-normalizer/internal/modules/group/service"
	"github.com/reshetovitsme/post-normalizer/internal/modules/invite/domain"
	inviteRepo "github.com/reshetovitsme/post-normalizer/internal/modules/invite/repository"
	messageDomain "github.com/reshetovitsme/post-normalizer/internal/modules/message/domain"
	apperrors "github.com/reshetovitsme/post-normalizer/internal/shared/errors"
)

// DirectSender delivers a private message to a user. Implemented by the
// telegram client.
type DirectSender interface {
	SendDirectMessage(ctx context.Context, userID int64, text string) error
}

const sweepBatchSize = 100

// Service schedules and delivers the follow-up invites earned by forwarded
// posts. Queued invites of a group that disables invites are purged at the
// next sweep rather than honored.
type Service struct {
	repo   inviteRepo.Repository
	groups *groupService.Service
	sender DirectSender
}

// New creates a new invite service.
func New(repo inviteRepo.Repository, groups *groupService.Service, sender DirectSender) *Service {
	return &Service{repo: repo, groups: groups, sender: sender}
}

// Enqueue records an invite due 7 days after the repost. Called by the
// pipeline after a successful repost of a forwarded message.
func (s *Service) Enqueue(ctx context.Context, group *groupDomain.Group, msg *messageDomain.Message, newMessageID int, now time.Time) error {
	if !msg.Forwarded() {
		return nil
	}
	invite := &domain.PendingInvite{
		ChatID:         group.ChatID,
		AuthorID:       msg.Forward.FromID,
		AuthorName:     msg.Forward.Name,
		AuthorUsername: msg.Forward.Username,
		PostMessageID:  newMessageID,
		DueAt:          now.Add(domain.DueAfter),
	}
	if err := s.repo.Upsert(ctx, invite); err != nil {
		return err
	}
	slog.Info("Invite enqueued",
		"chat_id", group.ChatID, "author_id", invite.AuthorID, "due_at", invite.DueAt)
	return nil
}

// Sweep delivers due invites. Registered with the shared cron scheduler.
// An invite is marked sent before any later sweep can see it again, so a
// sent invite is never resent.
func (s *Service) Sweep(ctx context.Context) {
	now := time.Now()
	due, err := s.repo.Due(ctx, now, sweepBatchSize)
	if err != nil {
		slog.Error("Invite sweep failed to load due invites", "error", err)
		return
	}

	for _, invite := range due {
		if err := s.deliver(ctx, invite, now); err != nil {
			slog.Error("Failed to deliver invite",
				"chat_id", invite.ChatID, "author_id", invite.AuthorID, "error", err)
		}
	}
}

func (s *Service) deliver(ctx context.Context, invite *domain.PendingInvite, now time.Time) error {
	group, err := s.groups.Snapshot(ctx, invite.ChatID)
	if err != nil {
		if errors.Is(err, apperrors.ErrGroupNotFound) {
			_, derr := s.repo.DeleteUnsent(ctx, invite.ChatID)
			return derr
		}
		return err
	}

	// The group turned invites off after this one was queued: purge, don't honor.
	if !group.InviteEnabled {
		deleted, err := s.repo.DeleteUnsent(ctx, invite.ChatID)
		if err == nil && deleted > 0 {
			slog.Info("Purged queued invites for group with invites disabled",
				"chat_id", invite.ChatID, "purged", deleted)
		}
		return err
	}

	template := group.InviteText
	if template == "" {
		template = domain.DefaultInviteText
	}
	text := domain.Render(template, domain.TemplateVars{
		AuthorName:     invite.AuthorName,
		AuthorUsername: invite.AuthorUsername,
		GroupName:      group.Title,
		PostLink:       PostLink(group.ChatID, invite.PostMessageID),
		RulesLink:      group.RulesLink,
	})

	if err := s.sender.SendDirectMessage(ctx, invite.AuthorID, text); err != nil {
		return err
	}
	if err := s.repo.MarkSent(ctx, invite.ChatID, invite.AuthorID, now); err != nil {
		return err
	}
	slog.Info("Invite sent", "chat_id", invite.ChatID, "author_id", invite.AuthorID)
	return nil
}

// PostLink builds the t.me link for a message in a private supergroup.
func PostLink(chatID int64, messageID int) string {
	id := fmt.Sprintf("%d", chatID)
	id = strings.TrimPrefix(id, "-100")
	id = strings.TrimPrefix(id, "-")
	return fmt.Sprintf("https://t.me/c/%s/%d", id, messageID)
}
