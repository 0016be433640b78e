package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	dedupDomain "github.com/reshetovitsme/post-normalizer/internal/modules/dedup/domain"
	dedupService "github.com/reshetovitsme/post-normalizer/internal/modules/dedup/service"
	groupDomain "github.com/reshetovitsme/post-normalizer/internal/modules/group/domain"
	groupService "github.com/reshetovitsme/post-normalizer/internal/modules/group/service"
	messageDomain "github.com/reshetovitsme/post-normalizer/internal/modules/message/domain"
	rateService "github.com/reshetovitsme/post-normalizer/internal/modules/ratelimit/service"
	"github.com/reshetovitsme/post-normalizer/internal/modules/repost/domain"
	repostRepo "github.com/reshetovitsme/post-normalizer/internal/modules/repost/repository"
	"github.com/reshetovitsme/post-normalizer/internal/shared/config"
	apperrors "github.com/reshetovitsme/post-normalizer/internal/shared/errors"
	"github.com/samber/oops"
)

// Transport is the boundary to the chat transport: delete the original and
// send the anonymous replacement. Implemented by the telegram client.
type Transport interface {
	DeleteMessage(ctx context.Context, chatID int64, messageID int) error
	SendPost(ctx context.Context, chatID int64, post *domain.Post) (int, error)
	SendAlbum(ctx context.Context, chatID int64, album *domain.Album) (int, error)
}

// InviteEnqueuer records a pending invite after a successful repost of a
// forwarded message. Implemented by the invite service.
type InviteEnqueuer interface {
	Enqueue(ctx context.Context, group *groupDomain.Group, msg *messageDomain.Message, newMessageID int, now time.Time) error
}

// Pipeline executes the fire-time critical section: re-validate eligibility
// against current state, delete the original, send the anonymous repost,
// record the fingerprint and enqueue a follow-up invite. Both the live
// scheduler and the batch runner drive it.
//
// All of that is serialized per group so two near-simultaneous duplicates can
// never both pass the checks; different groups proceed fully in parallel.
type Pipeline struct {
	cfg     *config.Config
	groups  *groupService.Service
	dedup   *dedupService.Service
	rate    *rateService.Service
	repo    repostRepo.Repository
	tr      Transport
	invites InviteEnqueuer

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewPipeline creates a new repost pipeline.
func NewPipeline(
	cfg *config.Config,
	groups *groupService.Service,
	dedup *dedupService.Service,
	rate *rateService.Service,
	repo repostRepo.Repository,
	tr Transport,
	invites InviteEnqueuer,
) *Pipeline {
	return &Pipeline{
		cfg:     cfg,
		groups:  groups,
		dedup:   dedup,
		rate:    rate,
		repo:    repo,
		tr:      tr,
		invites: invites,
		locks:   make(map[int64]*sync.Mutex),
	}
}

// Process pushes one message through the eligibility-and-repost sequence.
// It always re-reads the group configuration: state may have changed during
// the scheduling delay.
func (p *Pipeline) Process(ctx context.Context, msg *messageDomain.Message) (domain.Result, error) {
	group, err := p.groups.Snapshot(ctx, msg.ChatID)
	if err != nil {
		if errors.Is(err, apperrors.ErrGroupNotFound) {
			return domain.Result{Outcome: domain.OutcomeSkipped}, nil
		}
		return domain.Result{Outcome: domain.OutcomeFailed}, err
	}
	if !group.IsActive || group.Paused() {
		return domain.Result{Outcome: domain.OutcomeSkipped}, nil
	}

	lock := p.groupLock(msg.ChatID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	hash := dedupDomain.Fingerprint(msg.Text, msg.MediaRef())

	seen, err := p.dedup.SeenRecently(ctx, group, hash, now)
	if err != nil {
		return domain.Result{Outcome: domain.OutcomeFailed}, err
	}
	if seen {
		return p.reject(ctx, group, msg, domain.OutcomeDuplicate)
	}

	allowed, err := p.rate.TryConsume(ctx, group, msg.AuthorID, now)
	if err != nil {
		return domain.Result{Outcome: domain.OutcomeFailed}, err
	}
	if !allowed {
		return p.reject(ctx, group, msg, domain.OutcomeRateLimited)
	}

	if err := p.withRetry(ctx, func(c context.Context) error {
		return p.tr.DeleteMessage(c, msg.ChatID, msg.MessageID)
	}); err != nil {
		switch {
		case apperrors.IsContentGone(err):
			// Someone beat us to it; nothing to repost.
			return domain.Result{Outcome: domain.OutcomeCancelled}, nil
		case apperrors.IsPermission(err):
			p.pauseGroup(ctx, msg.ChatID, err)
			return domain.Result{Outcome: domain.OutcomeFailed}, err
		default:
			return domain.Result{Outcome: domain.OutcomeFailed},
				oops.With("chat_id", msg.ChatID, "message_id", msg.MessageID,
					"context", "failed to delete original").Wrap(err)
		}
	}

	post, err := p.buildPost(ctx, group, msg)
	if err != nil {
		return domain.Result{Outcome: domain.OutcomeFailed}, err
	}

	var newID int
	err = p.withRetry(ctx, func(c context.Context) error {
		id, sendErr := p.tr.SendPost(c, msg.ChatID, post)
		newID = id
		return sendErr
	})
	if err != nil {
		// The critical failure mode: the original is gone and the
		// replacement never made it. Preserve the content and shout.
		p.recordIncident(ctx, msg, err)
		if apperrors.IsPermission(err) {
			p.pauseGroup(ctx, msg.ChatID, err)
		}
		return domain.Result{Outcome: domain.OutcomeFailed},
			oops.With("chat_id", msg.ChatID, "message_id", msg.MessageID,
				"context", "original deleted but repost failed").Wrap(err)
	}

	p.advanceRotations(ctx, group)

	if err := p.dedup.Record(ctx, msg.ChatID, hash, now); err != nil {
		slog.Error("Failed to record fingerprint after repost",
			"chat_id", msg.ChatID, "message_id", msg.MessageID, "error", err)
	}

	if msg.Forwarded() && group.InviteEnabled && p.invites != nil {
		if err := p.invites.Enqueue(ctx, group, msg, newID, now); err != nil {
			slog.Error("Failed to enqueue invite",
				"chat_id", msg.ChatID, "author_id", msg.Forward.FromID, "error", err)
		}
	}

	slog.Info("Reposted message",
		"chat_id", msg.ChatID, "original_id", msg.MessageID, "new_id", newID)
	return domain.Result{Outcome: domain.OutcomeReposted, NewMessageID: newID}, nil
}

// ProcessAlbum pushes the collected members of one media group through the
// same eligibility sequence as a single message: one fingerprint over all
// members, one rate-limit slot, one replacement album with the suffix applied
// once. A member the transport already lost is skipped; the album is only
// cancelled when nothing is left to repost.
func (p *Pipeline) ProcessAlbum(ctx context.Context, msgs []*messageDomain.Message) (domain.Result, error) {
	if len(msgs) == 0 {
		return domain.Result{Outcome: domain.OutcomeSkipped}, nil
	}
	// A lone member (the rest of the album never arrived) reposts as a
	// regular message: the API requires at least two items in a media group.
	if len(msgs) == 1 {
		return p.Process(ctx, msgs[0])
	}
	head := msgs[0]

	group, err := p.groups.Snapshot(ctx, head.ChatID)
	if err != nil {
		if errors.Is(err, apperrors.ErrGroupNotFound) {
			return domain.Result{Outcome: domain.OutcomeSkipped}, nil
		}
		return domain.Result{Outcome: domain.OutcomeFailed}, err
	}
	if !group.IsActive || group.Paused() {
		return domain.Result{Outcome: domain.OutcomeSkipped}, nil
	}

	lock := p.groupLock(head.ChatID)
	lock.Lock()
	defer lock.Unlock()

	now := time.Now()
	hash := dedupDomain.Fingerprint(albumText(msgs), albumMediaRef(msgs))

	seen, err := p.dedup.SeenRecently(ctx, group, hash, now)
	if err != nil {
		return domain.Result{Outcome: domain.OutcomeFailed}, err
	}
	if seen {
		return p.rejectAlbum(ctx, group, msgs, domain.OutcomeDuplicate)
	}

	allowed, err := p.rate.TryConsume(ctx, group, head.AuthorID, now)
	if err != nil {
		return domain.Result{Outcome: domain.OutcomeFailed}, err
	}
	if !allowed {
		return p.rejectAlbum(ctx, group, msgs, domain.OutcomeRateLimited)
	}

	remaining := 0
	for _, m := range msgs {
		err := p.withRetry(ctx, func(c context.Context) error {
			return p.tr.DeleteMessage(c, m.ChatID, m.MessageID)
		})
		switch {
		case err == nil:
			remaining++
		case apperrors.IsContentGone(err):
		case apperrors.IsPermission(err):
			p.pauseGroup(ctx, head.ChatID, err)
			return domain.Result{Outcome: domain.OutcomeFailed}, err
		default:
			return domain.Result{Outcome: domain.OutcomeFailed},
				oops.With("chat_id", m.ChatID, "message_id", m.MessageID,
					"context", "failed to delete album member").Wrap(err)
		}
	}
	if remaining == 0 {
		return domain.Result{Outcome: domain.OutcomeCancelled}, nil
	}

	album := buildAlbum(group, msgs)
	var newID int
	err = p.withRetry(ctx, func(c context.Context) error {
		id, sendErr := p.tr.SendAlbum(c, head.ChatID, album)
		newID = id
		return sendErr
	})
	if err != nil {
		p.recordIncident(ctx, head, err)
		if apperrors.IsPermission(err) {
			p.pauseGroup(ctx, head.ChatID, err)
		}
		return domain.Result{Outcome: domain.OutcomeFailed},
			oops.With("chat_id", head.ChatID, "message_id", head.MessageID,
				"context", "album deleted but repost failed").Wrap(err)
	}

	if err := p.dedup.Record(ctx, head.ChatID, hash, now); err != nil {
		slog.Error("Failed to record fingerprint after album repost",
			"chat_id", head.ChatID, "message_id", head.MessageID, "error", err)
	}

	if head.Forwarded() && group.InviteEnabled && p.invites != nil {
		if err := p.invites.Enqueue(ctx, group, head, newID, now); err != nil {
			slog.Error("Failed to enqueue invite",
				"chat_id", head.ChatID, "author_id", head.Forward.FromID, "error", err)
		}
	}

	slog.Info("Reposted album",
		"chat_id", head.ChatID, "original_id", head.MessageID, "members", len(msgs), "new_id", newID)
	return domain.Result{Outcome: domain.OutcomeReposted, NewMessageID: newID}, nil
}

// Incidents returns the most recent failed repost records.
func (p *Pipeline) Incidents(ctx context.Context, limit int) ([]*domain.Incident, error) {
	return p.repo.ListIncidents(ctx, limit)
}

// reject applies the group's reject policy to an ineligible original. With
// the drop policy the original is deleted best-effort; with keep it stays.
func (p *Pipeline) reject(ctx context.Context, group *groupDomain.Group, msg *messageDomain.Message, outcome domain.Outcome) (domain.Result, error) {
	slog.Info("Repost rejected",
		"chat_id", msg.ChatID, "message_id", msg.MessageID, "outcome", outcome)
	if group.RejectPolicy == groupDomain.RejectPolicyDrop {
		if err := p.tr.DeleteMessage(ctx, msg.ChatID, msg.MessageID); err != nil && !apperrors.IsContentGone(err) {
			slog.Warn("Failed to drop rejected original",
				"chat_id", msg.ChatID, "message_id", msg.MessageID, "error", err)
		}
	}
	return domain.Result{Outcome: outcome}, nil
}

// rejectAlbum is the album counterpart of reject: with the drop policy every
// member is deleted best-effort.
func (p *Pipeline) rejectAlbum(ctx context.Context, group *groupDomain.Group, msgs []*messageDomain.Message, outcome domain.Outcome) (domain.Result, error) {
	head := msgs[0]
	slog.Info("Album repost rejected",
		"chat_id", head.ChatID, "message_id", head.MessageID, "members", len(msgs), "outcome", outcome)
	if group.RejectPolicy == groupDomain.RejectPolicyDrop {
		for _, m := range msgs {
			if err := p.tr.DeleteMessage(ctx, m.ChatID, m.MessageID); err != nil && !apperrors.IsContentGone(err) {
				slog.Warn("Failed to drop rejected album member",
					"chat_id", m.ChatID, "message_id", m.MessageID, "error", err)
			}
		}
	}
	return domain.Result{Outcome: outcome}, nil
}

func (p *Pipeline) buildPost(ctx context.Context, group *groupDomain.Group, msg *messageDomain.Message) (*domain.Post, error) {
	text := msg.Text
	if group.SuffixText != "" {
		if text != "" {
			text += "\n\n" + group.SuffixText
		} else {
			text = group.SuffixText
		}
	}

	post := &domain.Post{Text: text, Media: msg.Media}

	slots := len(group.Buttons)
	if slots > 2 {
		slots = 2
	}
	for slot := 0; slot < slots; slot++ {
		variants := group.SlotVariants(slot)
		idx, err := p.repo.Rotation(ctx, group.ChatID, slot, len(variants))
		if err != nil {
			return nil, err
		}
		url := group.Buttons[slot].URL
		if url == "" {
			url = fmt.Sprintf("tg://user?id=%d", msg.AuthorID)
		}
		post.Buttons = append(post.Buttons, domain.Button{Label: variants[idx], URL: url})
	}
	return post, nil
}

// advanceRotations moves the button rotation counters forward. Called only
// after a successful send so a failed delivery never skips a variant.
func (p *Pipeline) advanceRotations(ctx context.Context, group *groupDomain.Group) {
	slots := len(group.Buttons)
	if slots > 2 {
		slots = 2
	}
	for slot := 0; slot < slots; slot++ {
		if err := p.repo.AdvanceRotation(ctx, group.ChatID, slot, len(group.SlotVariants(slot))); err != nil {
			slog.Error("Failed to advance button rotation",
				"chat_id", group.ChatID, "slot", slot, "error", err)
		}
	}
}

func buildAlbum(group *groupDomain.Group, msgs []*messageDomain.Message) *domain.Album {
	caption := albumText(msgs)
	if group.SuffixText != "" {
		if caption != "" {
			caption += "\n\n" + group.SuffixText
		} else {
			caption = group.SuffixText
		}
	}

	album := &domain.Album{Caption: caption}
	for _, m := range msgs {
		if m.Media != nil {
			album.Items = append(album.Items, *m.Media)
		}
	}
	return album
}

// albumText returns the album caption: the first non-empty member text.
func albumText(msgs []*messageDomain.Message) string {
	for _, m := range msgs {
		if m.Text != "" {
			return m.Text
		}
	}
	return ""
}

// albumMediaRef joins the members' stable media ids into one fingerprint
// input so the album dedups as a unit.
func albumMediaRef(msgs []*messageDomain.Message) string {
	refs := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if ref := m.MediaRef(); ref != "" {
			refs = append(refs, ref)
		}
	}
	return strings.Join(refs, ",")
}

func (p *Pipeline) recordIncident(ctx context.Context, msg *messageDomain.Message, cause error) {
	incident := &domain.Incident{
		ChatID:    msg.ChatID,
		MessageID: msg.MessageID,
		AuthorID:  msg.AuthorID,
		Content:   msg.Text,
		Error:     cause.Error(),
	}
	if err := p.repo.SaveIncident(ctx, incident); err != nil {
		slog.Error("Failed to persist incident record",
			"chat_id", msg.ChatID, "message_id", msg.MessageID, "error", err)
	}
	slog.Error("INCIDENT: original deleted but repost failed, content preserved for manual recovery",
		"chat_id", msg.ChatID, "message_id", msg.MessageID, "incident_id", incident.ID, "error", cause)
}

func (p *Pipeline) pauseGroup(ctx context.Context, chatID int64, cause error) {
	if err := p.groups.Pause(ctx, chatID, cause.Error()); err != nil {
		slog.Error("Failed to pause group", "chat_id", chatID, "error", err)
	}
}

// withRetry runs op with the configured transport timeout, retrying
// transient failures with doubling backoff up to the configured attempt cap.
// Permission and content-gone errors are never retried.
func (p *Pipeline) withRetry(ctx context.Context, op func(context.Context) error) error {
	attempts := p.cfg.RetryMaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	backoff := time.Duration(p.cfg.RetryBackoffMS) * time.Millisecond
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}

	var err error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		callCtx, cancel := context.WithTimeout(ctx, p.cfg.TransportTimeout())
		err = op(callCtx)
		cancel()

		if err == nil || !apperrors.IsTransient(err) {
			return err
		}
	}
	return err
}

func (p *Pipeline) groupLock(chatID int64) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	lock, ok := p.locks[chatID]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[chatID] = lock
	}
	return lock
}
