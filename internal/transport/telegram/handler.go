package telegram

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	groupService "github.com/reshetovitsme/post-normalizer/internal/modules/group/service"
	messageDomain "github.com/reshetovitsme/post-normalizer/internal/modules/message/domain"
	messageService "github.com/reshetovitsme/post-normalizer/internal/modules/message/service"
	repostService "github.com/reshetovitsme/post-normalizer/internal/modules/repost/service"
)

// Handler receives Telegram updates and feeds the repost scheduler. New
// group messages are archived and scheduled; edits and deletions cancel
// any pending repost for the edited message.
type Handler struct {
	groups    *groupService.Service
	archive   *messageService.Service
	scheduler *repostService.Scheduler
}

// NewHandler creates a new update handler.
func NewHandler(groups *groupService.Service, archive *messageService.Service, scheduler *repostService.Scheduler) *Handler {
	return &Handler{groups: groups, archive: archive, scheduler: scheduler}
}

// Handle is the default update handler registered on the bot.
func (h *Handler) Handle(ctx context.Context, b *bot.Bot, update *models.Update) {
	switch {
	case update.Message != nil:
		h.handleMessage(ctx, b, update.Message)
	case update.EditedMessage != nil:
		h.handleEdited(ctx, update.EditedMessage)
	}
}

func (h *Handler) handleMessage(ctx context.Context, b *bot.Bot, m *models.Message) {
	if m.Chat.Type != "supergroup" && m.Chat.Type != "group" {
		return
	}
	// Service messages and messages sent by the bot itself are never reposted.
	if m.From == nil || m.From.ID == b.ID() {
		return
	}
	if _, err := h.groups.Snapshot(ctx, m.Chat.ID); err != nil {
		return
	}

	msg := convertMessage(m)
	if msg.Empty() {
		return
	}

	if err := h.archive.Archive(ctx, msg); err != nil {
		slog.Error("Failed to archive message",
			"chat_id", msg.ChatID, "message_id", msg.MessageID, "error", err)
	}
	h.scheduler.Schedule(ctx, msg)
}

func (h *Handler) handleEdited(ctx context.Context, m *models.Message) {
	if h.scheduler.Cancel(m.Chat.ID, m.ID) {
		slog.Info("Cancelled repost for edited message",
			"chat_id", m.Chat.ID, "message_id", m.ID)
	}
	if err := h.archive.Forget(ctx, m.Chat.ID, m.ID); err != nil {
		slog.Error("Failed to forget edited message",
			"chat_id", m.Chat.ID, "message_id", m.ID, "error", err)
	}
}

func convertMessage(m *models.Message) *messageDomain.Message {
	msg := &messageDomain.Message{
		ChatID:       m.Chat.ID,
		MessageID:    m.ID,
		AuthorID:     m.From.ID,
		Text:         m.Text,
		MediaGroupID: m.MediaGroupID,
		Date:         time.Unix(int64(m.Date), 0).UTC(),
	}
	if msg.Text == "" {
		msg.Text = m.Caption
	}

	switch {
	case len(m.Photo) > 0:
		largest := m.Photo[len(m.Photo)-1]
		msg.Media = &messageDomain.Media{
			Type:     messageDomain.MediaTypePhoto,
			FileID:   largest.FileID,
			UniqueID: largest.FileUniqueID,
		}
	case m.Video != nil:
		msg.Media = &messageDomain.Media{
			Type:     messageDomain.MediaTypeVideo,
			FileID:   m.Video.FileID,
			UniqueID: m.Video.FileUniqueID,
		}
	case m.Document != nil:
		msg.Media = &messageDomain.Media{
			Type:     messageDomain.MediaTypeDocument,
			FileID:   m.Document.FileID,
			UniqueID: m.Document.FileUniqueID,
		}
	case m.Audio != nil:
		msg.Media = &messageDomain.Media{
			Type:     messageDomain.MediaTypeAudio,
			FileID:   m.Audio.FileID,
			UniqueID: m.Audio.FileUniqueID,
		}
	case m.Voice != nil:
		msg.Media = &messageDomain.Media{
			Type:     messageDomain.MediaTypeVoice,
			FileID:   m.Voice.FileID,
			UniqueID: m.Voice.FileUniqueID,
		}
	}

	if m.ForwardOrigin != nil {
		msg.Forward = convertForward(m.ForwardOrigin)
	}
	return msg
}

func convertForward(origin *models.MessageOrigin) *messageDomain.Forward {
	switch origin.Type {
	case models.MessageOriginTypeUser:
		u := origin.MessageOriginUser.SenderUser
		return &messageDomain.Forward{
			FromID:   u.ID,
			Name:     u.FirstName,
			Username: u.Username,
		}
	case models.MessageOriginTypeHiddenUser:
		return &messageDomain.Forward{
			Name: origin.MessageOriginHiddenUser.SenderUserName,
		}
	case models.MessageOriginTypeChat:
		c := origin.MessageOriginChat.SenderChat
		return &messageDomain.Forward{
			FromID: c.ID,
			Name:   c.Title,
		}
	case models.MessageOriginTypeChannel:
		c := origin.MessageOriginChannel.Chat
		return &messageDomain.Forward{
			FromID:   c.ID,
			Name:     c.Title,
			Username: c.Username,
		}
	}
	return nil
}
