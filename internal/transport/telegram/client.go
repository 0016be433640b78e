package telegram

import (
	"context"
	"errors"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	messageDomain "github.com/reshetovitsme/post-normalizer/internal/modules/message/domain"
	repostDomain "github.com/reshetovitsme/post-normalizer/internal/modules/repost/domain"
	apperrors "github.com/reshetovitsme/post-normalizer/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Client adapts the go-telegram bot to the transport interfaces the pipeline
// and invite service consume. Telegram Bot API errors are classified into
// the shared taxonomy here; callers only see permission, content-gone or
// transient failures.
type Client struct {
	bot *bot.Bot
}

// NewClient creates a new transport client. The bot is attached later via
// SetBot, once update handlers are registered.
func NewClient() *Client {
	return &Client{}
}

// SetBot sets the bot
func (c *Client) SetBot(b *bot.Bot) {
	c.bot = b
}

// DeleteMessage removes the original message from the group.
func (c *Client) DeleteMessage(ctx context.Context, chatID int64, messageID int) error {
	_, err := c.bot.DeleteMessage(ctx, &bot.DeleteMessageParams{
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		return classifyDelete(err, chatID)
	}
	return nil
}

// classifyDelete sorts delete failures into the shared taxonomy. Telegram
// reports both "already gone" and "not allowed to delete" as bad requests,
// so the description decides: a rights problem pauses the group, everything
// else bad-request-shaped means the message is not there to delete.
func classifyDelete(err error, chatID int64) error {
	desc := strings.ToLower(err.Error())
	if strings.Contains(desc, "can't be deleted") || strings.Contains(desc, "not enough rights") {
		return oops.With("chat_id", chatID, "context", "failed to delete message").Wrap(apperrors.ErrPermissionDenied)
	}
	if errors.Is(err, bot.ErrorBadRequest) || errors.Is(err, bot.ErrorNotFound) {
		return apperrors.ErrContentGone
	}
	return classify(err, chatID, "failed to delete message")
}

// SendPost publishes the anonymous replacement, authored as the group
// identity (the bot), and returns the new message id.
func (c *Client) SendPost(ctx context.Context, chatID int64, post *repostDomain.Post) (int, error) {
	markup := buttonMarkup(post.Buttons)

	var (
		sent *models.Message
		err  error
	)
	switch {
	case post.Media == nil:
		sent, err = c.bot.SendMessage(ctx, &bot.SendMessageParams{
			ChatID:      chatID,
			Text:        post.Text,
			ReplyMarkup: markup,
		})
	case post.Media.Type == messageDomain.MediaTypePhoto:
		sent, err = c.bot.SendPhoto(ctx, &bot.SendPhotoParams{
			ChatID:      chatID,
			Photo:       &models.InputFileString{Data: post.Media.FileID},
			Caption:     post.Text,
			ReplyMarkup: markup,
		})
	case post.Media.Type == messageDomain.MediaTypeVideo:
		sent, err = c.bot.SendVideo(ctx, &bot.SendVideoParams{
			ChatID:      chatID,
			Video:       &models.InputFileString{Data: post.Media.FileID},
			Caption:     post.Text,
			ReplyMarkup: markup,
		})
	case post.Media.Type == messageDomain.MediaTypeAudio:
		sent, err = c.bot.SendAudio(ctx, &bot.SendAudioParams{
			ChatID:      chatID,
			Audio:       &models.InputFileString{Data: post.Media.FileID},
			Caption:     post.Text,
			ReplyMarkup: markup,
		})
	case post.Media.Type == messageDomain.MediaTypeVoice:
		sent, err = c.bot.SendVoice(ctx, &bot.SendVoiceParams{
			ChatID:      chatID,
			Voice:       &models.InputFileString{Data: post.Media.FileID},
			Caption:     post.Text,
			ReplyMarkup: markup,
		})
	default:
		sent, err = c.bot.SendDocument(ctx, &bot.SendDocumentParams{
			ChatID:      chatID,
			Document:    &models.InputFileString{Data: post.Media.FileID},
			Caption:     post.Text,
			ReplyMarkup: markup,
		})
	}
	if err != nil {
		return 0, classify(err, chatID, "failed to send repost")
	}
	return sent.ID, nil
}

// SendAlbum publishes the anonymous replacement for a media group and
// returns the id of its first message. The caption goes on the first item;
// media groups cannot carry a reply markup.
func (c *Client) SendAlbum(ctx context.Context, chatID int64, album *repostDomain.Album) (int, error) {
	media := make([]models.InputMedia, 0, len(album.Items))
	for i, item := range album.Items {
		caption := ""
		if i == 0 {
			caption = album.Caption
		}
		media = append(media, inputMedia(item, caption))
	}

	sent, err := c.bot.SendMediaGroup(ctx, &bot.SendMediaGroupParams{
		ChatID: chatID,
		Media:  media,
	})
	if err != nil {
		return 0, classify(err, chatID, "failed to send album repost")
	}
	if len(sent) == 0 {
		return 0, oops.With("chat_id", chatID, "context", "empty media group response").Errorf("no messages sent")
	}
	return sent[0].ID, nil
}

func inputMedia(item messageDomain.Media, caption string) models.InputMedia {
	switch item.Type {
	case messageDomain.MediaTypePhoto:
		return &models.InputMediaPhoto{Media: item.FileID, Caption: caption}
	case messageDomain.MediaTypeVideo:
		return &models.InputMediaVideo{Media: item.FileID, Caption: caption}
	case messageDomain.MediaTypeAudio, messageDomain.MediaTypeVoice:
		return &models.InputMediaAudio{Media: item.FileID, Caption: caption}
	default:
		return &models.InputMediaDocument{Media: item.FileID, Caption: caption}
	}
}

// SendDirectMessage delivers a private message to a user.
func (c *Client) SendDirectMessage(ctx context.Context, userID int64, text string) error {
	_, err := c.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: userID,
		Text:   text,
	})
	if err != nil {
		return classify(err, userID, "failed to send direct message")
	}
	return nil
}

func buttonMarkup(buttons []repostDomain.Button) models.ReplyMarkup {
	if len(buttons) == 0 {
		return nil
	}
	rows := lo.Map(buttons, func(b repostDomain.Button, _ int) []models.InlineKeyboardButton {
		return []models.InlineKeyboardButton{{Text: b.Label, URL: b.URL}}
	})
	return &models.InlineKeyboardMarkup{InlineKeyboard: rows}
}

func classify(err error, chatID int64, context string) error {
	switch {
	case errors.Is(err, bot.ErrorForbidden), errors.Is(err, bot.ErrorUnauthorized):
		return oops.With("chat_id", chatID, "context", context).Wrap(apperrors.ErrPermissionDenied)
	default:
		return oops.With("chat_id", chatID, "context", context).Wrap(err)
	}
}
