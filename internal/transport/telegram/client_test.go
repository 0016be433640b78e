package telegram

import (
	"fmt"
	"testing"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	apperrors "github.com/reshetovitsme/post-normalizer/internal/shared/errors"
)

func TestClassifyDeleteRightsProblemIsPermission(t *testing.T) {
	cases := []error{
		fmt.Errorf("%w: message can't be deleted", bot.ErrorBadRequest),
		fmt.Errorf("%w: not enough rights to delete the message", bot.ErrorBadRequest),
	}
	for _, cause := range cases {
		err := classifyDelete(cause, -100500)
		if !apperrors.IsPermission(err) {
			t.Fatalf("classifyDelete(%v) not classified as permission failure", cause)
		}
		if apperrors.IsContentGone(err) {
			t.Fatalf("classifyDelete(%v) classified as content gone", cause)
		}
	}
}

func TestClassifyDeleteMissingMessageIsContentGone(t *testing.T) {
	cases := []error{
		fmt.Errorf("%w: message to delete not found", bot.ErrorBadRequest),
		fmt.Errorf("%w: message not found", bot.ErrorNotFound),
	}
	for _, cause := range cases {
		if err := classifyDelete(cause, -100500); !apperrors.IsContentGone(err) {
			t.Fatalf("classifyDelete(%v) not classified as content gone", cause)
		}
	}
}

func TestClassifyDeleteForbiddenIsPermission(t *testing.T) {
	cause := fmt.Errorf("%w: bot was kicked from the supergroup chat", bot.ErrorForbidden)
	if err := classifyDelete(cause, -100500); !apperrors.IsPermission(err) {
		t.Fatal("forbidden delete not classified as permission failure")
	}
}

func TestClassifyDeleteTransientStaysTransient(t *testing.T) {
	cause := fmt.Errorf("connection reset by peer")
	err := classifyDelete(cause, -100500)
	if !apperrors.IsTransient(err) {
		t.Fatal("network failure on delete must stay retryable")
	}
}

func TestConvertMessageCarriesMediaGroupID(t *testing.T) {
	m := &models.Message{
		ID:           7,
		Chat:         models.Chat{ID: -100500, Type: "supergroup"},
		From:         &models.User{ID: 42},
		Caption:      "album caption",
		MediaGroupID: "13370001",
		Photo: []models.PhotoSize{
			{FileID: "small", FileUniqueID: "u-small"},
			{FileID: "large", FileUniqueID: "u-large"},
		},
	}

	msg := convertMessage(m)
	if msg.MediaGroupID != "13370001" {
		t.Fatalf("media group id = %q, want carried through", msg.MediaGroupID)
	}
	if msg.Text != "album caption" {
		t.Fatalf("text = %q", msg.Text)
	}
	if msg.Media == nil || msg.Media.FileID != "large" {
		t.Fatal("largest photo size not selected")
	}
}
