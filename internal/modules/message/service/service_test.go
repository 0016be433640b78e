package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/reshetovitsme/post-normalizer/internal/modules/message/domain"
	messageRepo "github.com/reshetovitsme/post-normalizer/internal/modules/message/repository"
	"github.com/reshetovitsme/post-normalizer/internal/shared/storage"
)

func newArchive(t *testing.T) *Service {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return New(messageRepo.NewSQLiteStorage(db))
}

func TestArchiveRoundtrip(t *testing.T) {
	svc := newArchive(t)
	ctx := context.Background()

	msg := &domain.Message{
		ChatID:       -100500,
		MessageID:    7,
		AuthorID:     42,
		Text:         "caption text",
		Media:        &domain.Media{Type: domain.MediaTypePhoto, FileID: "file-1", UniqueID: "uniq-1"},
		Forward:      &domain.Forward{FromID: 99, Name: "Anna", Username: "anna"},
		MediaGroupID: "13370001",
		Date:         time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := svc.Archive(ctx, msg); err != nil {
		t.Fatalf("Archive: %v", err)
	}

	got, err := svc.Get(ctx, -100500, 7)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("archived message not found")
	}
	if got.Text != msg.Text || got.AuthorID != msg.AuthorID {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
	if got.Media == nil || got.Media.UniqueID != "uniq-1" || got.Media.Type != domain.MediaTypePhoto {
		t.Fatalf("media not preserved: %+v", got.Media)
	}
	if got.Forward == nil || got.Forward.FromID != 99 || got.Forward.Username != "anna" {
		t.Fatalf("forward origin not preserved: %+v", got.Forward)
	}
	if got.MediaGroupID != "13370001" {
		t.Fatalf("media group id = %q, not preserved", got.MediaGroupID)
	}
	if !got.Date.Equal(msg.Date) {
		t.Fatalf("date = %v, want %v", got.Date, msg.Date)
	}
}

func TestArchiveSkipsEmptyMessages(t *testing.T) {
	svc := newArchive(t)
	ctx := context.Background()

	if err := svc.Archive(ctx, &domain.Message{ChatID: -100501, MessageID: 1}); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	got, err := svc.Get(ctx, -100501, 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatal("empty message was archived")
	}
}

func TestRangeOrderedAndBounded(t *testing.T) {
	svc := newArchive(t)
	ctx := context.Background()

	// Insert out of order; the range must come back ascending.
	for _, id := range []int{5, 1, 3, 9, 7} {
		msg := &domain.Message{
			ChatID:    -100502,
			MessageID: id,
			AuthorID:  42,
			Text:      fmt.Sprintf("message %d", id),
			Date:      time.Now().UTC(),
		}
		if err := svc.Archive(ctx, msg); err != nil {
			t.Fatalf("Archive %d: %v", id, err)
		}
	}

	msgs, err := svc.Range(ctx, -100502, 2, 8, 10)
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	var ids []int
	for _, m := range msgs {
		ids = append(ids, m.MessageID)
	}
	if len(ids) != 3 || ids[0] != 3 || ids[1] != 5 || ids[2] != 7 {
		t.Fatalf("range ids = %v, want [3 5 7]", ids)
	}

	limited, err := svc.Range(ctx, -100502, 1, 9, 2)
	if err != nil {
		t.Fatalf("limited Range: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("limit ignored, got %d rows", len(limited))
	}
}

func TestForgetRemovesMessage(t *testing.T) {
	svc := newArchive(t)
	ctx := context.Background()

	msg := &domain.Message{ChatID: -100503, MessageID: 2, AuthorID: 42, Text: "to be edited", Date: time.Now().UTC()}
	if err := svc.Archive(ctx, msg); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if err := svc.Forget(ctx, -100503, 2); err != nil {
		t.Fatalf("Forget: %v", err)
	}

	got, err := svc.Get(ctx, -100503, 2)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Fatal("forgotten message still archived")
	}
}
