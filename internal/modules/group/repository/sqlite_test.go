package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/reshetovitsme/post-normalizer/internal/modules/group/domain"
	apperrors "github.com/reshetovitsme/post-normalizer/internal/shared/errors"
	"github.com/reshetovitsme/post-normalizer/internal/shared/storage"
)

func newRepo(t *testing.T) Repository {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewSQLiteStorage(db)
}

func TestSaveAndGetRoundtrip(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	group := &domain.Group{
		ChatID:           -100123,
		Title:            "Барахолка",
		IsActive:         true,
		Type:             domain.GroupTypeOwn,
		Country:          "RU",
		Category:         "market",
		DelayMinSeconds:  60,
		DelayMaxSeconds:  120,
		LimitPostsDay:    3,
		LimitPostsWeek:   10,
		DedupWindowHours: 48,
		RejectPolicy:     domain.RejectPolicyDrop,
		SuffixText:       "Подпишись",
		Buttons: []domain.ButtonSlot{
			{Variants: []string{"Связь", "Автор"}},
			{Variants: []string{"Купить"}, URL: "https://example.org"},
		},
		InviteEnabled: true,
		InviteText:    "Привет, {author_name}!",
		RulesLink:     "https://example.org/rules",
	}
	if err := repo.Save(ctx, group); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := repo.Get(ctx, -100123)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != group.Title || got.Type != group.Type || got.RejectPolicy != group.RejectPolicy {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}
	if len(got.Buttons) != 2 || got.Buttons[0].Variants[1] != "Автор" || got.Buttons[1].URL != "https://example.org" {
		t.Fatalf("buttons not preserved: %+v", got.Buttons)
	}
	if got.LimitPostsDay != 3 || got.LimitPostsWeek != 10 || got.DedupWindowHours != 48 {
		t.Fatalf("limits not preserved: %+v", got)
	}
}

func TestGetUnknownGroup(t *testing.T) {
	repo := newRepo(t)

	_, err := repo.Get(context.Background(), -1)
	if !errors.Is(err, apperrors.ErrGroupNotFound) {
		t.Fatalf("Get error = %v, want ErrGroupNotFound", err)
	}
}

func TestPauseAndResume(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	group := &domain.Group{ChatID: -100124, Title: "G", IsActive: true, Type: domain.GroupTypeOther, RejectPolicy: domain.RejectPolicyKeep}
	if err := repo.Save(ctx, group); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := repo.SetPaused(ctx, -100124, "bot kicked"); err != nil {
		t.Fatalf("SetPaused: %v", err)
	}
	got, err := repo.Get(ctx, -100124)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.Paused() || got.PauseReason != "bot kicked" {
		t.Fatalf("not paused: %+v", got)
	}

	if err := repo.ClearPaused(ctx, -100124); err != nil {
		t.Fatalf("ClearPaused: %v", err)
	}
	got, err = repo.Get(ctx, -100124)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Paused() || got.PauseReason != "" {
		t.Fatalf("still paused: %+v", got)
	}
}

func TestSaveUpdatesExistingGroup(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()

	group := &domain.Group{ChatID: -100125, Title: "Before", IsActive: true, Type: domain.GroupTypeOther, RejectPolicy: domain.RejectPolicyKeep}
	if err := repo.Save(ctx, group); err != nil {
		t.Fatalf("Save: %v", err)
	}
	group.Title = "After"
	group.IsActive = false
	if err := repo.Save(ctx, group); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := repo.Get(ctx, -100125)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "After" || got.IsActive {
		t.Fatalf("update lost: %+v", got)
	}

	all, err := repo.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("GetAll = %d rows, want 1", len(all))
	}
}
