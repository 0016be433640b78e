package service

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	groupDomain "github.com/reshetovitsme/post-normalizer/internal/modules/group/domain"
	groupRepo "github.com/reshetovitsme/post-normalizer/internal/modules/group/repository"
	groupService "github.com/reshetovitsme/post-normalizer/internal/modules/group/service"
	"github.com/reshetovitsme/post-normalizer/internal/modules/invite/domain"
	inviteRepo "github.com/reshetovitsme/post-normalizer/internal/modules/invite/repository"
	messageDomain "github.com/reshetovitsme/post-normalizer/internal/modules/message/domain"
	"github.com/reshetovitsme/post-normalizer/internal/shared/storage"
)

type directMessage struct {
	userID int64
	text   string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []directMessage
}

func (f *fakeSender) SendDirectMessage(_ context.Context, userID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, directMessage{userID, text})
	return nil
}

func newService(t *testing.T, group *groupDomain.Group) (*Service, *fakeSender) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	groups := groupService.New(groupRepo.NewSQLiteStorage(db))
	if err := groups.Save(context.Background(), group); err != nil {
		t.Fatalf("save group: %v", err)
	}

	sender := &fakeSender{}
	return New(inviteRepo.NewSQLiteStorage(db), groups, sender), sender
}

func inviteGroup(chatID int64) *groupDomain.Group {
	return &groupDomain.Group{
		ChatID:        chatID,
		Title:         "Invite Group",
		IsActive:      true,
		InviteEnabled: true,
		RulesLink:     "https://example.org/rules",
	}
}

func forwardedMessage(chatID int64, messageID int, fromID int64) *messageDomain.Message {
	return &messageDomain.Message{
		ChatID:    chatID,
		MessageID: messageID,
		AuthorID:  42,
		Text:      "forwarded content",
		Forward:   &messageDomain.Forward{FromID: fromID, Name: "Ivan", Username: "ivan"},
		Date:      time.Now().UTC(),
	}
}

func TestInviteDeliveredExactlyOnce(t *testing.T) {
	group := inviteGroup(-100400)
	svc, sender := newService(t, group)
	ctx := context.Background()

	// Enqueued more than seven days ago so the invite is due now.
	then := time.Now().Add(-8 * 24 * time.Hour)
	if err := svc.Enqueue(ctx, group, forwardedMessage(-100400, 1, 777), 2001, then); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	svc.Sweep(ctx)
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}
	if sender.sent[0].userID != 777 {
		t.Fatalf("sent to %d, want 777", sender.sent[0].userID)
	}

	// A second sweep must not resend.
	svc.Sweep(ctx)
	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d after second sweep, want still 1", len(sender.sent))
	}
}

func TestInviteNotDueYet(t *testing.T) {
	group := inviteGroup(-100401)
	svc, sender := newService(t, group)
	ctx := context.Background()

	if err := svc.Enqueue(ctx, group, forwardedMessage(-100401, 1, 777), 2001, time.Now()); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	svc.Sweep(ctx)
	if len(sender.sent) != 0 {
		t.Fatal("invite sent before its due time")
	}
}

func TestInviteTemplateRendered(t *testing.T) {
	group := inviteGroup(-100402)
	group.InviteText = "Hi {author_name} (@{author_username}), your post in {group_name}: {post_link}. Rules: {rules_link}"
	svc, sender := newService(t, group)
	ctx := context.Background()

	then := time.Now().Add(-8 * 24 * time.Hour)
	if err := svc.Enqueue(ctx, group, forwardedMessage(-100402, 1, 777), 55, then); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	svc.Sweep(ctx)

	if len(sender.sent) != 1 {
		t.Fatalf("sent = %d, want 1", len(sender.sent))
	}
	text := sender.sent[0].text
	for _, want := range []string{"Ivan", "@ivan", "Invite Group", "https://t.me/c/402/55", "https://example.org/rules"} {
		if !strings.Contains(text, want) {
			t.Fatalf("rendered invite %q missing %q", text, want)
		}
	}
	if strings.Contains(text, "{") {
		t.Fatalf("unexpanded placeholder left in %q", text)
	}
}

func TestQueuedInvitesPurgedWhenDisabled(t *testing.T) {
	group := inviteGroup(-100403)
	svc, sender := newService(t, group)
	ctx := context.Background()

	then := time.Now().Add(-8 * 24 * time.Hour)
	if err := svc.Enqueue(ctx, group, forwardedMessage(-100403, 1, 777), 2001, then); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	// The group turns invites off before the sweep runs.
	group.InviteEnabled = false
	if err := svc.groups.Save(ctx, group); err != nil {
		t.Fatalf("save group: %v", err)
	}

	svc.Sweep(ctx)
	if len(sender.sent) != 0 {
		t.Fatal("queued invite honored after invites were disabled")
	}

	// Purged, not deferred: re-enabling does not revive it.
	group.InviteEnabled = true
	if err := svc.groups.Save(ctx, group); err != nil {
		t.Fatalf("save group: %v", err)
	}
	svc.Sweep(ctx)
	if len(sender.sent) != 0 {
		t.Fatal("purged invite came back after re-enabling invites")
	}
}

func TestEnqueueRefreshesUnsentInvite(t *testing.T) {
	group := inviteGroup(-100404)
	svc, _ := newService(t, group)
	ctx := context.Background()

	first := time.Now().Add(-time.Hour)
	if err := svc.Enqueue(ctx, group, forwardedMessage(-100404, 1, 777), 10, first); err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}
	second := time.Now()
	if err := svc.Enqueue(ctx, group, forwardedMessage(-100404, 2, 777), 20, second); err != nil {
		t.Fatalf("second Enqueue: %v", err)
	}

	invite, err := svc.repo.Get(ctx, -100404, 777)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if invite.PostMessageID != 20 {
		t.Fatalf("post id = %d, want refreshed to 20", invite.PostMessageID)
	}
	if !invite.DueAt.After(first.Add(domain.DueAfter)) {
		t.Fatal("due time not refreshed by the newer post")
	}
}

func TestPostLinkStripsInternalPrefix(t *testing.T) {
	if got := PostLink(-1001234567890, 42); got != "https://t.me/c/1234567890/42" {
		t.Fatalf("PostLink = %q", got)
	}
	if got := PostLink(-987654, 7); got != "https://t.me/c/987654/7" {
		t.Fatalf("PostLink = %q", got)
	}
}
