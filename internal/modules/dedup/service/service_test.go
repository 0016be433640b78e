package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	dedupRepo "github.com/reshetovitsme/post-normalizer/internal/modules/dedup/repository"
	groupDomain "github.com/reshetovitsme/post-normalizer/internal/modules/group/domain"
	groupRepo "github.com/reshetovitsme/post-normalizer/internal/modules/group/repository"
	groupService "github.com/reshetovitsme/post-normalizer/internal/modules/group/service"
	"github.com/reshetovitsme/post-normalizer/internal/shared/storage"
)

func newService(t *testing.T) (*Service, *groupService.Service) {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	groups := groupService.New(groupRepo.NewSQLiteStorage(db))
	return New(dedupRepo.NewSQLiteStorage(db), groups), groups
}

func testGroup(chatID int64) *groupDomain.Group {
	return &groupDomain.Group{ChatID: chatID, IsActive: true, DedupWindowHours: 72}
}

func TestSeenRecentlyInsideWindow(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	group := testGroup(-100123)
	now := time.Now()

	seen, err := svc.SeenRecently(ctx, group, "hash1", now)
	if err != nil {
		t.Fatalf("SeenRecently: %v", err)
	}
	if seen {
		t.Fatal("fresh hash reported as seen")
	}

	if err := svc.Record(ctx, group.ChatID, "hash1", now.Add(-time.Hour)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	seen, err = svc.SeenRecently(ctx, group, "hash1", now)
	if err != nil {
		t.Fatalf("SeenRecently: %v", err)
	}
	if !seen {
		t.Fatal("hash recorded an hour ago not reported as seen")
	}
}

func TestSeenRecentlyExpiry(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	group := testGroup(-100123)
	now := time.Now()

	// Recorded just beyond the 72h window: must not count as a duplicate.
	if err := svc.Record(ctx, group.ChatID, "old", now.Add(-73*time.Hour)); err != nil {
		t.Fatalf("Record: %v", err)
	}
	seen, err := svc.SeenRecently(ctx, group, "old", now)
	if err != nil {
		t.Fatalf("SeenRecently: %v", err)
	}
	if seen {
		t.Fatal("expired record caused a false positive")
	}
}

func TestNoCrossGroupInterference(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	now := time.Now()

	if err := svc.Record(ctx, -100111, "shared", now); err != nil {
		t.Fatalf("Record: %v", err)
	}
	seen, err := svc.SeenRecently(ctx, testGroup(-100222), "shared", now)
	if err != nil {
		t.Fatalf("SeenRecently: %v", err)
	}
	if seen {
		t.Fatal("hash recorded in one group was visible in another")
	}
}

func TestSweepRemovesOnlyStaleRecords(t *testing.T) {
	svc, groups := newService(t)
	ctx := context.Background()
	now := time.Now()

	group := testGroup(-100111)
	if err := groups.Save(ctx, group); err != nil {
		t.Fatalf("save group: %v", err)
	}
	// Stale: beyond the 72h window plus grace. Fresh: one hour old.
	if err := svc.Record(ctx, group.ChatID, "stale", now.Add(-(72*time.Hour + RetentionGrace + time.Hour))); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := svc.Record(ctx, group.ChatID, "fresh", now.Add(-time.Hour)); err != nil {
		t.Fatalf("Record: %v", err)
	}

	svc.Sweep(ctx)

	seen, err := svc.SeenRecently(ctx, group, "fresh", now)
	if err != nil || !seen {
		t.Fatalf("fresh record lost by sweep (seen=%v err=%v)", seen, err)
	}
}

func TestSweepHonorsWidestGroupWindow(t *testing.T) {
	svc, groups := newService(t)
	ctx := context.Background()
	now := time.Now()

	// One group runs a 10-day window; the sweep cutoff must follow it.
	narrow := testGroup(-100111)
	wide := &groupDomain.Group{ChatID: -100333, IsActive: true, DedupWindowHours: 240}
	for _, g := range []*groupDomain.Group{narrow, wide} {
		if err := groups.Save(ctx, g); err != nil {
			t.Fatalf("save group: %v", err)
		}
	}

	// Recorded 8 days and 2 hours ago: well inside the 240h window.
	seenAt := now.Add(-(8*24 + 2) * time.Hour)
	if err := svc.Record(ctx, wide.ChatID, "wide-hash", seenAt); err != nil {
		t.Fatalf("Record: %v", err)
	}

	seen, err := svc.SeenRecently(ctx, wide, "wide-hash", now)
	if err != nil {
		t.Fatalf("SeenRecently before sweep: %v", err)
	}
	if !seen {
		t.Fatal("record inside the 240h window not seen before sweep")
	}

	svc.Sweep(ctx)

	seen, err = svc.SeenRecently(ctx, wide, "wide-hash", now)
	if err != nil {
		t.Fatalf("SeenRecently after sweep: %v", err)
	}
	if !seen {
		t.Fatal("sweep deleted a record still inside the group's configured window")
	}
}
