package service

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/reshetovitsme/post-normalizer/internal/modules/batch/domain"
	batchRepo "github.com/reshetovitsme/post-normalizer/internal/modules/batch/repository"
	dedupRepo "github.com/reshetovitsme/post-normalizer/internal/modules/dedup/repository"
	dedupService "github.com/reshetovitsme/post-normalizer/internal/modules/dedup/service"
	groupDomain "github.com/reshetovitsme/post-normalizer/internal/modules/group/domain"
	groupRepo "github.com/reshetovitsme/post-normalizer/internal/modules/group/repository"
	groupService "github.com/reshetovitsme/post-normalizer/internal/modules/group/service"
	messageDomain "github.com/reshetovitsme/post-normalizer/internal/modules/message/domain"
	messageRepo "github.com/reshetovitsme/post-normalizer/internal/modules/message/repository"
	messageService "github.com/reshetovitsme/post-normalizer/internal/modules/message/service"
	rateRepo "github.com/reshetovitsme/post-normalizer/internal/modules/ratelimit/repository"
	rateService "github.com/reshetovitsme/post-normalizer/internal/modules/ratelimit/service"
	repostDomain "github.com/reshetovitsme/post-normalizer/internal/modules/repost/domain"
	repostRepo "github.com/reshetovitsme/post-normalizer/internal/modules/repost/repository"
	repostService "github.com/reshetovitsme/post-normalizer/internal/modules/repost/service"
	"github.com/reshetovitsme/post-normalizer/internal/shared/config"
	"github.com/reshetovitsme/post-normalizer/internal/shared/storage"
	"github.com/samber/oops"
)

type replayTransport struct {
	mu         sync.Mutex
	sent       int
	sentAlbums []*repostDomain.Album
	failing    bool
}

func (f *replayTransport) DeleteMessage(context.Context, int64, int) error { return nil }

func (f *replayTransport) SendPost(_ context.Context, _ int64, _ *repostDomain.Post) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return 0, oops.Errorf("transport down")
	}
	f.sent++
	return 5000 + f.sent, nil
}

func (f *replayTransport) SendAlbum(_ context.Context, _ int64, album *repostDomain.Album) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return 0, oops.Errorf("transport down")
	}
	f.sentAlbums = append(f.sentAlbums, album)
	return 6000 + len(f.sentAlbums), nil
}

func (f *replayTransport) setFailing(v bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failing = v
}

func (f *replayTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent
}

type replayFixture struct {
	svc     *Service
	tr      *replayTransport
	archive *messageService.Service
}

func newReplayFixture(t *testing.T, group *groupDomain.Group) *replayFixture {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	groups := groupService.New(groupRepo.NewSQLiteStorage(db))
	if err := groups.Save(ctx, group); err != nil {
		t.Fatalf("save group: %v", err)
	}
	archive := messageService.New(messageRepo.NewSQLiteStorage(db))

	tr := &replayTransport{}
	cfg := &config.Config{RetryMaxAttempts: 1, RetryBackoffMS: 1, TransportTimeoutSeconds: 5}
	pipeline := repostService.NewPipeline(cfg, groups,
		dedupService.New(dedupRepo.NewSQLiteStorage(db), groups),
		rateService.New(rateRepo.NewSQLiteStorage(db)),
		repostRepo.NewSQLiteStorage(db),
		tr, nil)

	svc := New(cfg, batchRepo.NewSQLiteStorage(db), groups, archive, pipeline)
	svc.SetPace(0)
	return &replayFixture{svc: svc, tr: tr, archive: archive}
}

func (f *replayFixture) archiveMessages(t *testing.T, chatID int64, ids ...int) {
	t.Helper()
	for _, id := range ids {
		msg := &messageDomain.Message{
			ChatID:    chatID,
			MessageID: id,
			AuthorID:  int64(100 + id),
			Text:      fmt.Sprintf("archived message %d", id),
			Date:      time.Now().UTC(),
		}
		if err := f.archive.Archive(context.Background(), msg); err != nil {
			t.Fatalf("archive %d: %v", id, err)
		}
	}
}

func replayGroup(chatID int64) *groupDomain.Group {
	return &groupDomain.Group{ChatID: chatID, Title: "History Group", IsActive: true}
}

func TestRunReplaysWholeRange(t *testing.T) {
	f := newReplayFixture(t, replayGroup(-100600))
	f.archiveMessages(t, -100600, 1, 2, 3, 4, 5)
	ctx := context.Background()

	job, err := f.svc.Create(ctx, -100600, 1, 5)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.Status != domain.JobStatusQueued {
		t.Fatalf("status = %v, want queued", job.Status)
	}

	job, err = f.svc.Run(ctx, job.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %v, want completed", job.Status)
	}
	if job.Processed != 5 || job.Reposted != 5 {
		t.Fatalf("processed=%d reposted=%d, want 5/5", job.Processed, job.Reposted)
	}
	if job.Cursor != 5 {
		t.Fatalf("cursor = %d, want 5", job.Cursor)
	}
}

func TestRunReplaysAlbumAsSingleUnit(t *testing.T) {
	f := newReplayFixture(t, replayGroup(-100606))
	ctx := context.Background()

	// Two archived album members followed by a plain message.
	for id := 1; id <= 2; id++ {
		msg := &messageDomain.Message{
			ChatID:       -100606,
			MessageID:    id,
			AuthorID:     101,
			MediaGroupID: "alb-1",
			Media: &messageDomain.Media{
				Type:     messageDomain.MediaTypePhoto,
				FileID:   fmt.Sprintf("file-%d", id),
				UniqueID: fmt.Sprintf("uniq-%d", id),
			},
			Date: time.Now().UTC(),
		}
		if msg.MessageID == 1 {
			msg.Text = "album caption"
		}
		if err := f.archive.Archive(ctx, msg); err != nil {
			t.Fatalf("archive %d: %v", id, err)
		}
	}
	f.archiveMessages(t, -100606, 3)

	job, err := f.svc.Create(ctx, -100606, 1, 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	job, err = f.svc.Run(ctx, job.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %v, want completed", job.Status)
	}
	if job.Processed != 3 || job.Reposted != 2 {
		t.Fatalf("processed=%d reposted=%d, want 3 processed and 2 reposts", job.Processed, job.Reposted)
	}
	if len(f.tr.sentAlbums) != 1 || f.tr.sentCount() != 1 {
		t.Fatalf("albums=%d posts=%d, want one album and one post", len(f.tr.sentAlbums), f.tr.sentCount())
	}
	if got := len(f.tr.sentAlbums[0].Items); got != 2 {
		t.Fatalf("album items = %d, want 2", got)
	}
}

func TestRunSkipsArchiveGaps(t *testing.T) {
	f := newReplayFixture(t, replayGroup(-100601))
	f.archiveMessages(t, -100601, 2, 4)
	ctx := context.Background()

	job, err := f.svc.Create(ctx, -100601, 1, 10)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	job, err = f.svc.Run(ctx, job.ID)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %v, want completed", job.Status)
	}
	if job.Processed != 2 {
		t.Fatalf("processed = %d, want 2 archived messages", job.Processed)
	}
}

func TestRerunOfSameRangeRepostsNothing(t *testing.T) {
	f := newReplayFixture(t, replayGroup(-100602))
	f.archiveMessages(t, -100602, 1, 2, 3)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, -100602, 1, 3)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Run(ctx, first.ID); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	second, err := f.svc.Create(ctx, -100602, 1, 3)
	if err != nil {
		t.Fatalf("second Create: %v", err)
	}
	second, err = f.svc.Run(ctx, second.ID)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}

	// Everything is rejected as duplicate; the rerun is effectively a no-op.
	if second.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %v, want completed", second.Status)
	}
	if second.Processed != 3 || second.Reposted != 0 {
		t.Fatalf("processed=%d reposted=%d, want 3/0", second.Processed, second.Reposted)
	}
	if f.tr.sentCount() != 3 {
		t.Fatalf("sent = %d, want only the first run's 3", f.tr.sentCount())
	}
}

func TestRunResumesFromCursorAfterFailure(t *testing.T) {
	f := newReplayFixture(t, replayGroup(-100603))
	f.archiveMessages(t, -100603, 1, 2, 3, 4)
	ctx := context.Background()

	job, err := f.svc.Create(ctx, -100603, 1, 4)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Break the transport after the first two replays.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for f.tr.sentCount() < 2 {
			time.Sleep(time.Millisecond)
		}
		f.tr.setFailing(true)
	}()
	f.svc.SetPace(5 * time.Millisecond)

	job, err = f.svc.Run(ctx, job.ID)
	<-done
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if job.Status != domain.JobStatusPartial {
		t.Fatalf("status = %v, want partial", job.Status)
	}
	if job.Cursor != 2 {
		t.Fatalf("cursor = %d, want 2", job.Cursor)
	}
	if job.Error == "" {
		t.Fatal("partial job carries no error description")
	}

	// Heal the transport and resume: only the remaining messages replay.
	f.tr.setFailing(false)
	f.svc.SetPace(0)
	job, err = f.svc.Run(ctx, job.ID)
	if err != nil {
		t.Fatalf("resume Run: %v", err)
	}
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %v, want completed", job.Status)
	}
	if job.Processed != 4 || job.Reposted != 4 {
		t.Fatalf("processed=%d reposted=%d, want 4/4", job.Processed, job.Reposted)
	}
	if f.tr.sentCount() != 4 {
		t.Fatalf("sent = %d, want 4 total", f.tr.sentCount())
	}
}

func TestRunLeavesTerminalJobsAlone(t *testing.T) {
	f := newReplayFixture(t, replayGroup(-100604))
	f.archiveMessages(t, -100604, 1)
	ctx := context.Background()

	job, err := f.svc.Create(ctx, -100604, 1, 1)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := f.svc.Run(ctx, job.ID); err != nil {
		t.Fatalf("Run: %v", err)
	}

	before := f.tr.sentCount()
	job, err = f.svc.Run(ctx, job.ID)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if job.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %v, want completed", job.Status)
	}
	if f.tr.sentCount() != before {
		t.Fatal("completed job replayed again")
	}
}

func TestCreateValidates(t *testing.T) {
	f := newReplayFixture(t, replayGroup(-100605))
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, -12345, 1, 10); err == nil {
		t.Fatal("Create accepted an unknown group")
	}
	if _, err := f.svc.Create(ctx, -100605, 10, 1); err == nil {
		t.Fatal("Create accepted an inverted range")
	}
}
