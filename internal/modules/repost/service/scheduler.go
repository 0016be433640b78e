package service

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	groupDomain "github.com/reshetovitsme/post-normalizer/internal/modules/group/domain"
	groupService "github.com/reshetovitsme/post-normalizer/internal/modules/group/service"
	messageDomain "github.com/reshetovitsme/post-normalizer/internal/modules/message/domain"
)

// Pending repost states. The atomic transition out of stateScheduled decides
// the cancel-versus-fire race: exactly one side wins.
const (
	stateScheduled int32 = iota
	stateCancelled
	stateFired
)

type pendingKey struct {
	chatID    int64
	messageID int
}

type pendingRepost struct {
	state  atomic.Int32
	cancel chan struct{}
	msg    *messageDomain.Message
}

type albumKey struct {
	chatID  int64
	groupID string
}

// pendingAlbum collects the members of one media group under a single timer.
// msgs is guarded by the scheduler mutex: members keep arriving while the
// timer runs.
type pendingAlbum struct {
	state  atomic.Int32
	cancel chan struct{}
	msgs   []*messageDomain.Message
}

// Scheduler holds one cancellable timer per in-flight message and hands the
// message to the pipeline when the randomized delay elapses. Media-group
// members share a single timer keyed by the group id and fire as one album.
// No lock is held across the delay; eligibility is re-validated by the
// pipeline at fire time. Pending timers are in-memory only: a crash drops
// them, which keeps reposting at-most-once.
type Scheduler struct {
	groups   *groupService.Service
	pipeline *Pipeline

	mu      sync.Mutex
	pending map[pendingKey]*pendingRepost
	albums  map[albumKey]*pendingAlbum
	members map[pendingKey]albumKey
	stopped bool

	delayFn func(*groupDomain.Group) time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a new delay scheduler.
func NewScheduler(groups *groupService.Service, pipeline *Pipeline) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		groups:   groups,
		pipeline: pipeline,
		pending:  make(map[pendingKey]*pendingRepost),
		albums:   make(map[albumKey]*pendingAlbum),
		members:  make(map[pendingKey]albumKey),
		delayFn:  randomDelay,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetDelayFunc overrides the delay computation. Used by tests.
func (s *Scheduler) SetDelayFunc(fn func(*groupDomain.Group) time.Duration) {
	s.delayFn = fn
}

func randomDelay(group *groupDomain.Group) time.Duration {
	min, max := group.DelayRange()
	return time.Duration(min+rand.IntN(max-min+1)) * time.Second
}

// Schedule registers a delayed repost for a newly seen message. Re-seeing
// the same message id is a no-op. Members of one media group coalesce onto
// the timer started by the first member.
func (s *Scheduler) Schedule(ctx context.Context, msg *messageDomain.Message) {
	if msg.Empty() {
		return
	}

	group, err := s.groups.Snapshot(ctx, msg.ChatID)
	if err != nil || !group.IsActive || group.Paused() {
		return
	}

	if msg.MediaGroupID != "" {
		s.scheduleAlbumMember(group, msg)
		return
	}

	key := pendingKey{msg.ChatID, msg.MessageID}
	entry := &pendingRepost{cancel: make(chan struct{}), msg: msg}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if _, exists := s.pending[key]; exists {
		s.mu.Unlock()
		return
	}
	s.pending[key] = entry
	s.wg.Add(1)
	s.mu.Unlock()

	delay := s.delayFn(group)
	slog.Info("Scheduled repost",
		"chat_id", msg.ChatID, "message_id", msg.MessageID, "delay", delay)

	go s.wait(key, entry, delay)
}

// scheduleAlbumMember attaches msg to the pending album of its media group,
// starting the timer on the first member. A member arriving after the album
// fired starts a fresh entry and reposts on its own; the delay is long
// relative to album delivery so that stays theoretical.
func (s *Scheduler) scheduleAlbumMember(group *groupDomain.Group, msg *messageDomain.Message) {
	key := albumKey{msg.ChatID, msg.MediaGroupID}
	memberKey := pendingKey{msg.ChatID, msg.MessageID}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if _, exists := s.members[memberKey]; exists {
		s.mu.Unlock()
		return
	}
	if entry, exists := s.albums[key]; exists {
		entry.msgs = append(entry.msgs, msg)
		s.members[memberKey] = key
		s.mu.Unlock()
		slog.Debug("Joined pending album",
			"chat_id", msg.ChatID, "message_id", msg.MessageID, "media_group_id", msg.MediaGroupID)
		return
	}
	entry := &pendingAlbum{cancel: make(chan struct{}), msgs: []*messageDomain.Message{msg}}
	s.albums[key] = entry
	s.members[memberKey] = key
	s.wg.Add(1)
	s.mu.Unlock()

	delay := s.delayFn(group)
	slog.Info("Scheduled album repost",
		"chat_id", msg.ChatID, "media_group_id", msg.MediaGroupID, "delay", delay)

	go s.waitAlbum(key, entry, delay)
}

func (s *Scheduler) wait(key pendingKey, entry *pendingRepost, delay time.Duration) {
	defer s.wg.Done()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		s.fire(key, entry)
	case <-entry.cancel:
	case <-s.ctx.Done():
	}
}

func (s *Scheduler) waitAlbum(key albumKey, entry *pendingAlbum, delay time.Duration) {
	defer s.wg.Done()

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		s.fireAlbum(key, entry)
	case <-entry.cancel:
	case <-s.ctx.Done():
	}
}

func (s *Scheduler) fire(key pendingKey, entry *pendingRepost) {
	if !entry.state.CompareAndSwap(stateScheduled, stateFired) {
		// A concurrent cancel won.
		return
	}

	s.mu.Lock()
	delete(s.pending, key)
	s.mu.Unlock()

	result, err := s.pipeline.Process(s.ctx, entry.msg)
	if err != nil {
		slog.Error("Repost failed",
			"chat_id", key.chatID, "message_id", key.messageID, "error", err)
		return
	}
	slog.Debug("Pending repost completed",
		"chat_id", key.chatID, "message_id", key.messageID, "outcome", result.Outcome)
}

func (s *Scheduler) fireAlbum(key albumKey, entry *pendingAlbum) {
	if !entry.state.CompareAndSwap(stateScheduled, stateFired) {
		return
	}

	s.mu.Lock()
	msgs := entry.msgs
	delete(s.albums, key)
	for _, m := range msgs {
		delete(s.members, pendingKey{m.ChatID, m.MessageID})
	}
	s.mu.Unlock()

	result, err := s.pipeline.ProcessAlbum(s.ctx, msgs)
	if err != nil {
		slog.Error("Album repost failed",
			"chat_id", key.chatID, "media_group_id", key.groupID, "error", err)
		return
	}
	slog.Debug("Pending album completed",
		"chat_id", key.chatID, "media_group_id", key.groupID, "outcome", result.Outcome)
}

// Cancel discards the pending repost for a message, if any. A message that
// belongs to a pending album cancels the whole album. Returns whether a
// pending entry was actually cancelled; false means the timer already fired
// (or nothing was scheduled) and the fire proceeds untouched.
func (s *Scheduler) Cancel(chatID int64, messageID int) bool {
	key := pendingKey{chatID, messageID}

	s.mu.Lock()
	if akey, ok := s.members[key]; ok {
		entry := s.albums[akey]
		delete(s.albums, akey)
		for _, m := range entry.msgs {
			delete(s.members, pendingKey{m.ChatID, m.MessageID})
		}
		s.mu.Unlock()

		if entry.state.CompareAndSwap(stateScheduled, stateCancelled) {
			close(entry.cancel)
			slog.Info("Cancelled pending album",
				"chat_id", chatID, "message_id", messageID, "media_group_id", akey.groupID)
			return true
		}
		return false
	}

	entry, ok := s.pending[key]
	if ok {
		delete(s.pending, key)
	}
	s.mu.Unlock()
	if !ok {
		return false
	}

	if entry.state.CompareAndSwap(stateScheduled, stateCancelled) {
		close(entry.cancel)
		slog.Info("Cancelled pending repost", "chat_id", chatID, "message_id", messageID)
		return true
	}
	return false
}

// CancelGroup discards every pending repost of a group, used when the group
// is deactivated or paused.
func (s *Scheduler) CancelGroup(chatID int64) int {
	s.mu.Lock()
	var keys []pendingKey
	for key := range s.pending {
		if key.chatID == chatID {
			keys = append(keys, key)
		}
	}
	for key := range s.members {
		if key.chatID == chatID {
			keys = append(keys, key)
		}
	}
	s.mu.Unlock()

	cancelled := 0
	for _, key := range keys {
		if s.Cancel(key.chatID, key.messageID) {
			cancelled++
		}
	}
	return cancelled
}

// PendingCount reports the number of in-flight timers.
func (s *Scheduler) PendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending) + len(s.albums)
}

// Stop cancels all timers and waits for in-flight fires to finish. Further
// Schedule calls become no-ops.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
