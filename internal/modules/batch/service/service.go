package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/reshetovitsme/post-normalizer/internal/modules/batch/domain"
	batchRepo "github.com/reshetovitsme/post-normalizer/internal/modules/batch/repository"
	groupService "github.com/reshetovitsme/post-normalizer/internal/modules/group/service"
	messageService "github.com/reshetovitsme/post-normalizer/internal/modules/message/service"
	repostDomain "github.com/reshetovitsme/post-normalizer/internal/modules/repost/domain"
	repostService "github.com/reshetovitsme/post-normalizer/internal/modules/repost/service"
	"github.com/reshetovitsme/post-normalizer/internal/shared/config"
	apperrors "github.com/reshetovitsme/post-normalizer/internal/shared/errors"
	"github.com/samber/oops"
)

const pageSize = 200

// Service replays archived history through the repost pipeline. The same
// eligibility logic as the live path applies, without the randomized delay
// but with explicit pacing so batch runs stay under external API limits.
type Service struct {
	cfg      *config.Config
	repo     batchRepo.Repository
	groups   *groupService.Service
	archive  *messageService.Service
	pipeline *repostService.Pipeline

	pace time.Duration
}

// New creates a new batch runner.
func New(cfg *config.Config, repo batchRepo.Repository, groups *groupService.Service,
	archive *messageService.Service, pipeline *repostService.Pipeline) *Service {
	return &Service{
		cfg:      cfg,
		repo:     repo,
		groups:   groups,
		archive:  archive,
		pipeline: pipeline,
		pace:     cfg.BatchPace(),
	}
}

// SetPace overrides the spacing between transport-touching replays. Used by
// tests.
func (s *Service) SetPace(pace time.Duration) {
	s.pace = pace
}

// Create registers a new queued job for a group's message id range.
func (s *Service) Create(ctx context.Context, chatID int64, fromID, toID int) (*domain.Job, error) {
	if _, err := s.groups.Snapshot(ctx, chatID); err != nil {
		return nil, err
	}
	if toID < fromID {
		return nil, oops.With("from_message_id", fromID, "to_message_id", toID).
			Errorf("invalid message id range")
	}

	job := &domain.Job{
		ID:            uuid.NewString(),
		ChatID:        chatID,
		FromMessageID: fromID,
		ToMessageID:   toID,
		Cursor:        fromID - 1,
		Status:        domain.JobStatusQueued,
	}
	if err := s.repo.Save(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Get returns a job by id.
func (s *Service) Get(ctx context.Context, id string) (*domain.Job, error) {
	return s.repo.Get(ctx, id)
}

// List returns jobs, optionally filtered by group.
func (s *Service) List(ctx context.Context, chatID int64) ([]*domain.Job, error) {
	if chatID != 0 {
		return s.repo.GetByChat(ctx, chatID)
	}
	return s.repo.GetAll(ctx)
}

// Run drives a job to a terminal status. A queued or partial job resumes
// after its progress cursor; a completed or failed job is left alone.
// Interruption (context cancelled, repeated transport failure) ends the run
// as partial with the cursor preserved — a valid outcome, not an error.
func (s *Service) Run(ctx context.Context, jobID string) (*domain.Job, error) {
	job, err := s.repo.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status == domain.JobStatusCompleted || job.Status == domain.JobStatusFailed {
		return job, nil
	}

	job.Status = domain.JobStatusRunning
	job.Error = ""
	if err := s.repo.Save(ctx, job); err != nil {
		return nil, err
	}
	slog.Info("Batch job running",
		"job_id", job.ID, "chat_id", job.ChatID, "cursor", job.Cursor, "to", job.ToMessageID)

	for job.Cursor < job.ToMessageID {
		messages, err := s.archive.Range(ctx, job.ChatID, job.Cursor+1, job.ToMessageID, pageSize)
		if err != nil {
			return s.finish(ctx, job, domain.JobStatusPartial, err)
		}
		if len(messages) == 0 {
			break
		}

		for i := 0; i < len(messages); {
			if ctx.Err() != nil {
				return s.finish(ctx, job, domain.JobStatusPartial, ctx.Err())
			}

			// Consecutive members of one media group replay as a single album.
			unit := messages[i : i+1]
			if gid := messages[i].MediaGroupID; gid != "" {
				j := i + 1
				for j < len(messages) && messages[j].MediaGroupID == gid {
					j++
				}
				unit = messages[i:j]
			}
			i += len(unit)

			var result repostDomain.Result
			var err error
			if unit[0].MediaGroupID != "" {
				result, err = s.pipeline.ProcessAlbum(ctx, unit)
			} else {
				result, err = s.pipeline.Process(ctx, unit[0])
			}
			if err != nil {
				if apperrors.IsPermission(err) {
					return s.finish(ctx, job, domain.JobStatusFailed, err)
				}
				return s.finish(ctx, job, domain.JobStatusPartial, err)
			}

			job.Cursor = unit[len(unit)-1].MessageID
			job.Processed += len(unit)
			if result.Outcome == repostDomain.OutcomeReposted {
				job.Reposted++
			}
			if err := s.repo.Save(ctx, job); err != nil {
				return nil, err
			}

			// Only replays that reached the transport need pacing.
			if result.Outcome == repostDomain.OutcomeReposted && s.pace > 0 {
				select {
				case <-ctx.Done():
					return s.finish(ctx, job, domain.JobStatusPartial, ctx.Err())
				case <-time.After(s.pace):
				}
			}
		}
	}

	return s.finish(ctx, job, domain.JobStatusCompleted, nil)
}

func (s *Service) finish(ctx context.Context, job *domain.Job, status domain.JobStatus, cause error) (*domain.Job, error) {
	job.Status = status
	if cause != nil {
		job.Error = cause.Error()
	}
	// Persist the terminal state even when the run context is gone.
	saveCtx := ctx
	if saveCtx.Err() != nil {
		var cancel context.CancelFunc
		saveCtx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
	}
	if err := s.repo.Save(saveCtx, job); err != nil {
		return nil, err
	}
	slog.Info("Batch job finished",
		"job_id", job.ID, "status", job.Status, "processed", job.Processed,
		"reposted", job.Reposted, "error", job.Error)
	return job, nil
}
