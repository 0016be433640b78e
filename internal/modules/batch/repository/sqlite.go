package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/reshetovitsme/post-normalizer/internal/modules/batch/domain"
	apperrors "github.com/reshetovitsme/post-normalizer/internal/shared/errors"
	"github.com/reshetovitsme/post-normalizer/internal/shared/storage"
	"github.com/samber/oops"
)

// SQLiteStorage implements batch.Repository on the shared SQLite database.
type SQLiteStorage struct {
	db *storage.DB
}

// NewSQLiteStorage creates a new SQLite-backed batch job repository.
func NewSQLiteStorage(db *storage.DB) Repository {
	return &SQLiteStorage{db: db}
}

func (s *SQLiteStorage) Save(ctx context.Context, job *domain.Job) error {
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO batch_jobs
			(id, chat_id, from_message_id, to_message_id, cursor, status,
			 processed, reposted, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.ChatID, job.FromMessageID, job.ToMessageID, job.Cursor,
		string(job.Status), job.Processed, job.Reposted, job.Error,
		job.CreatedAt.Unix(), job.UpdatedAt.Unix())
	if err != nil {
		return oops.With("job_id", job.ID, "context", "failed to save batch job").Wrap(err)
	}
	return nil
}

func (s *SQLiteStorage) Get(ctx context.Context, id string) (*domain.Job, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, chat_id, from_message_id, to_message_id, cursor, status,
		       processed, reposted, error, created_at, updated_at
		FROM batch_jobs WHERE id = ?
	`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.ErrJobNotFound
	}
	if err != nil {
		return nil, oops.With("job_id", id, "context", "failed to query batch job").Wrap(err)
	}
	return job, nil
}

func (s *SQLiteStorage) GetByChat(ctx context.Context, chatID int64) ([]*domain.Job, error) {
	return s.query(ctx, `
		SELECT id, chat_id, from_message_id, to_message_id, cursor, status,
		       processed, reposted, error, created_at, updated_at
		FROM batch_jobs WHERE chat_id = ? ORDER BY created_at DESC
	`, chatID)
}

func (s *SQLiteStorage) GetAll(ctx context.Context) ([]*domain.Job, error) {
	return s.query(ctx, `
		SELECT id, chat_id, from_message_id, to_message_id, cursor, status,
		       processed, reposted, error, created_at, updated_at
		FROM batch_jobs ORDER BY created_at DESC
	`)
}

func (s *SQLiteStorage) query(ctx context.Context, query string, args ...any) ([]*domain.Job, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, oops.With("context", "failed to query batch jobs").Wrap(err)
	}
	defer rows.Close()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, oops.With("context", "failed to scan batch job").Wrap(err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var (
		job       domain.Job
		status    string
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&job.ID, &job.ChatID, &job.FromMessageID, &job.ToMessageID,
		&job.Cursor, &status, &job.Processed, &job.Reposted, &job.Error,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	job.CreatedAt = time.Unix(createdAt, 0)
	job.UpdatedAt = time.Unix(updatedAt, 0)
	return &job, nil
}
