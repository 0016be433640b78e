package domain

import "time"

// Job is one batch replay of archived history through the repost pipeline.
type Job struct {
	ID            string    `json:"id"`
	ChatID        int64     `json:"chat_id"`
	FromMessageID int       `json:"from_message_id"`
	ToMessageID   int       `json:"to_message_id"`
	// Cursor is the last archived message id already processed; a resumed
	// run continues after it.
	Cursor    int       `json:"cursor"`
	Status    JobStatus `json:"status"`
	Processed int       `json:"processed"`
	Reposted  int       `json:"reposted"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Terminal reports whether the job reached a final status.
func (j *Job) Terminal() bool {
	switch j.Status {
	case JobStatusCompleted, JobStatusPartial, JobStatusFailed:
		return true
	}
	return false
}
