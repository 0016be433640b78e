package repository

import (
	"context"

	"github.com/reshetovitsme/post-normalizer/internal/modules/repost/domain"
)

// Repository persists incident records and the per-group button rotation
// counters.
type Repository interface {
	SaveIncident(ctx context.Context, incident *domain.Incident) error
	ListIncidents(ctx context.Context, limit int) ([]*domain.Incident, error)
	// Rotation returns the rotation index to use for a button slot without
	// moving the counter. AdvanceRotation moves it to the next index modulo
	// cycle once the post actually went out.
	Rotation(ctx context.Context, chatID int64, slot, cycle int) (int, error)
	AdvanceRotation(ctx context.Context, chatID int64, slot, cycle int) error
}
