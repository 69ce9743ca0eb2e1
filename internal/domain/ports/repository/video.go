package repository

import (
	"context"

	"video-ai-orchestrator/internal/domain/model"
)

// VideoRepository resolves videos. Absence is a normal outcome and is
// reported as domain.ErrNotFound.
type VideoRepository interface {
	FindByID(ctx context.Context, id string) (*model.Video, error)
}
