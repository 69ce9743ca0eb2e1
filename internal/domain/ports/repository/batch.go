package repository

import (
	"context"

	"video-ai-orchestrator/internal/domain/model"
)

// BatchStore mirrors PipelineStore for batch aggregates.
type BatchStore interface {
	Save(ctx context.Context, b *model.Batch) error
	FindByID(ctx context.Context, id string) (*model.Batch, error)
}
