package repository

import (
	"context"

	"video-ai-orchestrator/internal/domain/model"
)

// PipelineStore is the process-wide key→aggregate store for pipelines.
// Every execution step performs a full read-modify-write of the aggregate;
// two racing writes to the same aggregate are last-write-wins with no
// version check.
type PipelineStore interface {
	Save(ctx context.Context, p *model.Pipeline) error
	FindByID(ctx context.Context, id string) (*model.Pipeline, error)
}
