package repository

import (
	"context"

	"video-ai-orchestrator/internal/domain/model"
)

type ChannelRepository interface {
	FindByID(ctx context.Context, id string) (*model.Channel, error)
}
