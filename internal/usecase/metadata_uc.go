package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"video-ai-orchestrator/internal/domain"
	"video-ai-orchestrator/internal/domain/model"
	"video-ai-orchestrator/internal/domain/ports/adapter"
	"video-ai-orchestrator/internal/domain/ports/repository"
)

var _ MetadataUseCase = (*metadataUC)(nil)

// MetadataUseCase generates title candidates and a description for a video.
type MetadataUseCase interface {
	Execute(ctx context.Context, userID, videoID, platform string) (*model.VideoMeta, error)
	ExecuteInternal(ctx context.Context, userID, transcript, category, platform string) (*model.VideoMeta, error)
}

type metadataUC struct {
	videos repository.VideoRepository
	ai     adapter.AIServiceAdapter
	meter  *meter
	log    *zerolog.Logger
}

func NewMetadataUseCase(videos repository.VideoRepository, ai adapter.AIServiceAdapter, m *meter, log *zerolog.Logger) *metadataUC {
	return &metadataUC{videos: videos, ai: ai, meter: m, log: log}
}

func (u *metadataUC) Execute(ctx context.Context, userID, videoID, platform string) (*model.VideoMeta, error) {
	var res *model.VideoMeta
	err := u.meter.charged(ctx, userID, model.OpGenerateMeta, func(ctx context.Context) error {
		v, err := u.videos.FindByID(ctx, videoID)
		if err != nil {
			return err
		}
		r, err := u.ExecuteInternal(ctx, userID, v.Transcript, "", platform)
		res = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (u *metadataUC) ExecuteInternal(ctx context.Context, userID, transcript, category, platform string) (*model.VideoMeta, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("transcript: %w", domain.ErrDependencyUnmet)
	}
	if category == "" {
		category = fallbackCategory
	}
	if platform == "" {
		platform = model.DefaultPlatform
	}

	system := fmt.Sprintf(`You write video metadata for %s. Reply with JSON only: `+
		`{"titles": [3 title candidates], "description": "2-3 sentences"}`, platform)
	user := fmt.Sprintf("Category: %s\nTranscript:\n%s", category, truncate(transcript, 8000))

	var res model.VideoMeta
	if err := chatJSON(ctx, u.ai, model.OpGenerateMeta, system, user, &res); err != nil {
		return nil, err
	}
	if len(res.Titles) == 0 {
		return nil, fmt.Errorf("%w: no title candidates", domain.ErrAIParse)
	}
	return &res, nil
}
