package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"video-ai-orchestrator/internal/domain/model"
	"video-ai-orchestrator/internal/domain/ports/adapter"
	"video-ai-orchestrator/internal/domain/ports/repository"
)

var _ HashtagUseCase = (*hashtagUC)(nil)

// HashtagUseCase generates a hashtag set for a video title and category.
// Both inputs are optional; fixed fallbacks apply when absent.
type HashtagUseCase interface {
	Execute(ctx context.Context, userID, videoID, platform string) (*model.HashtagSet, error)
	ExecuteInternal(ctx context.Context, userID, title, category, platform string) (*model.HashtagSet, error)
}

type hashtagUC struct {
	videos repository.VideoRepository
	ai     adapter.AIServiceAdapter
	meter  *meter
	log    *zerolog.Logger
}

func NewHashtagUseCase(videos repository.VideoRepository, ai adapter.AIServiceAdapter, m *meter, log *zerolog.Logger) *hashtagUC {
	return &hashtagUC{videos: videos, ai: ai, meter: m, log: log}
}

func (u *hashtagUC) Execute(ctx context.Context, userID, videoID, platform string) (*model.HashtagSet, error) {
	var res *model.HashtagSet
	err := u.meter.charged(ctx, userID, model.OpGenerateHashtags, func(ctx context.Context) error {
		v, err := u.videos.FindByID(ctx, videoID)
		if err != nil {
			return err
		}
		r, err := u.ExecuteInternal(ctx, userID, v.Title, "", platform)
		res = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (u *hashtagUC) ExecuteInternal(ctx context.Context, userID, title, category, platform string) (*model.HashtagSet, error) {
	if title == "" {
		title = fallbackTitle
	}
	if category == "" {
		category = fallbackCategory
	}
	if platform == "" {
		platform = model.DefaultPlatform
	}

	system := fmt.Sprintf(`You suggest hashtags for %s videos. Reply with JSON only: `+
		`{"hashtags": [up to 15 hashtags, each starting with #]}`, platform)
	user := fmt.Sprintf("Title: %s\nCategory: %s", title, category)

	var res model.HashtagSet
	if err := chatJSON(ctx, u.ai, model.OpGenerateHashtags, system, user, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
