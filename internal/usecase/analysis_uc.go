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

var _ AnalysisUseCase = (*analysisUC)(nil)

// AnalysisUseCase extracts keywords and a content category from a transcript.
// The metered Execute reads the video's stored transcript; the pipeline
// engine passes its own same-run transcript to ExecuteInternal instead.
type AnalysisUseCase interface {
	Execute(ctx context.Context, userID, videoID string) (*model.ScriptAnalysis, error)
	ExecuteInternal(ctx context.Context, userID, transcript string) (*model.ScriptAnalysis, error)
}

type analysisUC struct {
	videos repository.VideoRepository
	ai     adapter.AIServiceAdapter
	meter  *meter
	log    *zerolog.Logger
}

func NewAnalysisUseCase(videos repository.VideoRepository, ai adapter.AIServiceAdapter, m *meter, log *zerolog.Logger) *analysisUC {
	return &analysisUC{videos: videos, ai: ai, meter: m, log: log}
}

func (u *analysisUC) Execute(ctx context.Context, userID, videoID string) (*model.ScriptAnalysis, error) {
	var res *model.ScriptAnalysis
	err := u.meter.charged(ctx, userID, model.OpAnalyzeScript, func(ctx context.Context) error {
		v, err := u.videos.FindByID(ctx, videoID)
		if err != nil {
			return err
		}
		r, err := u.ExecuteInternal(ctx, userID, v.Transcript)
		res = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (u *analysisUC) ExecuteInternal(ctx context.Context, userID, transcript string) (*model.ScriptAnalysis, error) {
	if strings.TrimSpace(transcript) == "" {
		return nil, fmt.Errorf("transcript: %w", domain.ErrDependencyUnmet)
	}

	const system = `You analyze video transcripts. Reply with JSON only: ` +
		`{"keywords": [up to 10 short keywords], "category": "one lowercase word"}`
	user := "Transcript:\n" + truncate(transcript, 8000)

	var res model.ScriptAnalysis
	if err := chatJSON(ctx, u.ai, model.OpAnalyzeScript, system, user, &res); err != nil {
		return nil, err
	}
	if res.Category == "" {
		res.Category = fallbackCategory
	}
	return &res, nil
}
