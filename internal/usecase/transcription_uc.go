package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"video-ai-orchestrator/internal/domain"
	"video-ai-orchestrator/internal/domain/model"
	"video-ai-orchestrator/internal/domain/ports/adapter"
	"video-ai-orchestrator/internal/domain/ports/repository"
	"video-ai-orchestrator/internal/infra/metrics"
)

// Compile-time check
var _ TranscriptionUseCase = (*transcriptionUC)(nil)

// TranscriptionUseCase converts a video's source audio to text.
// Execute is the metered entry point; ExecuteInternal does the same work
// without rate-limit or ledger interaction, for callers that already paid.
type TranscriptionUseCase interface {
	Execute(ctx context.Context, userID, videoID string) (*model.TranscriptResult, error)
	ExecuteInternal(ctx context.Context, userID, videoID string) (*model.TranscriptResult, error)
}

type transcriptionUC struct {
	videos repository.VideoRepository
	ai     adapter.AIServiceAdapter
	meter  *meter
	log    *zerolog.Logger
}

func NewTranscriptionUseCase(videos repository.VideoRepository, ai adapter.AIServiceAdapter, m *meter, log *zerolog.Logger) *transcriptionUC {
	return &transcriptionUC{videos: videos, ai: ai, meter: m, log: log}
}

func (u *transcriptionUC) Execute(ctx context.Context, userID, videoID string) (*model.TranscriptResult, error) {
	var res *model.TranscriptResult
	err := u.meter.charged(ctx, userID, model.OpSpeechToText, func(ctx context.Context) error {
		r, err := u.ExecuteInternal(ctx, userID, videoID)
		res = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (u *transcriptionUC) ExecuteInternal(ctx context.Context, userID, videoID string) (*model.TranscriptResult, error) {
	v, err := u.videos.FindByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if v.AudioURL == "" {
		return nil, fmt.Errorf("video %s has no source audio: %w", videoID, domain.ErrInvalidArgument)
	}

	start := time.Now()
	text, err := u.ai.Transcribe(ctx, v.AudioURL)
	metrics.ObserveAICall(string(model.OpSpeechToText), int(time.Since(start)/time.Millisecond), err == nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrAICallFailed, err)
	}
	return &model.TranscriptResult{Text: text}, nil
}
