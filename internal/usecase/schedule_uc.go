package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"video-ai-orchestrator/internal/domain/model"
	"video-ai-orchestrator/internal/domain/ports/adapter"
	"video-ai-orchestrator/internal/domain/ports/repository"
)

var _ ScheduleUseCase = (*scheduleUC)(nil)

// ScheduleUseCase suggests publish times for a channel. A missing channel id
// is a trivial success with no result, not an error.
type ScheduleUseCase interface {
	Execute(ctx context.Context, userID, channelID string) (*model.ScheduleSuggestion, error)
	ExecuteInternal(ctx context.Context, userID, channelID string) (*model.ScheduleSuggestion, error)
}

type scheduleUC struct {
	channels repository.ChannelRepository
	ai       adapter.AIServiceAdapter
	meter    *meter
	log      *zerolog.Logger
}

func NewScheduleUseCase(channels repository.ChannelRepository, ai adapter.AIServiceAdapter, m *meter, log *zerolog.Logger) *scheduleUC {
	return &scheduleUC{channels: channels, ai: ai, meter: m, log: log}
}

func (u *scheduleUC) Execute(ctx context.Context, userID, channelID string) (*model.ScheduleSuggestion, error) {
	var res *model.ScheduleSuggestion
	err := u.meter.charged(ctx, userID, model.OpSuggestSchedule, func(ctx context.Context) error {
		r, err := u.ExecuteInternal(ctx, userID, channelID)
		res = r
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (u *scheduleUC) ExecuteInternal(ctx context.Context, userID, channelID string) (*model.ScheduleSuggestion, error) {
	if channelID == "" {
		return nil, nil
	}
	ch, err := u.channels.FindByID(ctx, channelID)
	if err != nil {
		return nil, err
	}

	const system = `You suggest video publish slots. Reply with JSON only: ` +
		`{"slots": [3 entries like "tuesday 18:00"]}`
	user := fmt.Sprintf("Channel: %s\nPlatform: %s\nTimezone: %s", ch.Name, ch.Platform, ch.Timezone)

	var res model.ScheduleSuggestion
	if err := chatJSON(ctx, u.ai, model.OpSuggestSchedule, system, user, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
