package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"video-ai-orchestrator/internal/domain"
	"video-ai-orchestrator/internal/domain/model"
	"video-ai-orchestrator/internal/domain/ports/repository"
	"video-ai-orchestrator/internal/infra/logging"
	"video-ai-orchestrator/internal/infra/metrics"
)

// Compile-time check
var _ PipelineUseCase = (*pipelineUC)(nil)

// PipelineUseCase runs an ordered, dependent set of AI steps against one
// video. Start returns immediately after admission; callers poll Status.
type PipelineUseCase interface {
	Start(ctx context.Context, userID, videoID string, steps []model.AIOperationKind, channelID string) (*model.Pipeline, error)
	Status(ctx context.Context, userID, id string) (*model.Pipeline, error)
	Cancel(ctx context.Context, userID, id string) (*model.Pipeline, error)
}

type pipelineUC struct {
	store      repository.PipelineStore
	videos     repository.VideoRepository
	ledger     repository.CreditLedger
	transcribe TranscriptionUseCase
	analyze    AnalysisUseCase
	metadata   MetadataUseCase
	hashtags   HashtagUseCase
	schedule   ScheduleUseCase
	idGen      func() string
	log        *zerolog.Logger
}

func NewPipelineUseCase(
	store repository.PipelineStore,
	videos repository.VideoRepository,
	ledger repository.CreditLedger,
	transcribe TranscriptionUseCase,
	analyze AnalysisUseCase,
	metadata MetadataUseCase,
	hashtags HashtagUseCase,
	schedule ScheduleUseCase,
	log *zerolog.Logger,
) *pipelineUC {
	return &pipelineUC{
		store:      store,
		videos:     videos,
		ledger:     ledger,
		transcribe: transcribe,
		analyze:    analyze,
		metadata:   metadata,
		hashtags:   hashtags,
		schedule:   schedule,
		idGen:      func() string { return ulid.Make().String() },
		log:        log,
	}
}

// Start validates the request, reserves the full static cost atomically and
// detaches the background execution. Insufficient balance fails the call and
// creates nothing.
func (u *pipelineUC) Start(ctx context.Context, userID, videoID string, steps []model.AIOperationKind, channelID string) (*model.Pipeline, error) {
	defer logging.TraceDuration(u.log, "PipelineUC.Start")()
	if len(steps) == 0 {
		return nil, fmt.Errorf("steps must not be empty: %w", domain.ErrInvalidArgument)
	}
	for _, s := range steps {
		if !s.Valid() {
			return nil, fmt.Errorf("unknown step %q: %w", s, domain.ErrInvalidArgument)
		}
	}

	v, err := u.videos.FindByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("video %s: %w", videoID, domain.ErrInvalidArgument)
		}
		return nil, err
	}
	if v.UserID != userID {
		return nil, domain.ErrForbidden
	}

	p := model.NewPipeline(u.idGen(), userID, videoID, channelID, steps)
	if err := u.ledger.Reserve(ctx, userID, p.TotalCreditsCharged, "pipeline:"+p.ID); err != nil {
		return nil, err
	}
	metrics.AddCreditsReserved("pipeline", p.TotalCreditsCharged)

	if err := u.store.Save(ctx, p); err != nil {
		if rerr := u.ledger.Refund(ctx, userID, p.TotalCreditsCharged, "pipeline_abort:"+p.ID); rerr != nil {
			u.log.Error().Err(rerr).Str("pipeline_id", p.ID).Msg("refund after failed pipeline save")
		}
		return nil, err
	}
	metrics.IncPipelineStarted()
	u.log.Info().Str("pipeline_id", p.ID).Str("user_id", userID).Str("video_id", videoID).
		Int("steps", len(steps)).Int("charged", p.TotalCreditsCharged).Msg("pipeline started")

	runCtx := logging.WithPipelineID(context.WithoutCancel(ctx), p.ID)
	runCtx = logging.WithVideoID(runCtx, videoID)
	go u.run(runCtx, p.ID)
	return p, nil
}

func (u *pipelineUC) Status(ctx context.Context, userID, id string) (*model.Pipeline, error) {
	defer logging.TraceDuration(u.log, "PipelineUC.Status")()
	p, err := u.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return p, nil
}

// Cancel is cooperative: it flips the status and reconciles decided steps and
// credits, but a step already in flight keeps running to completion. The
// refund covers everything not Completed or Running at cancellation time.
func (u *pipelineUC) Cancel(ctx context.Context, userID, id string) (*model.Pipeline, error) {
	defer logging.TraceDuration(u.log, "PipelineUC.Cancel")()
	p, err := u.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.UserID != userID {
		return nil, domain.ErrForbidden
	}
	if p.Terminal() {
		return nil, fmt.Errorf("pipeline %s: %w", id, domain.ErrPipelineFinished)
	}

	refund := p.RefundableOnCancel()
	p.Status = model.PipelineStatusCancelled
	for i := range p.Steps {
		if p.Steps[i].Status == model.StepStatusPending {
			p.Steps[i].Status = model.StepStatusSkipped
			p.Steps[i].Error = skipReasonCancelled
			metrics.IncPipelineStep(string(p.Steps[i].Kind), string(model.StepStatusSkipped))
		}
	}
	if err := u.store.Save(ctx, p); err != nil {
		return nil, err
	}

	if refund > 0 {
		if err := u.ledger.Refund(ctx, userID, refund, "pipeline_cancel:"+id); err != nil {
			u.log.Error().Err(err).Str("pipeline_id", id).Int("refund", refund).
				Msg("cancellation refund failed")
		} else {
			metrics.AddCreditsRefunded("cancel", refund)
		}
	}
	u.log.Info().Str("pipeline_id", id).Int("refund", refund).Msg("pipeline cancelled")
	return p, nil
}

// runMemory is the working memory of one execution; later steps only ever
// see outputs produced in the same run.
type runMemory struct {
	transcript     string
	keywords       []string
	category       string
	generatedTitle string
}

// run is the detached background execution: steps in request order, each
// fully finishing before the next starts. Every status update is a full
// read-modify-write of the aggregate; a racing cancel is last-write-wins.
func (u *pipelineUC) run(ctx context.Context, id string) {
	log := logging.With(ctx, u.log)
	var mem runMemory
	for i := 0; ; i++ {
		p, err := u.store.FindByID(ctx, id)
		if err != nil {
			log.Error().Err(err).Msg("pipeline vanished mid-run")
			return
		}
		if i >= len(p.Steps) {
			break
		}
		if p.Status == model.PipelineStatusCancelled {
			// Remaining Pending steps are left for Cancel to mark Skipped.
			break
		}
		if p.Steps[i].Status != model.StepStatusPending {
			continue // skipped by an earlier cascade
		}

		kind := p.Steps[i].Kind
		p.Steps[i].Status = model.StepStatusRunning
		cur := kind
		p.CurrentStep = &cur
		if err := u.store.Save(ctx, p); err != nil {
			log.Error().Err(err).Msg("save running step")
			return
		}

		result, stepErr := u.runStep(ctx, p, kind, &mem)

		p, err = u.store.FindByID(ctx, id)
		if err != nil {
			log.Error().Err(err).Msg("pipeline vanished mid-run")
			return
		}
		if stepErr != nil {
			p.Steps[i].Status = model.StepStatusFailed
			p.Steps[i].Error = stepErr.Error()
			metrics.IncPipelineStep(string(kind), string(model.StepStatusFailed))
			log.Warn().Err(stepErr).Str("step", string(kind)).Msg("pipeline step failed")
			if kind == model.OpSpeechToText {
				skipTranscriptDependents(p)
			}
		} else {
			p.Steps[i].Status = model.StepStatusCompleted
			p.Steps[i].Result = result
			metrics.IncPipelineStep(string(kind), string(model.StepStatusCompleted))
		}
		if err := u.store.Save(ctx, p); err != nil {
			log.Error().Err(err).Msg("save step outcome")
			return
		}
	}
	u.finish(ctx, id)
}

func (u *pipelineUC) runStep(ctx context.Context, p *model.Pipeline, kind model.AIOperationKind, mem *runMemory) (any, error) {
	switch kind {
	case model.OpSpeechToText:
		res, err := u.transcribe.ExecuteInternal(ctx, p.UserID, p.VideoID)
		if err != nil {
			return nil, err
		}
		mem.transcript = res.Text
		return res, nil

	case model.OpAnalyzeScript:
		if mem.transcript == "" {
			return nil, fmt.Errorf("speech_to_text output from this run: %w", domain.ErrDependencyUnmet)
		}
		res, err := u.analyze.ExecuteInternal(ctx, p.UserID, mem.transcript)
		if err != nil {
			return nil, err
		}
		mem.keywords = res.Keywords
		mem.category = res.Category
		return res, nil

	case model.OpGenerateMeta:
		if mem.transcript == "" {
			return nil, fmt.Errorf("speech_to_text output from this run: %w", domain.ErrDependencyUnmet)
		}
		res, err := u.metadata.ExecuteInternal(ctx, p.UserID, mem.transcript, mem.category, model.DefaultPlatform)
		if err != nil {
			return nil, err
		}
		if len(res.Titles) > 0 {
			mem.generatedTitle = res.Titles[0]
		}
		return res, nil

	case model.OpGenerateHashtags:
		res, err := u.hashtags.ExecuteInternal(ctx, p.UserID, mem.generatedTitle, mem.category, model.DefaultPlatform)
		if err != nil {
			return nil, err
		}
		return res, nil

	case model.OpSuggestSchedule:
		res, err := u.schedule.ExecuteInternal(ctx, p.UserID, p.ChannelID)
		if err != nil {
			return nil, err
		}
		if res == nil {
			return nil, nil // no channel: trivial success, no result
		}
		return res, nil
	}
	return nil, fmt.Errorf("unknown step %q: %w", kind, domain.ErrInvalidArgument)
}

// skipTranscriptDependents marks still-Pending AnalyzeScript/GenerateMeta as
// Skipped when SpeechToText failed; these are the only known dependents.
func skipTranscriptDependents(p *model.Pipeline) {
	for i := range p.Steps {
		if p.Steps[i].Status != model.StepStatusPending {
			continue
		}
		switch p.Steps[i].Kind {
		case model.OpAnalyzeScript, model.OpGenerateMeta:
			p.Steps[i].Status = model.StepStatusSkipped
			p.Steps[i].Error = skipReasonTranscriptionFailed
			metrics.IncPipelineStep(string(p.Steps[i].Kind), string(model.StepStatusSkipped))
		}
	}
}

// finish stamps the terminal status. There is no partial-completion status:
// one completed step is enough to call the whole run Completed.
func (u *pipelineUC) finish(ctx context.Context, id string) {
	log := logging.With(ctx, u.log)
	p, err := u.store.FindByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("pipeline vanished at finish")
		return
	}
	if p.Status != model.PipelineStatusCancelled {
		anyCompleted, anyFailed := false, false
		for _, s := range p.Steps {
			switch s.Status {
			case model.StepStatusCompleted:
				anyCompleted = true
			case model.StepStatusFailed:
				anyFailed = true
			}
		}
		if anyFailed && !anyCompleted {
			p.Status = model.PipelineStatusFailed
		} else {
			p.Status = model.PipelineStatusCompleted
		}
	}
	p.CurrentStep = nil
	now := time.Now()
	p.CompletedAt = &now
	if err := u.store.Save(ctx, p); err != nil {
		log.Error().Err(err).Msg("save terminal pipeline status")
		return
	}
	metrics.IncPipelineFinished(string(p.Status))
	log.Info().Str("status", string(p.Status)).Msg("pipeline finished")
}
