package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
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
var _ BatchUseCase = (*batchUC)(nil)

// BatchUseCase fans one operation out across many videos. Charging happens
// per elementary call inside each item via the metered collaborators; Start
// only pre-flight-checks affordability and reserves nothing.
type BatchUseCase interface {
	Start(ctx context.Context, userID string, videoIDs []string, operation string, platforms []string) (*model.Batch, error)
	Status(ctx context.Context, userID, id string) (*model.Batch, error)
}

type batchUC struct {
	store       repository.BatchStore
	videos      repository.VideoRepository
	ledger      repository.CreditLedger
	transcribe  TranscriptionUseCase
	analyze     AnalysisUseCase
	metadata    MetadataUseCase
	hashtags    HashtagUseCase
	schedule    ScheduleUseCase
	meter       *meter
	concurrency int
	idGen       func() string
	log         *zerolog.Logger
}

func NewBatchUseCase(
	store repository.BatchStore,
	videos repository.VideoRepository,
	ledger repository.CreditLedger,
	transcribe TranscriptionUseCase,
	analyze AnalysisUseCase,
	metadata MetadataUseCase,
	hashtags HashtagUseCase,
	schedule ScheduleUseCase,
	m *meter,
	concurrency int,
	log *zerolog.Logger,
) *batchUC {
	if concurrency <= 0 {
		concurrency = 3
	}
	return &batchUC{
		store:       store,
		videos:      videos,
		ledger:      ledger,
		transcribe:  transcribe,
		analyze:     analyze,
		metadata:    metadata,
		hashtags:    hashtags,
		schedule:    schedule,
		meter:       m,
		concurrency: concurrency,
		idGen:       func() string { return ulid.Make().String() },
		log:         log,
	}
}

func (u *batchUC) Start(ctx context.Context, userID string, videoIDs []string, operation string, platforms []string) (*model.Batch, error) {
	defer logging.TraceDuration(u.log, "BatchUC.Start")()
	if len(videoIDs) == 0 {
		return nil, fmt.Errorf("videoIds must not be empty: %w", domain.ErrInvalidArgument)
	}
	perItem, ok := model.BatchPerItemCost(operation)
	if !ok {
		return nil, fmt.Errorf("unknown operation %q: %w", operation, domain.ErrInvalidArgument)
	}

	// Pre-flight estimate only; each item pays for itself during execution.
	estimate := perItem * len(videoIDs)
	balance, err := u.ledger.Balance(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("balance check: %w", err)
	}
	if balance < estimate {
		return nil, fmt.Errorf("insufficient balance for batch: need %d, have %d: %w",
			estimate, balance, domain.ErrInvalidArgument)
	}

	items := make([]model.BatchItem, 0, len(videoIDs))
	for _, vid := range videoIDs {
		item := model.BatchItem{VideoID: vid, Status: model.BatchItemPending}
		if v, err := u.videos.FindByID(ctx, vid); err == nil {
			title := v.Title
			item.Title = &title
		}
		items = append(items, item)
	}

	b := model.NewBatch(u.idGen(), userID, operation, platforms, items)
	if err := u.store.Save(ctx, b); err != nil {
		return nil, err
	}
	metrics.IncBatchStarted()
	u.log.Info().Str("batch_id", b.ID).Str("user_id", userID).Str("operation", operation).
		Int("items", len(items)).Msg("batch started")

	go u.run(logging.WithBatchID(context.WithoutCancel(ctx), b.ID), b.ID)
	return b, nil
}

func (u *batchUC) Status(ctx context.Context, userID, id string) (*model.Batch, error) {
	defer logging.TraceDuration(u.log, "BatchUC.Status")()
	b, err := u.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.UserID != userID {
		return nil, domain.ErrForbidden
	}
	return b, nil
}

// run coordinates the fan-out: up to `concurrency` items in flight, permits
// released by defer so a panicking item can never leak one.
func (u *batchUC) run(ctx context.Context, id string) {
	log := logging.With(ctx, u.log)
	b, err := u.store.FindByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("batch vanished before run")
		return
	}
	b.Status = model.BatchStatusProcessing
	if err := u.store.Save(ctx, b); err != nil {
		log.Error().Err(err).Msg("mark batch processing")
		return
	}

	sem := make(chan struct{}, u.concurrency)
	var wg sync.WaitGroup
	for i := range b.Items {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			u.runItem(ctx, id, idx)
		}(i)
	}
	wg.Wait()

	b, err = u.store.FindByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("batch vanished at finish")
		return
	}
	b.Status = b.FinalStatus()
	now := time.Now()
	b.CompletedAt = &now
	if err := u.store.Save(ctx, b); err != nil {
		log.Error().Err(err).Msg("save terminal batch status")
		return
	}
	metrics.IncBatchFinished(string(b.Status))
	log.Info().Str("status", string(b.Status)).
		Int("failed", b.FailedCount()).Msg("batch finished")
}

func (u *batchUC) runItem(ctx context.Context, batchID string, idx int) {
	log := logging.With(ctx, u.log)
	b, err := u.store.FindByID(ctx, batchID)
	if err != nil {
		log.Error().Err(err).Msg("batch vanished mid-item")
		return
	}
	b.Items[idx].Status = model.BatchItemProcessing
	operation := b.Operation
	userID := b.UserID
	videoID := b.Items[idx].VideoID
	// Extra platforms are recorded on the batch but dispatch always targets
	// the first one requested.
	platform := b.Platforms[0]
	if err := u.store.Save(ctx, b); err != nil {
		log.Error().Err(err).Msg("mark item processing")
		return
	}

	result, itemErr := u.dispatch(ctx, userID, videoID, operation, platform)

	b, err = u.store.FindByID(ctx, batchID)
	if err != nil {
		log.Error().Err(err).Msg("batch vanished mid-item")
		return
	}
	if itemErr != nil {
		b.Items[idx].Status = model.BatchItemFailed
		b.Items[idx].Error = itemErr.Error()
		metrics.IncBatchItem(operation, string(model.BatchItemFailed))
		log.Warn().Err(itemErr).Str("video_id", videoID).Msg("batch item failed")
	} else {
		b.Items[idx].Status = model.BatchItemCompleted
		b.Items[idx].Result = result
		metrics.IncBatchItem(operation, string(model.BatchItemCompleted))
	}
	if err := u.store.Save(ctx, b); err != nil {
		log.Error().Err(err).Msg("save item outcome")
	}
}

// dispatch runs the operation for one item through the metered collaborators.
// Each elementary call rate-limits and charges/refunds independently; the
// batch engine does no refund orchestration of its own. A panic is contained
// as an item failure.
func (u *batchUC) dispatch(ctx context.Context, userID, videoID, operation, platform string) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("item panicked: %v", rec)
		}
	}()

	v, ferr := u.videos.FindByID(ctx, videoID)
	if ferr != nil {
		if errors.Is(ferr, domain.ErrNotFound) {
			return nil, errors.New(model.ItemErrVideoNotFound)
		}
		return nil, ferr
	}

	switch operation {
	case string(model.OpSpeechToText):
		return u.transcribe.Execute(ctx, userID, videoID)
	case string(model.OpAnalyzeScript):
		return u.analyze.Execute(ctx, userID, videoID)
	case string(model.OpGenerateMeta):
		return u.metadata.Execute(ctx, userID, videoID, platform)
	case string(model.OpGenerateHashtags):
		return u.hashtags.Execute(ctx, userID, videoID, platform)
	case string(model.OpSuggestSchedule):
		return u.schedule.Execute(ctx, userID, v.ChannelID)
	case model.BatchOperationAll:
		return u.dispatchAll(ctx, userID, videoID, platform)
	}
	return nil, fmt.Errorf("unknown operation %q: %w", operation, domain.ErrInvalidArgument)
}

// dispatchAll runs speech-to-text, meta and hashtags sequentially for one
// item, feeding each step's output into the next like a pipeline would.
// Every call goes through the meter on its own: independently rate-limited,
// charged upfront, refunded on failure.
func (u *batchUC) dispatchAll(ctx context.Context, userID, videoID, platform string) (any, error) {
	var transcript *model.TranscriptResult
	if err := u.meter.charged(ctx, userID, model.OpSpeechToText, func(ctx context.Context) error {
		r, err := u.transcribe.ExecuteInternal(ctx, userID, videoID)
		transcript = r
		return err
	}); err != nil {
		return nil, err
	}

	var meta *model.VideoMeta
	if err := u.meter.charged(ctx, userID, model.OpGenerateMeta, func(ctx context.Context) error {
		r, err := u.metadata.ExecuteInternal(ctx, userID, transcript.Text, "", platform)
		meta = r
		return err
	}); err != nil {
		return nil, err
	}

	title := ""
	if len(meta.Titles) > 0 {
		title = meta.Titles[0]
	}
	var tags *model.HashtagSet
	if err := u.meter.charged(ctx, userID, model.OpGenerateHashtags, func(ctx context.Context) error {
		r, err := u.hashtags.ExecuteInternal(ctx, userID, title, "", platform)
		tags = r
		return err
	}); err != nil {
		return nil, err
	}

	return map[string]any{
		"transcript": transcript,
		"meta":       meta,
		"hashtags":   tags,
	}, nil
}
