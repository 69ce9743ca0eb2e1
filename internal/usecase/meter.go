package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"video-ai-orchestrator/internal/domain"
	"video-ai-orchestrator/internal/domain/model"
	"video-ai-orchestrator/internal/domain/ports/adapter"
	"video-ai-orchestrator/internal/domain/ports/repository"
	"video-ai-orchestrator/internal/infra/metrics"
)

// meter centralizes the metered-call discipline shared by every operation
// collaborator: rate-limit admission, upfront reserve, refund on failure.
// Internal entry points bypass it entirely.
type meter struct {
	limiter adapter.RateLimiter
	ledger  repository.CreditLedger
	log     *zerolog.Logger
}

func NewMeter(limiter adapter.RateLimiter, ledger repository.CreditLedger, log *zerolog.Logger) *meter {
	return &meter{limiter: limiter, ledger: ledger, log: log}
}

// charged admits the call through the rate limiter, reserves the operation's
// static cost, runs fn, and refunds the reserve when fn fails. The refund
// reason is derived from the reserve reason so the ledger can deduplicate.
func (m *meter) charged(ctx context.Context, userID string, op model.AIOperationKind, fn func(context.Context) error) error {
	ok, err := m.limiter.Allow(ctx, userID)
	if err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	if !ok {
		metrics.IncRateLimited()
		return domain.ErrRateLimitExceeded
	}

	cost := op.Cost()
	reason := fmt.Sprintf("op:%s:%s", op, uuid.NewString())
	if err := m.ledger.Reserve(ctx, userID, cost, reason); err != nil {
		return err
	}
	metrics.AddCreditsReserved("operation", cost)

	if err := fn(ctx); err != nil {
		if rerr := m.ledger.Refund(ctx, userID, cost, "refund:"+reason); rerr != nil {
			m.log.Error().Err(rerr).Str("user_id", userID).Str("op", string(op)).
				Msg("refund after failed operation")
		} else {
			metrics.AddCreditsRefunded("operation_failed", cost)
		}
		return err
	}
	return nil
}
