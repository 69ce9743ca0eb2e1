package memstore

import (
	"context"
	"fmt"
	"sync"

	"video-ai-orchestrator/internal/domain"
	"video-ai-orchestrator/internal/domain/ports/repository"
)

var _ repository.CreditLedger = (*Ledger)(nil)

// Ledger is an in-memory credit ledger. Reserve is an atomic
// check-and-deduct under the mutex; refunds are deduplicated by reason so a
// retried refund never credits twice.
type Ledger struct {
	mu       sync.Mutex
	balances map[string]int
	refunded map[string]struct{}
}

func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[string]int),
		refunded: make(map[string]struct{}),
	}
}

// SetBalance overwrites a user's balance. Seed helper for dev and tests.
func (l *Ledger) SetBalance(userID string, amount int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] = amount
}

func (l *Ledger) Reserve(ctx context.Context, userID string, amount int, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount < 0 {
		return fmt.Errorf("negative reserve amount %d: %w", amount, domain.ErrInvalidArgument)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balances[userID] < amount {
		return fmt.Errorf("reserve %d for %q: %w", amount, reason, domain.ErrInsufficientCredits)
	}
	l.balances[userID] -= amount
	return nil
}

func (l *Ledger) Refund(ctx context.Context, userID string, amount int, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if amount < 0 {
		return fmt.Errorf("negative refund amount %d: %w", amount, domain.ErrInvalidArgument)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, done := l.refunded[reason]; done {
		return nil
	}
	l.refunded[reason] = struct{}{}
	l.balances[userID] += amount
	return nil
}

func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}
