package repository

import "context"

// CreditLedger is the external reserve/deduct/refund primitive.
// Reserve is an atomic check-and-deduct and fails with
// domain.ErrInsufficientCredits when the balance does not cover amount.
// Duplicate-refund protection (keyed by reason) is the ledger's responsibility.
type CreditLedger interface {
	Reserve(ctx context.Context, userID string, amount int, reason string) error
	Refund(ctx context.Context, userID string, amount int, reason string) error
	Balance(ctx context.Context, userID string) (int, error)
}
