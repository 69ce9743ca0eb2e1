package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"video-ai-orchestrator/internal/domain"
	"video-ai-orchestrator/internal/domain/ports/repository"
)

var _ repository.CreditLedger = (*PostgresCreditLedger)(nil)

// PostgresCreditLedger backs the credit ledger with two tables:
//
//	credit_balances(user_id PK, balance)
//	credit_transactions(id, user_id, amount, reason UNIQUE, kind, created_at)
//
// Reserve deducts with a guarded UPDATE so the check and the deduct happen
// in one statement. The UNIQUE constraint on reason makes refunds
// replay-safe: a duplicate refund hits 23505 and is treated as already done.
type PostgresCreditLedger struct {
	pool *pgxpool.Pool
}

func NewPostgresCreditLedger(pool *pgxpool.Pool) *PostgresCreditLedger {
	return &PostgresCreditLedger{pool: pool}
}

func (r *PostgresCreditLedger) Reserve(ctx context.Context, userID string, amount int, reason string) error {
	if amount < 0 {
		return fmt.Errorf("negative reserve amount %d: %w", amount, domain.ErrInvalidArgument)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin reserve tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE credit_balances SET balance = balance - $2 WHERE user_id = $1 AND balance >= $2;`,
		userID, amount)
	if err != nil {
		return fmt.Errorf("deduct balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reserve %d for %q: %w", amount, reason, domain.ErrInsufficientCredits)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO credit_transactions (user_id, amount, reason, kind) VALUES ($1, $2, $3, 'reserve');`,
		userID, -amount, reason); err != nil {
		return fmt.Errorf("record reserve: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *PostgresCreditLedger) Refund(ctx context.Context, userID string, amount int, reason string) error {
	if amount < 0 {
		return fmt.Errorf("negative refund amount %d: %w", amount, domain.ErrInvalidArgument)
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin refund tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO credit_transactions (user_id, amount, reason, kind) VALUES ($1, $2, $3, 'refund');`,
		userID, amount, reason); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil
		}
		return fmt.Errorf("record refund: %w", err)
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO credit_balances (user_id, balance) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET balance = credit_balances.balance + $2;`,
		userID, amount); err != nil {
		return fmt.Errorf("credit balance: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *PostgresCreditLedger) Balance(ctx context.Context, userID string) (int, error) {
	var balance int
	err := r.pool.QueryRow(ctx,
		`SELECT balance FROM credit_balances WHERE user_id = $1;`, userID).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}
