package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"video-ai-orchestrator/internal/domain"
	"video-ai-orchestrator/internal/domain/model"
	"video-ai-orchestrator/internal/domain/ports/repository"
)

var _ repository.ChannelRepository = (*PostgresChannelRepo)(nil)

type PostgresChannelRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresChannelRepo(pool *pgxpool.Pool) *PostgresChannelRepo {
	return &PostgresChannelRepo{pool: pool}
}

func (r *PostgresChannelRepo) FindByID(ctx context.Context, id string) (*model.Channel, error) {
	const q = `
SELECT id, user_id, name, platform, timezone
  FROM channels WHERE id=$1;`
	var c model.Channel
	err := r.pool.QueryRow(ctx, q, id).Scan(&c.ID, &c.UserID, &c.Name, &c.Platform, &c.Timezone)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
