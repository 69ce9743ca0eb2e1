package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"video-ai-orchestrator/internal/domain"
	"video-ai-orchestrator/internal/domain/model"
	"video-ai-orchestrator/internal/domain/ports/repository"
)

var _ repository.VideoRepository = (*PostgresVideoRepo)(nil)

type PostgresVideoRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresVideoRepo(pool *pgxpool.Pool) *PostgresVideoRepo {
	return &PostgresVideoRepo{pool: pool}
}

func (r *PostgresVideoRepo) FindByID(ctx context.Context, id string) (*model.Video, error) {
	const q = `
SELECT id, user_id, channel_id, title, description, audio_url, transcript, created_at
  FROM videos WHERE id=$1;`
	var v model.Video
	err := r.pool.QueryRow(ctx, q, id).Scan(
		&v.ID, &v.UserID, &v.ChannelID, &v.Title, &v.Description, &v.AudioURL, &v.Transcript, &v.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}
