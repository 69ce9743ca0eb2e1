package memstore

import (
	"context"
	"sync"

	"video-ai-orchestrator/internal/domain"
	"video-ai-orchestrator/internal/domain/model"
	"video-ai-orchestrator/internal/domain/ports/repository"
)

var _ repository.VideoRepository = (*VideoRepo)(nil)

// VideoRepo is an in-memory video catalog, seedable via Put. Used in dev
// mode and tests where no database is wired.
type VideoRepo struct {
	mu   sync.RWMutex
	byID map[string]*model.Video
}

func NewVideoRepo() *VideoRepo {
	return &VideoRepo{byID: make(map[string]*model.Video)}
}

func (r *VideoRepo) Put(v *model.Video) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *v
	r.byID[v.ID] = &cp
}

func (r *VideoRepo) FindByID(ctx context.Context, id string) (*model.Video, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}
