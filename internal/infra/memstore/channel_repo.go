package memstore

import (
	"context"
	"sync"

	"video-ai-orchestrator/internal/domain"
	"video-ai-orchestrator/internal/domain/model"
	"video-ai-orchestrator/internal/domain/ports/repository"
)

var _ repository.ChannelRepository = (*ChannelRepo)(nil)

// ChannelRepo is an in-memory channel catalog, seedable via Put.
type ChannelRepo struct {
	mu   sync.RWMutex
	byID map[string]*model.Channel
}

func NewChannelRepo() *ChannelRepo {
	return &ChannelRepo{byID: make(map[string]*model.Channel)}
}

func (r *ChannelRepo) Put(c *model.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.byID[c.ID] = &cp
}

func (r *ChannelRepo) FindByID(ctx context.Context, id string) (*model.Channel, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}
