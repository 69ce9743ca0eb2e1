package memstore

import (
	"context"
	"sync"

	"video-ai-orchestrator/internal/domain"
	"video-ai-orchestrator/internal/domain/model"
	"video-ai-orchestrator/internal/domain/ports/repository"
)

var _ repository.PipelineStore = (*PipelineStore)(nil)

// PipelineStore keeps pipeline aggregates in memory for the process
// lifetime. State is volatile by design. Writes store defensive copies so
// concurrent updates to different aggregates never contend on shared data;
// two racing writes to the same aggregate are last-write-wins.
type PipelineStore struct {
	mu   sync.RWMutex
	byID map[string]*model.Pipeline
}

func NewPipelineStore() *PipelineStore {
	return &PipelineStore{byID: make(map[string]*model.Pipeline)}
}

func (s *PipelineStore) Save(ctx context.Context, p *model.Pipeline) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[p.ID] = p.Clone()
	return nil
}

func (s *PipelineStore) FindByID(ctx context.Context, id string) (*model.Pipeline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p.Clone(), nil
}
