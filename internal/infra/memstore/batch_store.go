package memstore

import (
	"context"
	"sync"

	"video-ai-orchestrator/internal/domain"
	"video-ai-orchestrator/internal/domain/model"
	"video-ai-orchestrator/internal/domain/ports/repository"
)

var _ repository.BatchStore = (*BatchStore)(nil)

// BatchStore is the in-memory counterpart of PipelineStore for batch
// aggregates. Same copy and last-write-wins semantics.
type BatchStore struct {
	mu   sync.RWMutex
	byID map[string]*model.Batch
}

func NewBatchStore() *BatchStore {
	return &BatchStore{byID: make(map[string]*model.Batch)}
}

func (s *BatchStore) Save(ctx context.Context, b *model.Batch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[b.ID] = b.Clone()
	return nil
}

func (s *BatchStore) FindByID(ctx context.Context, id string) (*model.Batch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b.Clone(), nil
}
