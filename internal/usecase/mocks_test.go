package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"video-ai-orchestrator/internal/domain"
	"video-ai-orchestrator/internal/domain/model"
	"video-ai-orchestrator/internal/domain/ports/adapter"
	"video-ai-orchestrator/internal/infra/memstore"
)

// ---- Fakes ----

// fakeAI answers chat prompts with canned JSON matched on the system prompt.
// Individual operations can be failed or gated to observe in-flight state.
type fakeAI struct {
	mu              sync.Mutex
	inFlight        int
	maxInFlight     int
	countTokenCalls int
	systemPrompts   []string

	delay         time.Duration
	transcript    string
	transcribeErr error
	analyzeErr    error
	metaErr       error
	hashtagsErr   error
	scheduleErr   error

	// transcribeGate, when set, blocks Transcribe until the channel closes.
	transcribeGate chan struct{}
}

func newFakeAI() *fakeAI {
	return &fakeAI{transcript: "hello world transcript"}
}

func (f *fakeAI) enter() {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()
}

func (f *fakeAI) leave() {
	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
}

func (f *fakeAI) peakInFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxInFlight
}

func (f *fakeAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{"fake-model"}, nil
}

func (f *fakeAI) Transcribe(ctx context.Context, audioURL string) (string, error) {
	f.enter()
	defer f.leave()
	if f.transcribeGate != nil {
		select {
		case <-f.transcribeGate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.transcribeErr != nil {
		return "", f.transcribeErr
	}
	return f.transcript, nil
}

func (f *fakeAI) Chat(ctx context.Context, mdl string, messages []adapter.Message) (string, error) {
	f.enter()
	defer f.leave()
	system := ""
	if len(messages) > 0 {
		system = messages[0].Content
	}
	f.mu.Lock()
	f.systemPrompts = append(f.systemPrompts, system)
	f.mu.Unlock()
	switch {
	case strings.Contains(system, "analyze video transcripts"):
		if f.analyzeErr != nil {
			return "", f.analyzeErr
		}
		return `{"keywords":["hello","world"],"category":"education"}`, nil
	case strings.Contains(system, "write video metadata"):
		if f.metaErr != nil {
			return "", f.metaErr
		}
		return `{"titles":["Generated Title A","Generated Title B"],"description":"A generated description."}`, nil
	case strings.Contains(system, "suggest hashtags"):
		if f.hashtagsErr != nil {
			return "", f.hashtagsErr
		}
		return `{"hashtags":["#hello","#world"]}`, nil
	case strings.Contains(system, "publish slots"):
		if f.scheduleErr != nil {
			return "", f.scheduleErr
		}
		return `{"slots":["tuesday 18:00","thursday 19:00"]}`, nil
	}
	return "", fmt.Errorf("unexpected system prompt: %s", system)
}

func (f *fakeAI) CountTokens(ctx context.Context, mdl string, messages []adapter.Message) (int, error) {
	f.mu.Lock()
	f.countTokenCalls++
	f.mu.Unlock()
	total := 0
	for _, m := range messages {
		total += len(m.Content) / 4
	}
	return total, nil
}

func (f *fakeAI) tokenCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countTokenCalls
}

func (f *fakeAI) seenSystemPrompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.systemPrompts...)
}

type ledgerOp struct {
	userID string
	amount int
	reason string
}

// fakeLedger records every reserve and refund for assertions.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[string]int
	reserves []ledgerOp
	refunds  []ledgerOp
	refunded map[string]bool

	reserveErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: map[string]int{}, refunded: map[string]bool{}}
}

func (l *fakeLedger) set(userID string, amount int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances[userID] = amount
}

func (l *fakeLedger) balance(userID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID]
}

func (l *fakeLedger) reserveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.reserves)
}

func (l *fakeLedger) refundTotal() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	total := 0
	for _, r := range l.refunds {
		total += r.amount
	}
	return total
}

func (l *fakeLedger) Reserve(ctx context.Context, userID string, amount int, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.reserveErr != nil {
		return l.reserveErr
	}
	if l.balances[userID] < amount {
		return fmt.Errorf("reserve %d: %w", amount, domain.ErrInsufficientCredits)
	}
	l.balances[userID] -= amount
	l.reserves = append(l.reserves, ledgerOp{userID, amount, reason})
	return nil
}

func (l *fakeLedger) Refund(ctx context.Context, userID string, amount int, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.refunded[reason] {
		return nil
	}
	l.refunded[reason] = true
	l.balances[userID] += amount
	l.refunds = append(l.refunds, ledgerOp{userID, amount, reason})
	return nil
}

func (l *fakeLedger) Balance(ctx context.Context, userID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[userID], nil
}

// fakeLimiter approves or rejects every call.
type fakeLimiter struct {
	allow bool
	err   error

	mu    sync.Mutex
	calls int
}

func (f *fakeLimiter) Allow(ctx context.Context, userID string) (bool, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.allow, f.err
}

// ---- Harness ----

type harness struct {
	ai       *fakeAI
	ledger   *fakeLedger
	limiter  *fakeLimiter
	videos   *memstore.VideoRepo
	channels *memstore.ChannelRepo

	pipelines *memstore.PipelineStore
	batches   *memstore.BatchStore

	pipelineUC PipelineUseCase
	batchUC    BatchUseCase
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		ai:        newFakeAI(),
		ledger:    newFakeLedger(),
		limiter:   &fakeLimiter{allow: true},
		videos:    memstore.NewVideoRepo(),
		channels:  memstore.NewChannelRepo(),
		pipelines: memstore.NewPipelineStore(),
		batches:   memstore.NewBatchStore(),
	}
	log := zerolog.Nop()
	m := NewMeter(h.limiter, h.ledger, &log)
	transcribe := NewTranscriptionUseCase(h.videos, h.ai, m, &log)
	analyze := NewAnalysisUseCase(h.videos, h.ai, m, &log)
	metadata := NewMetadataUseCase(h.videos, h.ai, m, &log)
	hashtags := NewHashtagUseCase(h.videos, h.ai, m, &log)
	schedule := NewScheduleUseCase(h.channels, h.ai, m, &log)

	h.pipelineUC = NewPipelineUseCase(h.pipelines, h.videos, h.ledger,
		transcribe, analyze, metadata, hashtags, schedule, &log)
	h.batchUC = NewBatchUseCase(h.batches, h.videos, h.ledger,
		transcribe, analyze, metadata, hashtags, schedule, m, 3, &log)
	return h
}

func (h *harness) seedVideo(id, userID string) {
	h.videos.Put(&model.Video{
		ID:         id,
		UserID:     userID,
		Title:      "Seeded " + id,
		AudioURL:   "https://cdn.example.com/" + id + ".mp3",
		Transcript: "stored transcript for " + id,
	})
}

// waitPipeline polls until the pipeline reaches a terminal status.
func (h *harness) waitPipeline(t *testing.T, id string) *model.Pipeline {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		p, err := h.pipelines.FindByID(context.Background(), id)
		if err == nil && p.Terminal() {
			return p
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("pipeline %s did not finish in time", id)
	return nil
}

// waitBatch polls until the batch reaches a terminal status.
func (h *harness) waitBatch(t *testing.T, id string) *model.Batch {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b, err := h.batches.FindByID(context.Background(), id)
		if err == nil && (b.Status == model.BatchStatusCompleted || b.Status == model.BatchStatusPartiallyFailed) {
			return b
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("batch %s did not finish in time", id)
	return nil
}

var errBoom = errors.New("boom")
