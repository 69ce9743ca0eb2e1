package ai

import (
	"context"
	"strings"
	"time"

	"video-ai-orchestrator/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAIAdapter)(nil)

// NoopAIAdapter implements adapter.AIServiceAdapter for local/dev runs with
// no provider keys. It returns canned, well-formed payloads after a short
// simulated delay so the full pipeline path can be exercised offline.
type NoopAIAdapter struct{}

func NewNoopAIAdapter() *NoopAIAdapter {
	return &NoopAIAdapter{}
}

func (a *NoopAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	return []string{"noop-ai-model"}, nil
}

func (a *NoopAIAdapter) Transcribe(ctx context.Context, audioURL string) (string, error) {
	if err := a.wait(ctx); err != nil {
		return "", err
	}
	return "Placeholder transcript produced by the noop adapter.", nil
}

// Chat sniffs the system prompt to decide which canned JSON shape the
// caller expects.
func (a *NoopAIAdapter) Chat(ctx context.Context, model string, messages []adapter.Message) (string, error) {
	if err := a.wait(ctx); err != nil {
		return "", err
	}
	system := ""
	if len(messages) > 0 && messages[0].Role == "system" {
		system = messages[0].Content
	}
	switch {
	case containsAny(system, "keywords", "category"):
		return `{"keywords":["placeholder","noop"],"category":"general"}`, nil
	case containsAny(system, "titles", "description"):
		return `{"titles":["Placeholder title"],"description":"Placeholder description."}`, nil
	case containsAny(system, "hashtags"):
		return `{"hashtags":["#placeholder","#noop"]}`, nil
	case containsAny(system, "slots", "schedule"):
		return `{"slots":["2026-01-05T18:00:00Z","2026-01-07T18:00:00Z"]}`, nil
	default:
		return `{}`, nil
	}
}

func (a *NoopAIAdapter) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	total := 0
	for _, m := range messages {
		total += len(m.Content) / 4
	}
	return total, nil
}

func (a *NoopAIAdapter) wait(ctx context.Context) error {
	select {
	case <-time.After(50 * time.Millisecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func containsAny(s string, subs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range subs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
