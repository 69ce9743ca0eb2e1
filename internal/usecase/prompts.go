package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"video-ai-orchestrator/internal/domain"
	"video-ai-orchestrator/internal/domain/model"
	"video-ai-orchestrator/internal/domain/ports/adapter"
	"video-ai-orchestrator/internal/infra/metrics"
)

// Fallbacks used when an optional upstream output is absent.
const (
	fallbackCategory = "general"
	fallbackTitle    = "Untitled video"
)

// Canned step errors.
const (
	skipReasonTranscriptionFailed = "skipped: transcription failed"
	skipReasonCancelled           = "skipped: pipeline cancelled"
)

// chatJSON sends a system+user prompt to the gateway and decodes the JSON
// reply into out. Gateway failures map to domain.ErrAICallFailed, undecodable
// replies to domain.ErrAIParse.
func chatJSON(ctx context.Context, ai adapter.AIServiceAdapter, op model.AIOperationKind, system, user string, out any) error {
	msgs := []adapter.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}
	if tokens, err := ai.CountTokens(ctx, "", msgs); err == nil {
		metrics.AddAIPromptTokens(string(op), tokens)
	}
	start := time.Now()
	reply, err := ai.Chat(ctx, "", msgs)
	metrics.ObserveAICall(string(op), int(time.Since(start)/time.Millisecond), err == nil)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAICallFailed, err)
	}
	if err := json.Unmarshal([]byte(stripFences(reply)), out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrAIParse, err)
	}
	return nil
}

// stripFences tolerates models that wrap JSON in a markdown code block.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
