package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"video-ai-orchestrator/internal/domain"
	"video-ai-orchestrator/internal/domain/model"
)

func TestBatchStart_Validation(t *testing.T) {
	h := newHarness(t)
	h.ledger.set("user-1", 1000)
	ctx := context.Background()

	t.Run("empty video list", func(t *testing.T) {
		_, err := h.batchUC.Start(ctx, "user-1", nil, string(model.OpSpeechToText), nil)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("want ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("unknown operation", func(t *testing.T) {
		_, err := h.batchUC.Start(ctx, "user-1", []string{"vid-1"}, "mystery", nil)
		if !errors.Is(err, domain.ErrInvalidArgument) {
			t.Fatalf("want ErrInvalidArgument, got %v", err)
		}
	})
}

func TestBatchStart_PreflightBalance(t *testing.T) {
	h := newHarness(t)
	h.seedVideo("vid-1", "user-1")
	h.seedVideo("vid-2", "user-1")
	h.ledger.set("user-1", 15) // two speech_to_text items need 20

	_, err := h.batchUC.Start(context.Background(), "user-1",
		[]string{"vid-1", "vid-2"}, string(model.OpSpeechToText), nil)
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("want ErrInvalidArgument, got %v", err)
	}
	// Pre-flight is an estimate only; nothing may be reserved.
	if h.ledger.reserveCount() != 0 {
		t.Fatalf("preflight must not reserve, got %d reserves", h.ledger.reserveCount())
	}
}

func TestBatchRun_MissingVideoIsPartialFailure(t *testing.T) {
	h := newHarness(t)
	h.seedVideo("vid-1", "user-1")
	h.seedVideo("vid-3", "user-1")
	h.ledger.set("user-1", 1000)

	b, err := h.batchUC.Start(context.Background(), "user-1",
		[]string{"vid-1", "vid-2", "vid-3"}, string(model.OpSpeechToText), nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if b.TotalItems != 3 {
		t.Fatalf("want 3 items, got %d", b.TotalItems)
	}

	done := h.waitBatch(t, b.ID)
	if done.Status != model.BatchStatusPartiallyFailed {
		t.Fatalf("want partially_failed, got %s", done.Status)
	}
	completed, failed := 0, 0
	for _, it := range done.Items {
		switch it.Status {
		case model.BatchItemCompleted:
			completed++
		case model.BatchItemFailed:
			failed++
			if it.VideoID != "vid-2" {
				t.Fatalf("wrong item failed: %s", it.VideoID)
			}
			if it.Error != model.ItemErrVideoNotFound {
				t.Fatalf("want %s, got %q", model.ItemErrVideoNotFound, it.Error)
			}
			if it.Title != nil {
				t.Fatal("missing video must have no title snapshot")
			}
		}
	}
	if completed != 2 || failed != 1 {
		t.Fatalf("want 2 completed / 1 failed, got %d/%d", completed, failed)
	}
}

func TestBatchRun_TitleSnapshotTakenAtAdmission(t *testing.T) {
	h := newHarness(t)
	h.seedVideo("vid-1", "user-1")
	h.ledger.set("user-1", 1000)

	b, err := h.batchUC.Start(context.Background(), "user-1",
		[]string{"vid-1"}, string(model.OpGenerateHashtags), nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if b.Items[0].Title == nil || *b.Items[0].Title != "Seeded vid-1" {
		t.Fatalf("title snapshot missing: %+v", b.Items[0].Title)
	}
	h.waitBatch(t, b.ID)
}

func TestBatchRun_AllItemsFailingIsStillPartiallyFailed(t *testing.T) {
	h := newHarness(t)
	h.ledger.set("user-1", 1000)

	// None of the videos exist.
	b, err := h.batchUC.Start(context.Background(), "user-1",
		[]string{"vid-a", "vid-b"}, string(model.OpSpeechToText), nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	done := h.waitBatch(t, b.ID)
	if done.Status != model.BatchStatusPartiallyFailed {
		t.Fatalf("want partially_failed even when everything failed, got %s", done.Status)
	}
	if done.FailedCount() != 2 {
		t.Fatalf("want 2 failed, got %d", done.FailedCount())
	}
}

func TestBatchRun_ItemsChargeIndividually(t *testing.T) {
	h := newHarness(t)
	h.seedVideo("vid-1", "user-1")
	h.seedVideo("vid-2", "user-1")
	h.ledger.set("user-1", 1000)

	b, err := h.batchUC.Start(context.Background(), "user-1",
		[]string{"vid-1", "vid-2"}, string(model.OpSpeechToText), nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	h.waitBatch(t, b.ID)

	if h.ledger.reserveCount() != 2 {
		t.Fatalf("want 2 per-item reserves, got %d", h.ledger.reserveCount())
	}
	if h.ledger.balance("user-1") != 1000-2*model.OpSpeechToText.Cost() {
		t.Fatalf("unexpected balance %d", h.ledger.balance("user-1"))
	}
}

func TestBatchRun_FailedItemIsRefunded(t *testing.T) {
	h := newHarness(t)
	h.seedVideo("vid-1", "user-1")
	h.ledger.set("user-1", 1000)
	h.ai.transcribeErr = errBoom

	b, err := h.batchUC.Start(context.Background(), "user-1",
		[]string{"vid-1"}, string(model.OpSpeechToText), nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	done := h.waitBatch(t, b.ID)

	if done.Items[0].Status != model.BatchItemFailed {
		t.Fatalf("want failed item, got %s", done.Items[0].Status)
	}
	// The metered call reserved then refunded, so the balance is untouched.
	if h.ledger.balance("user-1") != 1000 {
		t.Fatalf("want balance restored to 1000, got %d", h.ledger.balance("user-1"))
	}
	if h.ledger.refundTotal() != model.OpSpeechToText.Cost() {
		t.Fatalf("want refund %d, got %d", model.OpSpeechToText.Cost(), h.ledger.refundTotal())
	}
}

func TestBatchRun_ConcurrencyCapped(t *testing.T) {
	h := newHarness(t)
	h.ledger.set("user-1", 1000)
	h.ai.delay = 20 * time.Millisecond
	ids := make([]string, 0, 6)
	for i := 1; i <= 6; i++ {
		id := fmt.Sprintf("vid-%d", i)
		h.seedVideo(id, "user-1")
		ids = append(ids, id)
	}

	b, err := h.batchUC.Start(context.Background(), "user-1", ids, string(model.OpSpeechToText), nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	done := h.waitBatch(t, b.ID)

	if done.Status != model.BatchStatusCompleted {
		t.Fatalf("want completed, got %s", done.Status)
	}
	if peak := h.ai.peakInFlight(); peak > 3 {
		t.Fatalf("concurrency cap exceeded: peak %d", peak)
	}
}

func TestBatchRun_RateLimitedItemsFail(t *testing.T) {
	h := newHarness(t)
	h.seedVideo("vid-1", "user-1")
	h.ledger.set("user-1", 1000)
	h.limiter.allow = false

	b, err := h.batchUC.Start(context.Background(), "user-1",
		[]string{"vid-1"}, string(model.OpSpeechToText), nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	done := h.waitBatch(t, b.ID)

	if done.Items[0].Status != model.BatchItemFailed {
		t.Fatalf("want failed item, got %s", done.Items[0].Status)
	}
	if h.ledger.reserveCount() != 0 {
		t.Fatalf("rate-limited call must not reserve, got %d", h.ledger.reserveCount())
	}
}

func TestBatchRun_AllOperationChainsFreshOutputs(t *testing.T) {
	h := newHarness(t)
	h.seedVideo("vid-1", "user-1")
	h.ledger.set("user-1", 1000)

	b, err := h.batchUC.Start(context.Background(), "user-1",
		[]string{"vid-1"}, model.BatchOperationAll, nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	done := h.waitBatch(t, b.ID)

	if done.Status != model.BatchStatusCompleted {
		t.Fatalf("want completed, got %s", done.Status)
	}
	// Three elementary calls, each metered on its own.
	if h.ledger.reserveCount() != 3 {
		t.Fatalf("want 3 reserves, got %d", h.ledger.reserveCount())
	}
	wantSpent := model.OpSpeechToText.Cost() + model.OpGenerateMeta.Cost() + model.OpGenerateHashtags.Cost()
	if h.ledger.balance("user-1") != 1000-wantSpent {
		t.Fatalf("want balance %d, got %d", 1000-wantSpent, h.ledger.balance("user-1"))
	}

	result, ok := done.Items[0].Result.(map[string]any)
	if !ok {
		t.Fatalf("unexpected result shape %T", done.Items[0].Result)
	}
	tr, ok := result["transcript"].(*model.TranscriptResult)
	if !ok || tr.Text != "hello world transcript" {
		t.Fatalf("transcript missing from combined result: %+v", result["transcript"])
	}
	meta, ok := result["meta"].(*model.VideoMeta)
	if !ok || len(meta.Titles) == 0 {
		t.Fatalf("meta missing from combined result: %+v", result["meta"])
	}
	if _, ok := result["hashtags"].(*model.HashtagSet); !ok {
		t.Fatalf("hashtags missing from combined result: %+v", result["hashtags"])
	}
}

func TestBatchStatus_Ownership(t *testing.T) {
	h := newHarness(t)
	h.seedVideo("vid-1", "user-1")
	h.ledger.set("user-1", 1000)

	b, err := h.batchUC.Start(context.Background(), "user-1",
		[]string{"vid-1"}, string(model.OpGenerateHashtags), nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	h.waitBatch(t, b.ID)

	if _, err := h.batchUC.Status(context.Background(), "intruder", b.ID); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if _, err := h.batchUC.Status(context.Background(), "user-1", "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestBatchDefaultsPlatform(t *testing.T) {
	h := newHarness(t)
	h.seedVideo("vid-1", "user-1")
	h.ledger.set("user-1", 1000)

	b, err := h.batchUC.Start(context.Background(), "user-1",
		[]string{"vid-1"}, string(model.OpGenerateMeta), nil)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(b.Platforms) != 1 || b.Platforms[0] != model.DefaultPlatform {
		t.Fatalf("want default platform, got %v", b.Platforms)
	}
	h.waitBatch(t, b.ID)
}

func TestBatchRun_DispatchTargetsFirstPlatform(t *testing.T) {
	h := newHarness(t)
	h.seedVideo("vid-1", "user-1")
	h.ledger.set("user-1", 1000)

	b, err := h.batchUC.Start(context.Background(), "user-1",
		[]string{"vid-1"}, string(model.OpGenerateHashtags), []string{"tiktok", "youtube"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if len(b.Platforms) != 2 {
		t.Fatalf("requested platforms must be recorded, got %v", b.Platforms)
	}
	done := h.waitBatch(t, b.ID)
	if done.Items[0].Status != model.BatchItemCompleted {
		t.Fatalf("item did not complete: %+v", done.Items[0])
	}

	sawFirst := false
	for _, p := range h.ai.seenSystemPrompts() {
		if strings.Contains(p, "tiktok") {
			sawFirst = true
		}
		if strings.Contains(p, "youtube") {
			t.Fatalf("dispatch must target the first platform only, prompt: %q", p)
		}
	}
	if !sawFirst {
		t.Fatal("no prompt mentioned the first requested platform")
	}
}
