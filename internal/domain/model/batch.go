package model

import "time"

type BatchStatus string

const (
	BatchStatusPending         BatchStatus = "pending"
	BatchStatusProcessing      BatchStatus = "processing"
	BatchStatusCompleted       BatchStatus = "completed"
	BatchStatusPartiallyFailed BatchStatus = "partially_failed"
)

type BatchItemStatus string

const (
	BatchItemPending    BatchItemStatus = "pending"
	BatchItemProcessing BatchItemStatus = "processing"
	BatchItemCompleted  BatchItemStatus = "completed"
	BatchItemFailed     BatchItemStatus = "failed"
)

// ItemErrVideoNotFound is the canonical item error when the target video is gone.
const ItemErrVideoNotFound = "VIDEO_NOT_FOUND"

// BatchItem is one video inside a batch. Title is a best-effort snapshot
// taken at admission; nil when the video was already missing.
type BatchItem struct {
	VideoID string          `json:"videoId"`
	Title   *string         `json:"title,omitempty"`
	Status  BatchItemStatus `json:"status"`
	Result  any             `json:"result,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// Batch is one user's single AI operation fanned out across many videos.
type Batch struct {
	ID          string      `json:"id"`
	UserID      string      `json:"userId"`
	Operation   string      `json:"operation"`
	Platforms   []string    `json:"platforms"`
	Status      BatchStatus `json:"status"`
	TotalItems  int         `json:"totalItems"`
	Items       []BatchItem `json:"items"`
	CreatedAt   time.Time   `json:"createdAt"`
	CompletedAt *time.Time  `json:"completedAt,omitempty"`
}

func NewBatch(id, userID, operation string, platforms []string, items []BatchItem) *Batch {
	if len(platforms) == 0 {
		platforms = []string{DefaultPlatform}
	}
	return &Batch{
		ID:         id,
		UserID:     userID,
		Operation:  operation,
		Platforms:  platforms,
		Status:     BatchStatusPending,
		TotalItems: len(items),
		Items:      items,
		CreatedAt:  time.Now(),
	}
}

func (b *Batch) FailedCount() int {
	n := 0
	for _, it := range b.Items {
		if it.Status == BatchItemFailed {
			n++
		}
	}
	return n
}

// FinalStatus derives the whole-batch status once every item is terminal.
// A batch never reports a pure failed state: any failure yields PartiallyFailed.
func (b *Batch) FinalStatus() BatchStatus {
	if b.FailedCount() > 0 {
		return BatchStatusPartiallyFailed
	}
	return BatchStatusCompleted
}

// Clone returns a deep copy so stored aggregates cannot be mutated by callers.
func (b *Batch) Clone() *Batch {
	cp := *b
	cp.Items = make([]BatchItem, len(b.Items))
	copy(cp.Items, b.Items)
	cp.Platforms = append([]string(nil), b.Platforms...)
	if b.CompletedAt != nil {
		t := *b.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
