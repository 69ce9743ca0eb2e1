package model

import "time"

type PipelineStatus string

const (
	PipelineStatusPending   PipelineStatus = "pending"
	PipelineStatusRunning   PipelineStatus = "running"
	PipelineStatusCompleted PipelineStatus = "completed"
	PipelineStatusFailed    PipelineStatus = "failed"
	PipelineStatusCancelled PipelineStatus = "cancelled"
)

type PipelineStepStatus string

const (
	StepStatusPending   PipelineStepStatus = "pending"
	StepStatusRunning   PipelineStepStatus = "running"
	StepStatusCompleted PipelineStepStatus = "completed"
	StepStatusFailed    PipelineStepStatus = "failed"
	StepStatusSkipped   PipelineStepStatus = "skipped"
)

// PipelineStep is one requested step with its outcome, in request order.
type PipelineStep struct {
	Kind   AIOperationKind    `json:"kind"`
	Status PipelineStepStatus `json:"status"`
	Result any                `json:"result,omitempty"`
	Error  string             `json:"error,omitempty"`
}

// Pipeline is one user's ordered set of AI steps against one video.
// It is created on admission and mutated only by its own background
// execution and by cancellation.
type Pipeline struct {
	ID                  string           `json:"id"`
	UserID              string           `json:"userId"`
	VideoID             string           `json:"videoId"`
	ChannelID           string           `json:"channelId,omitempty"`
	Steps               []PipelineStep   `json:"steps"`
	TotalCreditsCharged int              `json:"totalCreditsCharged"`
	DiscountApplied     bool             `json:"discountApplied"`
	Status              PipelineStatus   `json:"status"`
	CurrentStep         *AIOperationKind `json:"currentStep,omitempty"`
	CreatedAt           time.Time        `json:"createdAt"`
	CompletedAt         *time.Time       `json:"completedAt,omitempty"`
}

// NewPipeline builds an admitted pipeline with every step Pending.
// TotalCreditsCharged is the static cost sum of the requested steps and
// changes only via an explicit cancellation refund.
func NewPipeline(id, userID, videoID, channelID string, steps []AIOperationKind) *Pipeline {
	records := make([]PipelineStep, 0, len(steps))
	for _, s := range steps {
		records = append(records, PipelineStep{Kind: s, Status: StepStatusPending})
	}
	return &Pipeline{
		ID:                  id,
		UserID:              userID,
		VideoID:             videoID,
		ChannelID:           channelID,
		Steps:               records,
		TotalCreditsCharged: TotalCost(steps),
		DiscountApplied:     len(steps) >= DiscountStepThreshold,
		Status:              PipelineStatusRunning,
		CreatedAt:           time.Now(),
	}
}

// Terminal reports whether the pipeline reached a final status.
func (p *Pipeline) Terminal() bool {
	switch p.Status {
	case PipelineStatusCompleted, PipelineStatusFailed, PipelineStatusCancelled:
		return true
	}
	return false
}

// RefundableOnCancel is the unspent amount at cancellation: total charged
// minus the cost of steps Completed or Running at that moment. Step failure
// on its own never refunds; only cancellation reconciles unspent credit.
func (p *Pipeline) RefundableOnCancel() int {
	spent := 0
	for _, s := range p.Steps {
		if s.Status == StepStatusCompleted || s.Status == StepStatusRunning {
			spent += s.Kind.Cost()
		}
	}
	refund := p.TotalCreditsCharged - spent
	if refund < 0 {
		return 0
	}
	return refund
}

// Clone returns a deep copy so stored aggregates cannot be mutated by callers.
func (p *Pipeline) Clone() *Pipeline {
	cp := *p
	cp.Steps = make([]PipelineStep, len(p.Steps))
	copy(cp.Steps, p.Steps)
	if p.CurrentStep != nil {
		k := *p.CurrentStep
		cp.CurrentStep = &k
	}
	if p.CompletedAt != nil {
		t := *p.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
