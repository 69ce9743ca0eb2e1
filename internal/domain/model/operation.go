package model

// AIOperationKind identifies one unit of metered AI work.
type AIOperationKind string

const (
	OpSpeechToText     AIOperationKind = "speech_to_text"
	OpAnalyzeScript    AIOperationKind = "analyze_script"
	OpGenerateMeta     AIOperationKind = "generate_meta"
	OpGenerateHashtags AIOperationKind = "generate_hashtags"
	OpSuggestSchedule  AIOperationKind = "suggest_schedule"
)

// BatchOperationAll runs speech-to-text, meta and hashtags sequentially per item.
const BatchOperationAll = "all"

// DefaultPlatform is used when a caller does not request target platforms.
const DefaultPlatform = "youtube"

// DiscountStepThreshold is the step count at which the discount flag is recorded.
// The flag is informational; pricing stays the static per-step sum.
const DiscountStepThreshold = 3

var operationCosts = map[AIOperationKind]int{
	OpSpeechToText:     10,
	OpAnalyzeScript:    5,
	OpGenerateMeta:     5,
	OpGenerateHashtags: 3,
	OpSuggestSchedule:  2,
}

// Cost returns the static credit cost of the operation, 0 for unknown kinds.
func (k AIOperationKind) Cost() int { return operationCosts[k] }

func (k AIOperationKind) Valid() bool {
	_, ok := operationCosts[k]
	return ok
}

func AllOperations() []AIOperationKind {
	return []AIOperationKind{
		OpSpeechToText, OpAnalyzeScript, OpGenerateMeta, OpGenerateHashtags, OpSuggestSchedule,
	}
}

// TotalCost sums the static costs of the given steps.
func TotalCost(steps []AIOperationKind) int {
	total := 0
	for _, s := range steps {
		total += s.Cost()
	}
	return total
}

// BatchPerItemCost returns the nominal per-item cost of a batch operation.
// The second result is false when the operation name is unknown.
func BatchPerItemCost(operation string) (int, bool) {
	if operation == BatchOperationAll {
		return OpSpeechToText.Cost() + OpGenerateMeta.Cost() + OpGenerateHashtags.Cost(), true
	}
	k := AIOperationKind(operation)
	if !k.Valid() {
		return 0, false
	}
	return k.Cost(), true
}
