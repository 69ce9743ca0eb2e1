package model

// Typed results produced by the operation collaborators. They are stored
// opaquely on pipeline steps and batch items and serialized as-is to callers.

type TranscriptResult struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

type ScriptAnalysis struct {
	Keywords []string `json:"keywords"`
	Category string   `json:"category"`
}

type VideoMeta struct {
	Titles      []string `json:"titles"`
	Description string   `json:"description"`
}

type HashtagSet struct {
	Hashtags []string `json:"hashtags"`
}

type ScheduleSuggestion struct {
	// Slots are suggested publish times, e.g. "tuesday 18:00".
	Slots []string `json:"slots"`
}
