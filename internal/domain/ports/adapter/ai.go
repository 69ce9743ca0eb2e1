package adapter

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// AIServiceAdapter is the port for the LLM gateway. Calls into it are the
// only blocking points of pipeline/batch execution.
type AIServiceAdapter interface {
	ListModels(ctx context.Context) ([]string, error)

	// Transcribe converts source audio at the given URL to text.
	Transcribe(ctx context.Context, audioURL string) (string, error)

	// Chat returns only the assistant text. An empty model selects the
	// adapter's default.
	Chat(ctx context.Context, model string, messages []Message) (string, error)

	// CountTokens returns prompt tokens for the provided messages
	// (provider-specific counting; best-effort when exact isn't available).
	CountTokens(ctx context.Context, model string, messages []Message) (int, error)
}
