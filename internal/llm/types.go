// Package llm provides text-generation client implementations.
package llm

// Chat roles used in provider requests.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message for the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request describes one generation call. The same request produces the same
// content whether it is delivered incrementally (Stream with a callback) or
// buffered (Complete); only the delivery cadence differs.
type Request struct {
	// Model overrides the client's default model when non-empty.
	Model string

	// System is the rendered system prompt.
	System string

	// History is the prior exchange for this participant, oldest first.
	History []Message

	// Input is the rendered user-facing prompt for this turn.
	Input string

	// PreviousResponseID is an opaque backend-assigned token chaining this
	// request to earlier backend-side conversation state. It is never parsed
	// here; providers without server-side state ignore it and rely on
	// History instead.
	PreviousResponseID string

	// MaxTokens caps the reply length when > 0.
	MaxTokens int
}

// Completion is the unified result from any provider.
type Completion struct {
	// Content is the full generated text. When a Stream call returns an
	// error after chunks were already delivered, Content holds the partial
	// text accumulated so far.
	Content string

	// ResponseID is the backend-assigned identifier for this generation,
	// empty for backends that do not issue one.
	ResponseID string

	Model string

	InputTokens  int
	OutputTokens int
}

// StreamFunc receives each text chunk in generation order, exactly once.
// Returning a non-nil error stops the stream promptly; the provider then
// returns the partial Completion together with the callback's error.
type StreamFunc func(chunk string) error
