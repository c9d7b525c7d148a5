// Package llm defines the provider-agnostic chat message model and the
// contract for upstream completion services.
package llm

// Conversation roles. The upstream contract assumes a transcript headed by a
// single system message followed by alternating user/assistant turns.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ErrorResponse is the JSON envelope for every client-facing failure.
type ErrorResponse struct {
	Error string `json:"error"`
}
