package eventstream

import "time"

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeTurnCommitted is emitted after a completed exchange is
	// committed to a session's conversation history.
	EventTypeTurnCommitted = "parley.turn.committed"
)

// TurnCommittedEvent is a transport-neutral event payload for a committed
// conversation turn.
type TurnCommittedEvent struct {
	SchemaVersion int         `json:"schema_version"`
	EventType     string      `json:"event_type"`
	EventID       string      `json:"event_id"`
	EmittedAt     time.Time   `json:"emitted_at"`
	Source        EventSource `json:"source"`
	Turn          TurnMeta    `json:"turn"`
}

// EventSource identifies where the turn originated.
type EventSource struct {
	SessionID string `json:"session_id"`
	Model     string `json:"model"`
}

// TurnMeta carries the committed exchange and transcript shape.
type TurnMeta struct {
	ResponseID       string `json:"response_id,omitempty"`
	UserContent      string `json:"user_content"`
	AssistantContent string `json:"assistant_content"`
	Streamed         bool   `json:"streamed"`
	TranscriptLength int    `json:"transcript_length"`
}
