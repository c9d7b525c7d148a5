package server

// Config holds the runtime settings for the chat server.
type Config struct {
	// ListenAddr is the address the HTTP server binds to (e.g. ":8080").
	ListenAddr string

	// SystemPrompt is the directive that heads every conversation.
	SystemPrompt string

	// MaxTurns bounds the number of user/assistant exchanges kept per
	// conversation. Zero disables the bound.
	MaxTurns int

	// Model names the upstream model, recorded on published turn events.
	Model string
}
