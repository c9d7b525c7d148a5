package config

const (
	defaultListen = ":8080"

	// The upstream client appends /chat/completions to the base URL, so
	// the base URL carries the API version prefix.
	defaultUpstreamBaseURL = "https://api.openai.com/v1"
	defaultUpstreamModel   = "gpt-4o-mini"

	defaultSystemPrompt = "You are a helpful assistant."
	defaultMaxTurns     = 16

	defaultPendingTTL    = "10m"
	defaultSweepInterval = "1m"

	defaultSessionLifetime = "24h"

	defaultEventsTopic = "parley.turns"
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Server: ServerConfig{
			Listen: defaultListen,
		},
		Upstream: UpstreamConfig{
			BaseURL: defaultUpstreamBaseURL,
			Model:   defaultUpstreamModel,
		},
		Chat: ChatConfig{
			SystemPrompt: defaultSystemPrompt,
			MaxTurns:     defaultMaxTurns,
		},
		Pending: PendingConfig{
			TTL:           defaultPendingTTL,
			SweepInterval: defaultSweepInterval,
		},
		Session: SessionConfig{
			Lifetime: defaultSessionLifetime,
		},
		Events: EventsConfig{
			Topic: defaultEventsTopic,
		},
	}
}
