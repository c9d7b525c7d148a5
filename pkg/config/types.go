package config

import (
	"fmt"
	"strconv"
)

// Config represents the persistent parley configuration stored as config.toml
// in the .parley/ directory. The TOML layout uses sections for logical grouping.
type Config struct {
	Version  int            `toml:"version"`
	Server   ServerConfig   `toml:"server"`
	Upstream UpstreamConfig `toml:"upstream"`
	Chat     ChatConfig     `toml:"chat"`
	Pending  PendingConfig  `toml:"pending"`
	Session  SessionConfig  `toml:"session"`
	Events   EventsConfig   `toml:"events"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Listen string `toml:"listen,omitempty"`
}

// UpstreamConfig holds settings for the upstream completion provider.
type UpstreamConfig struct {
	BaseURL string `toml:"base_url,omitempty"`
	Model   string `toml:"model,omitempty"`
	APIKey  string `toml:"api_key,omitempty"`
}

// ChatConfig holds conversation shaping settings.
type ChatConfig struct {
	SystemPrompt string `toml:"system_prompt,omitempty"`
	MaxTurns     int    `toml:"max_turns,omitempty"`
}

// PendingConfig holds pending-response table settings. Durations use Go
// duration syntax ("10m", "90s").
type PendingConfig struct {
	TTL           string `toml:"ttl,omitempty"`
	SweepInterval string `toml:"sweep_interval,omitempty"`
}

// SessionConfig holds browser session settings.
type SessionConfig struct {
	Lifetime string `toml:"lifetime,omitempty"`
}

// EventsConfig holds turn-event publishing settings. Brokers is a
// comma-separated list of Kafka broker addresses.
type EventsConfig struct {
	Enabled bool   `toml:"enabled,omitempty"`
	Brokers string `toml:"brokers,omitempty"`
	Topic   string `toml:"topic,omitempty"`
}

// configKeyInfo maps a user-facing dotted key name to a getter and setter on *Config.
type configKeyInfo struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

// configKeys is the authoritative map of all supported config keys.
// Keys use dotted notation matching the TOML section structure.
var configKeys = map[string]configKeyInfo{
	"server.listen": {
		get: func(c *Config) string { return c.Server.Listen },
		set: func(c *Config, v string) error { c.Server.Listen = v; return nil },
	},
	"upstream.base_url": {
		get: func(c *Config) string { return c.Upstream.BaseURL },
		set: func(c *Config, v string) error { c.Upstream.BaseURL = v; return nil },
	},
	"upstream.model": {
		get: func(c *Config) string { return c.Upstream.Model },
		set: func(c *Config, v string) error { c.Upstream.Model = v; return nil },
	},
	"upstream.api_key": {
		get: func(c *Config) string { return c.Upstream.APIKey },
		set: func(c *Config, v string) error { c.Upstream.APIKey = v; return nil },
	},
	"chat.system_prompt": {
		get: func(c *Config) string { return c.Chat.SystemPrompt },
		set: func(c *Config, v string) error { c.Chat.SystemPrompt = v; return nil },
	},
	"chat.max_turns": {
		get: func(c *Config) string {
			if c.Chat.MaxTurns == 0 {
				return ""
			}
			return strconv.Itoa(c.Chat.MaxTurns)
		},
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("invalid value for chat.max_turns: %w", err)
			}
			if n < 0 {
				return fmt.Errorf("chat.max_turns cannot be negative")
			}
			c.Chat.MaxTurns = n
			return nil
		},
	},
	"pending.ttl": {
		get: func(c *Config) string { return c.Pending.TTL },
		set: func(c *Config, v string) error { c.Pending.TTL = v; return nil },
	},
	"pending.sweep_interval": {
		get: func(c *Config) string { return c.Pending.SweepInterval },
		set: func(c *Config, v string) error { c.Pending.SweepInterval = v; return nil },
	},
	"session.lifetime": {
		get: func(c *Config) string { return c.Session.Lifetime },
		set: func(c *Config, v string) error { c.Session.Lifetime = v; return nil },
	},
	"events.enabled": {
		get: func(c *Config) string { return strconv.FormatBool(c.Events.Enabled) },
		set: func(c *Config, v string) error {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid value for events.enabled: %w", err)
			}
			c.Events.Enabled = b
			return nil
		},
	},
	"events.brokers": {
		get: func(c *Config) string { return c.Events.Brokers },
		set: func(c *Config, v string) error { c.Events.Brokers = v; return nil },
	},
	"events.topic": {
		get: func(c *Config) string { return c.Events.Topic },
		set: func(c *Config, v string) error { c.Events.Topic = v; return nil },
	},
}
