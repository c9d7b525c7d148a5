// Package servecmder provides the serve command for running the chat server.
package servecmder

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/parley/pkg/chat"
	"github.com/papercomputeco/parley/pkg/config"
	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/eventstream/kafka"
	"github.com/papercomputeco/parley/pkg/eventstream/nop"
	"github.com/papercomputeco/parley/pkg/llm/openai"
	"github.com/papercomputeco/parley/pkg/logger"
	"github.com/papercomputeco/parley/pkg/session"
	"github.com/papercomputeco/parley/server"
)

type ServeCommander struct {
	listen       string
	upstream     string
	model        string
	apiKey       string
	systemPrompt string
	maxTurns     int
	pendingTTL   string
	eventBrokers string
	eventTopic   string
	debug        bool
}

const serveLongDesc string = `Run the parley chat server.

The server keeps per-browser conversation history, relays messages to the
configured upstream completion provider, and streams replies back over SSE.

Configuration follows the precedence chain: flags, PARLEY_ environment
variables, config.toml in the .parley/ directory, built-in defaults.`

const serveShortDesc string = "Run the parley chat server"

// registeredFlags maps flag registry keys to their definitions.
var registeredFlags = config.FlagSet{
	config.FlagListen: {
		Name:        "listen",
		Shorthand:   "l",
		ViperKey:    "server.listen",
		Description: "Address for the chat server to listen on",
	},
	config.FlagUpstream: {
		Name:        "upstream",
		Shorthand:   "u",
		ViperKey:    "upstream.base_url",
		Description: "Upstream completion provider base URL",
	},
	config.FlagModel: {
		Name:        "model",
		Shorthand:   "m",
		ViperKey:    "upstream.model",
		Description: "Upstream model name",
	},
	config.FlagAPIKey: {
		Name:        "api-key",
		ViperKey:    "upstream.api_key",
		Description: "Upstream API key (prefer PARLEY_UPSTREAM_API_KEY)",
	},
	config.FlagSystemPrompt: {
		Name:        "system-prompt",
		ViperKey:    "chat.system_prompt",
		Description: "System prompt heading every conversation",
	},
	config.FlagMaxTurns: {
		Name:        "max-turns",
		ViperKey:    "chat.max_turns",
		Description: "Maximum user/assistant exchanges kept per conversation (0 disables)",
	},
	config.FlagPendingTTL: {
		Name:        "pending-ttl",
		ViperKey:    "pending.ttl",
		Description: "How long an uncommitted streamed reply is retained",
	},
	config.FlagEventBrokers: {
		Name:        "event-brokers",
		ViperKey:    "events.brokers",
		Description: "Comma-separated Kafka brokers for turn events",
	},
	config.FlagEventTopic: {
		Name:        "event-topic",
		ViperKey:    "events.topic",
		Description: "Kafka topic for turn events",
	},
}

var boundFlags = []string{
	config.FlagListen,
	config.FlagUpstream,
	config.FlagModel,
	config.FlagAPIKey,
	config.FlagSystemPrompt,
	config.FlagMaxTurns,
	config.FlagPendingTTL,
	config.FlagEventBrokers,
	config.FlagEventTopic,
}

func NewServeCmd() *cobra.Command {
	cmder := &ServeCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}

			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, registeredFlags, boundFlags)

			return cmder.run(v)
		},
	}

	config.AddStringFlag(cmd, registeredFlags, config.FlagListen, &cmder.listen)
	config.AddStringFlag(cmd, registeredFlags, config.FlagUpstream, &cmder.upstream)
	config.AddStringFlag(cmd, registeredFlags, config.FlagModel, &cmder.model)
	config.AddStringFlag(cmd, registeredFlags, config.FlagAPIKey, &cmder.apiKey)
	config.AddStringFlag(cmd, registeredFlags, config.FlagSystemPrompt, &cmder.systemPrompt)
	config.AddIntFlag(cmd, registeredFlags, config.FlagMaxTurns, &cmder.maxTurns)
	config.AddStringFlag(cmd, registeredFlags, config.FlagPendingTTL, &cmder.pendingTTL)
	config.AddStringFlag(cmd, registeredFlags, config.FlagEventBrokers, &cmder.eventBrokers)
	config.AddStringFlag(cmd, registeredFlags, config.FlagEventTopic, &cmder.eventTopic)

	return cmd
}

func (c *ServeCommander) run(v *viper.Viper) error {
	log := logger.New(
		logger.WithDebug(c.debug),
		logger.WithPretty(true),
	)

	completer, err := openai.NewClient(openai.Config{
		BaseURL: v.GetString("upstream.base_url"),
		Model:   v.GetString("upstream.model"),
		APIKey:  v.GetString("upstream.api_key"),
	})
	if err != nil {
		return fmt.Errorf("creating upstream client: %w", err)
	}

	ttl, err := parseDuration(v.GetString("pending.ttl"), chat.DefaultPendingTTL)
	if err != nil {
		return fmt.Errorf("parsing pending.ttl: %w", err)
	}
	sweep, err := parseDuration(v.GetString("pending.sweep_interval"), chat.DefaultSweepInterval)
	if err != nil {
		return fmt.Errorf("parsing pending.sweep_interval: %w", err)
	}
	lifetime, err := parseDuration(v.GetString("session.lifetime"), session.DefaultLifetime)
	if err != nil {
		return fmt.Errorf("parsing session.lifetime: %w", err)
	}

	pending := chat.NewPendingResponses(ttl, sweep)
	defer pending.Close()

	publisher, err := c.createPublisher(v, log)
	if err != nil {
		return err
	}
	defer publisher.Close()

	srv := server.NewServer(
		server.Config{
			ListenAddr:   v.GetString("server.listen"),
			SystemPrompt: v.GetString("chat.system_prompt"),
			MaxTurns:     v.GetInt("chat.max_turns"),
			Model:        v.GetString("upstream.model"),
		},
		completer,
		session.New(lifetime),
		pending,
		publisher,
		log,
	)

	log.Info("starting parley",
		"listen", v.GetString("server.listen"),
		"upstream", v.GetString("upstream.base_url"),
		"model", v.GetString("upstream.model"),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := srv.Run(); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())
		return srv.Shutdown()
	}
}

// createPublisher builds the turn-event publisher: Kafka when events are
// enabled, otherwise a no-op.
func (c *ServeCommander) createPublisher(v *viper.Viper, log *slog.Logger) (eventstream.Publisher, error) {
	if !v.GetBool("events.enabled") {
		return nop.NewPublisher(), nil
	}

	brokers := splitBrokers(v.GetString("events.brokers"))
	topic := v.GetString("events.topic")

	publisher, err := kafka.NewPublisher(brokers, topic)
	if err != nil {
		return nil, fmt.Errorf("creating kafka publisher: %w", err)
	}

	log.Info("publishing turn events", "brokers", brokers, "topic", topic)

	return publisher, nil
}

func splitBrokers(raw string) []string {
	var brokers []string
	for _, broker := range strings.Split(raw, ",") {
		if broker = strings.TrimSpace(broker); broker != "" {
			brokers = append(brokers, broker)
		}
	}
	return brokers
}

func parseDuration(raw string, fallback time.Duration) (time.Duration, error) {
	if raw == "" {
		return fallback, nil
	}
	return time.ParseDuration(raw)
}
