// Package server exposes the conversational chat API over HTTP.
//
// The server keeps per-browser conversation history in a session store,
// relays user messages to an upstream completion provider, and reconciles
// streamed replies through a pending-response table: a streamed reply is
// staged under a response id when the stream completes, and only becomes
// part of the conversation once the client commits it via /save_response.
package server

import (
	"log/slog"
	"sync/atomic"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/parley/pkg/chat"
	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/session"
)

// Server is the HTTP server for the parley chat API.
type Server struct {
	config    Config
	completer llm.Completer
	sessions  *session.Store
	pending   *chat.PendingResponses
	publisher eventstream.Publisher
	logger    *slog.Logger
	app       *fiber.App

	// directive is the current system prompt. Swapped atomically by
	// /update_system_prompt so in-flight requests see either the old or
	// the new value, never a torn mix.
	directive atomic.Pointer[string]
}

// NewServer creates a new chat server. The completer, session store, pending
// table, and publisher are injected so tests can substitute fakes.
func NewServer(
	config Config,
	completer llm.Completer,
	sessions *session.Store,
	pending *chat.PendingResponses,
	publisher eventstream.Publisher,
	logger *slog.Logger,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:    config,
		completer: completer,
		sessions:  sessions,
		pending:   pending,
		publisher: publisher,
		logger:    logger,
		app:       app,
	}

	prompt := config.SystemPrompt
	s.directive.Store(&prompt)

	app.Get("/ping", s.handlePing)
	app.Post("/chat", s.handleChat)
	app.Post("/save_response", s.handleSaveResponse)
	app.Get("/get_history", s.handleGetHistory)
	app.Post("/clear", s.handleClear)
	app.Post("/update_system_prompt", s.handleUpdateSystemPrompt)
	app.Get("/debug_session", s.handleDebugSession)

	return s
}

// Run starts the server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting chat server",
		"listen", s.config.ListenAddr,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App exposes the underlying fiber app for in-process testing.
func (s *Server) App() *fiber.App {
	return s.app
}

// currentDirective returns the system prompt in effect right now.
func (s *Server) currentDirective() string {
	return *s.directive.Load()
}
