package server

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/papercomputeco/parley/pkg/chat"
	"github.com/papercomputeco/parley/pkg/eventstream"
	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/utils"
)

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message"`
	Stream  bool   `json:"stream"`
}

// ChatResponse is the body of a non-streaming POST /chat reply.
type ChatResponse struct {
	Response     string `json:"response"`
	MessageCount int    `json:"message_count"`
}

// SaveResponseRequest is the body of POST /save_response.
type SaveResponseRequest struct {
	ResponseID string `json:"response_id"`
}

// UpdatePromptRequest is the body of POST /update_system_prompt.
type UpdatePromptRequest struct {
	SystemPrompt string `json:"system_prompt"`
}

// HistoryResponse is the body of GET /get_history.
type HistoryResponse struct {
	Messages []llm.Message `json:"messages"`
}

// StatusResponse is the generic success reply.
type StatusResponse struct {
	Status string `json:"status"`
}

var statusSuccess = StatusResponse{Status: "success"}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleChat accepts a user message, appends it to the conversation, and
// replies either with a complete response or an SSE stream.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "message is required"})
	}

	s.logger.Info("received user message",
		"message", utils.Truncate(req.Message, 100),
		"stream", req.Stream,
	)

	transcript, err := s.loadTranscript(c)
	if err != nil {
		s.logger.Error("loading conversation", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to load conversation"})
	}

	// The user message is part of the conversation as soon as it is
	// received, whether or not the reply succeeds.
	transcript.Append(llm.RoleUser, req.Message)
	if err := s.sessions.Save(c, transcript.Messages()); err != nil {
		s.logger.Error("saving conversation", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to save conversation"})
	}

	if req.Stream {
		return s.streamChat(c, transcript, req.Message)
	}

	reply, err := s.completer.Complete(c.Context(), transcript.Messages())
	if err != nil {
		s.logger.Error("upstream completion failed", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	s.logger.Debug("received reply", "reply", utils.Truncate(reply, 100))

	transcript.Append(llm.RoleAssistant, reply)
	if err := s.sessions.Save(c, transcript.Messages()); err != nil {
		s.logger.Error("saving conversation", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to save conversation"})
	}

	s.publishTurn(c, req.Message, reply, "", false, transcript.Len())

	return c.JSON(ChatResponse{
		Response:     reply,
		MessageCount: transcript.Len(),
	})
}

// handleSaveResponse commits a staged streamed reply into the conversation.
// An unknown or already-committed response id is a benign no-op: the client
// may retry a commit after a reconnect.
func (s *Server) handleSaveResponse(c *fiber.Ctx) error {
	var req SaveResponseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	if req.ResponseID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "missing response_id"})
	}

	content, err := s.pending.Commit(req.ResponseID)
	if err != nil {
		s.logger.Debug("commit for unknown response id", "response_id", req.ResponseID)
		return c.JSON(statusSuccess)
	}

	transcript, err := s.loadTranscript(c)
	if err != nil {
		s.logger.Error("loading conversation", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to load conversation"})
	}

	transcript.Append(llm.RoleAssistant, content)
	if err := s.sessions.Save(c, transcript.Messages()); err != nil {
		s.logger.Error("saving conversation", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to save conversation"})
	}

	s.publishTurn(c, lastUserContent(transcript), content, req.ResponseID, true, transcript.Len())

	return c.JSON(statusSuccess)
}

// handleGetHistory returns the conversation as the upstream would see it,
// headed by the current system prompt.
func (s *Server) handleGetHistory(c *fiber.Ctx) error {
	transcript, err := s.loadTranscript(c)
	if err != nil {
		s.logger.Error("loading conversation", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to load conversation"})
	}

	return c.JSON(HistoryResponse{Messages: transcript.Messages()})
}

// handleClear destroys the stored session and reseeds it with just the
// system prompt.
func (s *Server) handleClear(c *fiber.Ctx) error {
	if err := s.sessions.Clear(c); err != nil {
		s.logger.Error("destroying session", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to clear conversation"})
	}

	fresh := chat.New(s.currentDirective(), s.config.MaxTurns)
	if err := s.sessions.Save(c, fresh.Messages()); err != nil {
		s.logger.Error("saving conversation", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to clear conversation"})
	}

	return c.JSON(statusSuccess)
}

// handleUpdateSystemPrompt swaps the directive and starts the calling
// browser's conversation over under the new prompt.
func (s *Server) handleUpdateSystemPrompt(c *fiber.Ctx) error {
	var req UpdatePromptRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	if req.SystemPrompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "system prompt is required"})
	}

	prompt := req.SystemPrompt
	s.directive.Store(&prompt)

	fresh := chat.New(prompt, s.config.MaxTurns)
	if err := s.sessions.Save(c, fresh.Messages()); err != nil {
		s.logger.Error("saving conversation", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to reset conversation"})
	}

	s.logger.Info("system prompt updated")

	return c.JSON(statusSuccess)
}

// handleDebugSession exposes the raw session state for troubleshooting.
func (s *Server) handleDebugSession(c *fiber.Ctx) error {
	id, err := s.sessions.ID(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to read session"})
	}

	transcript, err := s.loadTranscript(c)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to load conversation"})
	}

	return c.JSON(fiber.Map{
		"session_id":    id,
		"message_count": transcript.Len(),
		"messages":      transcript.Messages(),
		"pending_count": s.pending.Len(),
	})
}

// loadTranscript rehydrates the calling browser's conversation under the
// current directive and turn bound.
func (s *Server) loadTranscript(c *fiber.Ctx) (*chat.Transcript, error) {
	prior, err := s.sessions.Load(c)
	if err != nil {
		return nil, err
	}

	return chat.Rehydrate(prior, s.currentDirective(), s.config.MaxTurns), nil
}

// publishTurn emits a turn-committed event. Publish failures are logged and
// never fail the request.
func (s *Server) publishTurn(c *fiber.Ctx, userContent, assistantContent, responseID string, streamed bool, transcriptLen int) {
	if s.publisher == nil {
		return
	}

	sessionID, err := s.sessions.ID(c)
	if err != nil {
		s.logger.Warn("reading session id for event", "error", err)
		return
	}

	event := &eventstream.TurnCommittedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeTurnCommitted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source: eventstream.EventSource{
			SessionID: sessionID,
			Model:     s.config.Model,
		},
		Turn: eventstream.TurnMeta{
			ResponseID:       responseID,
			UserContent:      userContent,
			AssistantContent: assistantContent,
			Streamed:         streamed,
			TranscriptLength: transcriptLen,
		},
	}

	if err := s.publisher.PublishTurn(c.Context(), event); err != nil {
		s.logger.Warn("publishing turn event", "error", err)
	}
}

// lastUserContent returns the content of the most recent user message, or
// empty when the conversation has none.
func lastUserContent(t *chat.Transcript) string {
	messages := t.Messages()
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == llm.RoleUser {
			return messages[i].Content
		}
	}

	return ""
}
