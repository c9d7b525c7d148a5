package server

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/papercomputeco/parley/pkg/chat"
	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/sse"
)

// ContentEvent carries one reply fragment on the SSE stream.
type ContentEvent struct {
	Content string `json:"content"`
}

// CompleteEvent terminates a successful SSE stream and names the response id
// the client must commit via /save_response.
type CompleteEvent struct {
	Status     string `json:"status"`
	ResponseID string `json:"response_id"`
}

// streamChat relays the upstream reply to the client as SSE events. The
// accumulated reply is staged in the pending table at stream completion and
// committed into the conversation only when the client calls /save_response.
func (s *Server) streamChat(c *fiber.Ctx, transcript *chat.Transcript, userMessage string) error {
	responseID := uuid.NewString()

	messages := transcript.Messages()
	if len(messages) < 2 {
		// The session store lost the conversation mid-request. Fall back
		// to a minimal prompt so the reply is still produced.
		s.logger.Warn("conversation shorter than expected, using fallback prompt")
		messages = []llm.Message{
			{Role: llm.RoleSystem, Content: s.currentDirective()},
			{Role: llm.RoleUser, Content: userMessage},
		}
	}

	// The upstream call must outlive this handler: fasthttp recycles the
	// request context once the handler returns, while the relay goroutine
	// keeps streaming. Cancellation is driven by the pipe instead — when
	// the client goes away, the pipe write fails and the relay cancels
	// the upstream call.
	ctx, cancel := context.WithCancel(context.Background())

	stream, err := s.completer.CompleteStream(ctx, messages)
	if err != nil {
		cancel()
		s.logger.Error("upstream stream failed to open", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	// io.Pipe gives direct backpressure: pw.Write blocks until fasthttp's
	// chunked writer consumes the data, so each fragment reaches the
	// client before the next upstream read.
	pr, pw := io.Pipe()
	go s.relay(cancel, stream, pw, responseID)

	// Unknown size (-1) triggers chunked transfer encoding.
	c.Context().Response.SetBodyStream(pr, -1)

	return nil
}

// relay pumps upstream fragments into the pipe as SSE events. On upstream
// failure it emits an error event and stages nothing; on client disconnect
// it cancels the upstream call and discards the partial reply.
func (s *Server) relay(cancel context.CancelFunc, stream llm.Stream, pw *io.PipeWriter, responseID string) {
	defer pw.Close()
	defer stream.Close()
	defer cancel()

	var collected strings.Builder

	for {
		fragment, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			s.logger.Error("upstream stream failed", "error", err)
			_ = sse.WriteEvent(pw, llm.ErrorResponse{Error: err.Error()})
			return
		}

		collected.WriteString(fragment)

		if err := sse.WriteEvent(pw, ContentEvent{Content: fragment}); err != nil {
			// Client went away. The deferred cancel stops the upstream
			// call; the partial reply is discarded, not staged.
			s.logger.Debug("client disconnected mid-stream", "response_id", responseID)
			return
		}
	}

	s.pending.Stage(responseID, collected.String())

	if err := sse.WriteEvent(pw, CompleteEvent{Status: "complete", ResponseID: responseID}); err != nil {
		s.logger.Debug("client disconnected before completion event", "response_id", responseID)
	}
}
