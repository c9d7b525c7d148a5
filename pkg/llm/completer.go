package llm

import "context"

// Completer is the contract for an upstream chat completion service.
// Implementations accept the full ordered message sequence for a conversation
// and either block for the whole reply or stream it fragment by fragment.
type Completer interface {
	// Complete submits the message sequence and blocks until the full
	// assistant reply is available.
	Complete(ctx context.Context, messages []Message) (string, error)

	// CompleteStream opens a streaming completion. The returned Stream is
	// finite and not restartable.
	CompleteStream(ctx context.Context, messages []Message) (Stream, error)
}

// Stream yields the text fragments of one streaming completion in order.
type Stream interface {
	// Recv returns the next fragment. It returns io.EOF once the upstream
	// signals completion, and any other error if the stream breaks
	// mid-flight.
	Recv() (string, error)

	// Close releases the underlying connection. Safe to call at any point,
	// including after Recv has returned io.EOF.
	Close() error
}
