// Package chat holds the conversation domain: the ordered transcript headed
// by a system directive, and the table of streamed replies pending commit.
package chat

import "github.com/papercomputeco/parley/pkg/llm"

// Transcript is the ordered message history of one conversation. Index 0 is
// always the current system directive; turns are appended after it.
type Transcript struct {
	directive string
	maxTurns  int
	messages  []llm.Message
}

// New creates a Transcript containing only the system directive.
// maxTurns bounds how many user+assistant pairs are kept; once a turn exceeds
// the bound the oldest pair is dropped. maxTurns <= 0 disables the bound.
func New(directive string, maxTurns int) *Transcript {
	return &Transcript{
		directive: directive,
		maxTurns:  maxTurns,
		messages:  []llm.Message{{Role: llm.RoleSystem, Content: directive}},
	}
}

// Rehydrate builds a Transcript headed by the current directive and replays
// prior messages onto it. Stored system entries are skipped so a stale
// directive from a previous state never re-enters the live transcript.
func Rehydrate(prior []llm.Message, directive string, maxTurns int) *Transcript {
	t := New(directive, maxTurns)
	for _, msg := range prior {
		if msg.Role == llm.RoleSystem {
			continue
		}
		t.Append(msg.Role, msg.Content)
	}
	return t
}

// Append adds a message to the end of the transcript. Role and content are
// not validated; callers are trusted.
func (t *Transcript) Append(role, content string) {
	t.messages = append(t.messages, llm.Message{Role: role, Content: content})
	t.trim()
}

// Messages returns the full ordered message sequence for submission to the
// upstream service. The returned slice is a copy.
func (t *Transcript) Messages() []llm.Message {
	out := make([]llm.Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages, including the system directive.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Directive returns the system directive heading the transcript.
func (t *Transcript) Directive() string {
	return t.directive
}

// trim enforces the turn bound by dropping the oldest non-system messages,
// whole user+assistant pairs at a time.
func (t *Transcript) trim() {
	if t.maxTurns <= 0 {
		return
	}

	limit := 1 + 2*t.maxTurns
	over := len(t.messages) - limit
	if over <= 0 {
		return
	}

	drop := (over + 1) / 2 * 2
	if drop > len(t.messages)-1 {
		drop = len(t.messages) - 1
	}

	t.messages = append(t.messages[:1], t.messages[1+drop:]...)
}
