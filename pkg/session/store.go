// Package session persists per-browser conversation history across requests.
//
// Each browser gets an opaque cookie; the transcript itself lives server-side
// in the session store, so the cookie never carries conversation content.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/papercomputeco/parley/pkg/llm"
)

// DefaultLifetime is how long an idle session survives before the store
// forgets it.
const DefaultLifetime = 24 * time.Hour

const historyKey = "history"

// Store wraps the fiber session middleware with typed access to the
// conversation history it holds.
type Store struct {
	sessions *session.Store
}

// New creates a session store with the given idle lifetime. A non-positive
// lifetime falls back to DefaultLifetime.
func New(lifetime time.Duration) *Store {
	if lifetime <= 0 {
		lifetime = DefaultLifetime
	}

	return &Store{
		sessions: session.New(session.Config{
			Expiration:     lifetime,
			KeyLookup:      "cookie:parley_session",
			CookieHTTPOnly: true,
			CookieSameSite: "Lax",
		}),
	}
}

// Load returns the conversation history for the calling browser. A browser
// with no prior history gets a nil slice and no error.
func (s *Store) Load(c *fiber.Ctx) ([]llm.Message, error) {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return nil, fmt.Errorf("getting session: %w", err)
	}

	raw := sess.Get(historyKey)
	if raw == nil {
		return nil, nil
	}

	blob, ok := raw.([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected history type %T", raw)
	}

	var messages []llm.Message
	if err := json.Unmarshal(blob, &messages); err != nil {
		return nil, fmt.Errorf("unmarshaling history: %w", err)
	}

	return messages, nil
}

// Save replaces the stored history for the calling browser.
func (s *Store) Save(c *fiber.Ctx, messages []llm.Message) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return fmt.Errorf("getting session: %w", err)
	}

	blob, err := json.Marshal(messages)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}

	sess.Set(historyKey, blob)

	if err := sess.Save(); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}

	return nil
}

// Clear destroys the calling browser's session entirely. The next request
// starts a fresh conversation under a new session id.
func (s *Store) Clear(c *fiber.Ctx) error {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return fmt.Errorf("getting session: %w", err)
	}

	if err := sess.Destroy(); err != nil {
		return fmt.Errorf("destroying session: %w", err)
	}

	return nil
}

// ID returns the opaque session id for the calling browser, allocating a
// session if one does not exist yet.
func (s *Store) ID(c *fiber.Ctx) (string, error) {
	sess, err := s.sessions.Get(c)
	if err != nil {
		return "", fmt.Errorf("getting session: %w", err)
	}

	return sess.ID(), nil
}
