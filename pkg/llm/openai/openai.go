// Package openai implements the llm.Completer contract against any
// OpenAI-compatible Chat Completions endpoint (api.openai.com, DashScope
// compatible mode, vLLM, and friends).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/papercomputeco/parley/pkg/llm"
	"github.com/papercomputeco/parley/pkg/sse"
)

// doneSentinel terminates OpenAI SSE streams.
const doneSentinel = "[DONE]"

// Config holds the upstream endpoint settings.
type Config struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	BaseURL string

	// Model is the model name submitted with every request.
	Model string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// HTTPClient overrides the default client. Optional.
	HTTPClient *http.Client
}

// Client talks to one OpenAI-compatible upstream.
type Client struct {
	config Config
	hc     *http.Client
}

// NewClient creates a Client for the configured upstream.
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if config.Model == "" {
		return nil, errors.New("model is required")
	}

	hc := config.HTTPClient
	if hc == nil {
		hc = &http.Client{
			// LLM requests can be slow, especially with thinking blocks
			Timeout: 5 * time.Minute,
		}
	}

	return &Client{config: config, hc: hc}, nil
}

// Complete submits the message sequence and blocks for the whole reply.
func (c *Client) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	httpResp, err := c.post(ctx, chatRequest{
		Model:    c.config.Model,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return "", upstreamStatusError(httpResp)
	}

	var resp chatResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return "", fmt.Errorf("decoding upstream response: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("upstream error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in upstream response")
	}

	return resp.Choices[0].Message.Content, nil
}

// CompleteStream opens a streaming completion. The caller owns the returned
// stream and must Close it.
func (c *Client) CompleteStream(ctx context.Context, messages []llm.Message) (llm.Stream, error) {
	httpResp, err := c.post(ctx, chatRequest{
		Model:    c.config.Model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, err
	}

	if httpResp.StatusCode != http.StatusOK {
		err := upstreamStatusError(httpResp)
		httpResp.Body.Close()
		return nil, err
	}

	return &stream{
		body:   httpResp.Body,
		reader: sse.NewReader(httpResp.Body),
	}, nil
}

func (c *Client) post(ctx context.Context, req chatRequest) (*http.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating upstream request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	if req.Stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	}

	httpResp, err := c.hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("upstream request failed: %w", err)
	}

	return httpResp, nil
}

// upstreamStatusError reads a non-200 body into an error, preferring the
// structured message when the endpoint returned one.
func upstreamStatusError(httpResp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(httpResp.Body, 4*1024))

	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err == nil && resp.Error != nil {
		return fmt.Errorf("upstream returned %d: %s", httpResp.StatusCode, resp.Error.Message)
	}

	return fmt.Errorf("upstream returned %d: %s", httpResp.StatusCode, bytes.TrimSpace(body))
}

// stream adapts an SSE response body to the llm.Stream contract.
type stream struct {
	body   io.ReadCloser
	reader *sse.Reader
}

// Recv returns the next non-empty content fragment, io.EOF at the end of the
// stream, or the underlying error if the connection breaks mid-flight.
func (s *stream) Recv() (string, error) {
	for {
		ev, err := s.reader.Next()
		if err != nil {
			return "", err
		}
		if ev == nil || ev.Data == doneSentinel {
			return "", io.EOF
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
			return "", fmt.Errorf("decoding stream chunk: %w", err)
		}
		if chunk.Error != nil {
			return "", fmt.Errorf("upstream error: %s", chunk.Error.Message)
		}
		if len(chunk.Choices) == 0 {
			continue
		}

		// Role-only and finish chunks carry no content; keep reading.
		if content := chunk.Choices[0].Delta.Content; content != "" {
			return content, nil
		}
		if chunk.Choices[0].FinishReason != nil {
			continue
		}
	}
}

// Close releases the upstream connection.
func (s *stream) Close() error {
	return s.body.Close()
}
