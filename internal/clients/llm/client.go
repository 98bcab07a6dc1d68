package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jpillora/backoff"
	"github.com/rs/zerolog"

	"github.com/pipeit/factora/internal/domain"
)

// Client is an OpenAI-compatible chat completion client. It is used for the
// optional plan-drafting narrative; everything it returns is advisory text,
// parsed best-effort and never load-bearing for the decision engine.
type Client struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
	log      zerolog.Logger
}

// Config holds client configuration
type Config struct {
	Endpoint string // e.g. https://api.openai.com/v1/chat/completions
	APIKey   string
	Model    string
}

// NewClient creates a new LLM client. Returns nil when no endpoint is
// configured; callers must treat a nil client as "drafting disabled".
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Endpoint == "" {
		return nil
	}

	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With().Str("client", "llm").Logger(),
	}
}

// Message represents a chat message
type Message struct {
	Role    string `json:"role"` // "system", "user", or "assistant"
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Chat sends a system + user prompt pair and returns the assistant's reply.
// Retries once with backoff on transport errors and 5xx responses.
func (c *Client) Chat(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
		MaxTokens:   1000,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	b := &backoff.Backoff{
		Min:    500 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(b.Duration()):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, ctx.Err())
			}
		}

		reply, retryable, err := c.doChat(ctx, body)
		if err == nil {
			return reply, nil
		}

		lastErr = err
		if !retryable {
			break
		}
		c.log.Warn().Err(err).Int("attempt", attempt+1).Msg("Chat request failed, retrying")
	}

	return "", fmt.Errorf("%w: chat completion: %v", domain.ErrUpstreamUnavailable, lastErr)
}

func (c *Client) doChat(ctx context.Context, body []byte) (reply string, retryable bool, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", false, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return "", true, fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", false, fmt.Errorf("HTTP %d: %s", resp.StatusCode, data)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", false, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", false, fmt.Errorf("empty choices in chat response")
	}

	return parsed.Choices[0].Message.Content, false, nil
}
