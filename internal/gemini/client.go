// Package gemini wraps the Google Gemini SDK behind the two calls the bot
// needs: text generation over a conversation history, and audio
// transcription for voice messages.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/webdev-it/baza-ai/internal/config"
	"github.com/webdev-it/baza-ai/internal/history"
)

var (
	// ErrQuotaExceeded means the upstream provider ran out of quota. This
	// is independent of the bot's own per-user limits.
	ErrQuotaExceeded = errors.New("gemini quota exceeded")

	// ErrBackend covers every other generation failure.
	ErrBackend = errors.New("gemini backend error")
)

type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewClient creates a Gemini client for the configured model.
func NewClient(ctx context.Context, cfg config.Gemini) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Client{
		client:  c,
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}, nil
}

// Generate sends the conversation (oldest turn first, the new prompt last)
// and returns the model's reply text.
func (c *Client) Generate(ctx context.Context, turns []history.Turn) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		contents = append(contents, &genai.Content{
			Role:  string(t.Role),
			Parts: []*genai.Part{{Text: t.Content}},
		})
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", classify(err)
	}

	reply := strings.TrimSpace(resp.Text())
	if reply == "" {
		return "", fmt.Errorf("%w: empty response", ErrBackend)
	}
	return reply, nil
}

// Transcribe asks the model to write out the speech in the given audio
// payload. Returns the transcript, possibly empty when nothing was
// recognized.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	contents := []*genai.Content{{
		Role: string(history.RoleUser),
		Parts: []*genai.Part{
			{Text: "Transcribe this voice message verbatim. Reply with the transcript only, or with nothing if no speech is recognizable."},
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: audio}},
		},
	}}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", classify(err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

func classify(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		slog.Warn("gemini quota exceeded", "error", err)
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%w: %v", ErrBackend, err)
}
