// Package speech turns voice messages into text. Voice notes arrive as
// out-of-band URLs on the stanza; the payload is fetched with a size cap
// and handed to the transcriber.
package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrUnrecognized means the recording held no recognizable speech. The
// caller answers with a notice and must not touch history or the backend.
var ErrUnrecognized = errors.New("speech not recognized")

// Transcriber converts raw audio into text. An empty transcript means
// nothing was recognized.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
}

// Service fetches and transcribes voice messages.
type Service struct {
	transcriber Transcriber
	httpClient  *http.Client
	maxBytes    int64
}

// NewService creates a speech Service with the given payload size cap.
func NewService(transcriber Transcriber, maxBytes int64) *Service {
	return &Service{
		transcriber: transcriber,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		maxBytes:    maxBytes,
	}
}

// FetchAndTranscribe downloads the voice payload and returns its
// transcript. Returns ErrUnrecognized when the recording yields no text.
func (s *Service) FetchAndTranscribe(ctx context.Context, url string) (string, error) {
	audio, mimeType, err := s.fetch(ctx, url)
	if err != nil {
		return "", err
	}

	text, err := s.transcriber.Transcribe(ctx, audio, mimeType)
	if err != nil {
		return "", fmt.Errorf("transcribing voice message: %w", err)
	}
	if text == "" {
		return "", ErrUnrecognized
	}
	return text, nil
}

func (s *Service) fetch(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("building voice fetch request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetching voice payload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("fetching voice payload: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("reading voice payload: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, "", fmt.Errorf("voice payload exceeds %d bytes", s.maxBytes)
	}

	mimeType := resp.Header.Get("Content-Type")
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = mimeType[:i]
	}
	if mimeType == "" {
		mimeType = "audio/ogg"
	}
	return data, mimeType, nil
}
