package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ietf2vcon/ietf2vcon/pkg/logging"
	"github.com/ietf2vcon/ietf2vcon/pkg/transcription"
)

// DefaultWhisperTimeout allows for long chunks on CPU-only hosts.
const DefaultWhisperTimeout = 10 * time.Minute

// Whisper talks to a local Whisper sidecar with an OpenAI-compatible
// transcription endpoint. It implements transcription.Backend.
type Whisper struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

// NewWhisper returns a Whisper client for the sidecar at baseURL.
func NewWhisper(baseURL string, timeout time.Duration, logger logging.Logger) *Whisper {
	if timeout <= 0 {
		timeout = DefaultWhisperTimeout
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Whisper{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// Health reports whether the sidecar is up. It accepts either a /health
// endpoint or, for bare OpenAI-compatible servers, /v1/models.
func (w *Whisper) Health(ctx context.Context) error {
	for _, path := range []string{"/health", "/v1/models"} {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+path, nil)
		if err != nil {
			return err
		}
		resp, err := w.http.Do(req)
		if err != nil {
			continue
		}
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			return nil
		}
	}
	return fmt.Errorf("whisper service at %s is not responding", w.baseURL)
}

// verboseJSON is the response_format=verbose_json payload shape.
type verboseJSON struct {
	Text     string  `json:"text"`
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Segments []struct {
		Start      float64  `json:"start"`
		End        float64  `json:"end"`
		Text       string   `json:"text"`
		AvgLogprob *float64 `json:"avg_logprob"`
	} `json:"segments"`
}

// Transcribe sends one audio chunk to the sidecar. Server errors (5xx) are
// transient and safe to retry; client errors are permanent.
func (w *Whisper) Transcribe(ctx context.Context, audio []byte, filename, model string) (*transcription.ChunkResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", filename, err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", filename, err)
	}
	if model != "" {
		if err := mw.WriteField("model", model); err != nil {
			return nil, fmt.Errorf("transcribe %s: %w", filename, err)
		}
	}
	if err := mw.WriteField("response_format", "verbose_json"); err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", filename, err)
	}

	url := w.baseURL + "/v1/audio/transcriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		return nil, fmt.Errorf("transcribe %s: %w", filename, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := w.http.Do(req)
	if err != nil {
		return nil, transcription.Transient(fmt.Errorf("transcribe %s: %w", filename, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		err := fmt.Errorf("transcribe %s: status %d: %s", filename, resp.StatusCode, strings.TrimSpace(string(msg)))
		if resp.StatusCode >= 500 {
			return nil, transcription.Transient(err)
		}
		return nil, err
	}

	var payload verboseJSON
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("transcribe %s: decode response: %w", filename, err)
	}

	result := &transcription.ChunkResult{
		Text:     payload.Text,
		Language: payload.Language,
		Duration: payload.Duration,
	}
	for _, s := range payload.Segments {
		result.Segments = append(result.Segments, transcription.SegmentResult{
			Start:      s.Start,
			End:        s.End,
			Text:       s.Text,
			AvgLogprob: s.AvgLogprob,
		})
	}
	return result, nil
}
