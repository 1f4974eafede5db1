// Package transcription implements the chunked transcription pipeline:
// long audio is split into bounded-duration chunks, each chunk is sent to a
// remote transcription backend with bounded retries, and the per-chunk
// results are stitched back into one globally time-aligned transcript,
// tolerating partial chunk failure.
package transcription

import (
	"context"
	"errors"
	"fmt"
)

// SegmentResult is one timed segment as reported by the backend.
type SegmentResult struct {
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Text       string   `json:"text"`
	AvgLogprob *float64 `json:"avg_logprob,omitempty"`
}

// ChunkResult is the verbose transcription result for one audio chunk,
// with timestamps local to the chunk.
type ChunkResult struct {
	Text     string          `json:"text"`
	Language string          `json:"language,omitempty"`
	Duration float64         `json:"duration,omitempty"`
	Segments []SegmentResult `json:"segments"`
}

// Backend transcribes one piece of audio. Implementations distinguish
// transient failures (worth retrying) from permanent ones by wrapping the
// former in a TransientError.
type Backend interface {
	Transcribe(ctx context.Context, audio []byte, filename, model string) (*ChunkResult, error)
}

// TransientError marks a failure as retryable: a timeout, or the backend
// signalling a server-side problem rather than rejecting the request itself.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Transient wraps err as a retryable failure. Returns nil for a nil err.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return &TransientError{Err: err}
}

// IsTransient reports whether err is marked retryable.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
