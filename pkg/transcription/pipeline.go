package transcription

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	vconerrors "github.com/ietf2vcon/ietf2vcon/pkg/errors"
	"github.com/ietf2vcon/ietf2vcon/pkg/logging"
	"github.com/ietf2vcon/ietf2vcon/pkg/retry"
	"github.com/ietf2vcon/ietf2vcon/pkg/transcript"
)

// splitter cuts audio into chunks. Satisfied by Chunker.
type splitter interface {
	Split(ctx context.Context, audioPath, chunkDir string, chunkSecs float64) ([]Chunk, error)
}

// Output is a merged transcription run: the normalized transcript plus how
// many chunks were attempted and how many failed. FailedChunks > 0 with a
// non-nil Result is a partial success the caller should surface as a
// warning.
type Output struct {
	Result       *transcript.Result
	TotalChunks  int
	FailedChunks int
}

// Pipeline transcribes audio of arbitrary length against a backend with a
// practical per-request duration ceiling. Chunks are processed sequentially;
// a failing chunk is counted and skipped, never aborting its siblings.
type Pipeline struct {
	backend  Backend
	splitter splitter
	logger   logging.Logger

	// Model is the backend model identifier.
	Model string

	// Provider is recorded on the merged transcript.
	Provider string

	// ChunkDir is where chunk files are written. Defaults to a "chunks"
	// directory next to the source audio.
	ChunkDir string

	// ChunkSeconds is the per-chunk duration ceiling.
	ChunkSeconds float64

	// Retry governs per-chunk attempts against the backend.
	Retry retry.Policy
}

// NewPipeline returns a Pipeline with the default chunking and retry policy.
func NewPipeline(backend Backend, model string, logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	policy := retry.DefaultPolicy()
	policy.Retryable = IsTransient
	return &Pipeline{
		backend:      backend,
		splitter:     NewChunker(logger),
		logger:       logger,
		Model:        model,
		Provider:     "mlx-whisper",
		ChunkSeconds: ChunkSeconds,
		Retry:        policy,
	}
}

// Transcribe splits the audio, transcribes each chunk, and merges the
// surviving results into one transcript with globally renumbered segment
// ids and chunk-offset-shifted timestamps. It fails only when every chunk
// failed; partial failure is reported through Output.FailedChunks.
func (p *Pipeline) Transcribe(ctx context.Context, audioPath string) (*Output, error) {
	chunkDir := p.ChunkDir
	if chunkDir == "" {
		chunkDir = filepath.Join(filepath.Dir(audioPath), "chunks")
	}

	chunks, err := p.splitter.Split(ctx, audioPath, chunkDir, p.ChunkSeconds)
	if err != nil {
		return nil, fmt.Errorf("split audio: %w", err)
	}
	p.logger.Info("transcribing audio",
		logging.F("audio", audioPath), logging.F("chunks", len(chunks)))

	var (
		segments  []transcript.Segment
		textParts []string
		duration  float64
		language  = "en"
		failed    int
	)

	for _, chunk := range chunks {
		result, err := p.transcribeChunk(ctx, chunk)
		if err != nil {
			p.logger.Warn("chunk transcription failed",
				logging.F("chunk", filepath.Base(chunk.Path)),
				logging.F("offset", chunk.Offset),
				logging.Err(err))
			failed++
			continue
		}

		if result.Language != "" {
			language = result.Language
		}
		if end := chunk.Offset + result.Duration; end > duration {
			duration = end
		}
		if text := strings.TrimSpace(result.Text); text != "" {
			textParts = append(textParts, text)
		}

		for _, seg := range result.Segments {
			confidence := confidenceFrom(seg)
			segments = append(segments, transcript.Segment{
				ID:         len(segments),
				Start:      round3(seg.Start + chunk.Offset),
				End:        round3(seg.End + chunk.Offset),
				Text:       strings.TrimSpace(seg.Text),
				Confidence: &confidence,
			})
		}
	}

	if failed > 0 {
		p.logger.Warn("some chunks failed",
			logging.F("failed", failed), logging.F("total", len(chunks)))
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("transcribe %s: %w", audioPath, vconerrors.ErrNoSegments)
	}

	return &Output{
		Result: &transcript.Result{
			Text:     strings.Join(textParts, " "),
			Segments: segments,
			Language: language,
			Duration: duration,
			Provider: p.Provider,
			Model:    p.Model,
		},
		TotalChunks:  len(chunks),
		FailedChunks: failed,
	}, nil
}

// transcribeChunk reads the chunk bytes and calls the backend with the
// retry policy. Only transient backend failures are retried.
func (p *Pipeline) transcribeChunk(ctx context.Context, chunk Chunk) (*ChunkResult, error) {
	audio, err := os.ReadFile(chunk.Path)
	if err != nil {
		return nil, fmt.Errorf("read chunk: %w", err)
	}

	var result *ChunkResult
	err = p.Retry.Do(ctx, func() error {
		var callErr error
		result, callErr = p.backend.Transcribe(ctx, audio, filepath.Base(chunk.Path), p.Model)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// confidenceFrom derives a per-segment confidence from the backend's
// log-probability signal when present, else a fixed default.
func confidenceFrom(seg SegmentResult) float64 {
	if seg.AvgLogprob == nil {
		return 0.95
	}
	return round4(math.Min(math.Exp(*seg.AvgLogprob), 1.0))
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
