package transcription

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ietf2vcon/ietf2vcon/pkg/logging"
)

// ChunkSeconds is the per-chunk duration ceiling. Files at or under this
// length are transcribed whole.
const ChunkSeconds = 600.0

// Chunk is one piece of the source audio and its start offset in seconds.
type Chunk struct {
	Path   string
	Offset float64
}

// Chunker splits audio files into fixed-length chunks using ffmpeg, probing
// durations with ffprobe. Chunks are re-encoded to mono 16 kHz for the
// transcription backend and cached by name, so a re-run against the same
// audio skips re-splitting.
type Chunker struct {
	FFmpegPath  string
	FFprobePath string

	logger logging.Logger
}

// NewChunker returns a Chunker using ffmpeg/ffprobe from PATH.
func NewChunker(logger logging.Logger) *Chunker {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Chunker{
		FFmpegPath:  "ffmpeg",
		FFprobePath: "ffprobe",
		logger:      logger,
	}
}

// Duration probes the audio duration in seconds.
func (c *Chunker) Duration(ctx context.Context, audioPath string) (float64, error) {
	cmd := exec.CommandContext(ctx, c.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		audioPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", audioPath, err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("parse ffprobe output %q: %w", strings.TrimSpace(string(out)), err)
	}
	return duration, nil
}

// Split cuts the audio into consecutive chunks of chunkSecs each, the last
// possibly shorter, written under chunkDir. Audio at or under chunkSecs is
// returned as a single unsplit chunk at offset 0. A failed duration probe
// also falls back to one unsplit chunk; the caller is warned since this can
// mask a genuinely long file.
func (c *Chunker) Split(ctx context.Context, audioPath, chunkDir string, chunkSecs float64) ([]Chunk, error) {
	if chunkSecs <= 0 {
		chunkSecs = ChunkSeconds
	}

	duration, err := c.Duration(ctx, audioPath)
	if err != nil {
		c.logger.Warn("audio duration probe failed, transcribing unsplit",
			logging.F("audio", audioPath), logging.Err(err))
		return []Chunk{{Path: audioPath, Offset: 0}}, nil
	}

	starts := chunkStarts(duration, chunkSecs)
	if starts == nil {
		return []Chunk{{Path: audioPath, Offset: 0}}, nil
	}

	if err := os.MkdirAll(chunkDir, 0o755); err != nil {
		return nil, fmt.Errorf("create chunk dir: %w", err)
	}

	stem := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))

	var chunks []Chunk
	for idx, start := range starts {
		chunkPath := filepath.Join(chunkDir, fmt.Sprintf("%s_chunk%03d.mp3", stem, idx))

		if _, statErr := os.Stat(chunkPath); statErr != nil {
			cmd := exec.CommandContext(ctx, c.FFmpegPath,
				"-y",
				"-i", audioPath,
				"-ss", strconv.FormatFloat(start, 'f', -1, 64),
				"-t", strconv.FormatFloat(chunkSecs, 'f', -1, 64),
				"-ac", "1", "-ar", "16000",
				chunkPath,
			)
			if runErr := cmd.Run(); runErr != nil {
				c.logger.Warn("ffmpeg chunk encode failed",
					logging.F("chunk", chunkPath), logging.Err(runErr))
			}
		}

		if _, statErr := os.Stat(chunkPath); statErr == nil {
			chunks = append(chunks, Chunk{Path: chunkPath, Offset: start})
		}
	}

	if len(chunks) == 0 {
		return []Chunk{{Path: audioPath, Offset: 0}}, nil
	}
	return chunks, nil
}

// chunkStarts returns the start offsets for splitting audio of the given
// duration, or nil when the file fits in a single chunk. A duration exactly
// at the ceiling still means one chunk.
func chunkStarts(duration, chunkSecs float64) []float64 {
	if duration <= chunkSecs {
		return nil
	}
	var starts []float64
	for start := 0.0; start < duration; start += chunkSecs {
		starts = append(starts, start)
	}
	return starts
}
