package converter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ietf2vcon/ietf2vcon/client"
	"github.com/ietf2vcon/ietf2vcon/pkg/logging"
	"github.com/ietf2vcon/ietf2vcon/pkg/vcon"
)

// healthChecker is the transcription service preflight.
type healthChecker interface {
	Health(ctx context.Context) error
}

// audioDownloader fetches the audio track of a recording.
type audioDownloader interface {
	DownloadAudio(ctx context.Context, videoURL, outputDir string) (string, error)
}

// Backfiller adds transcripts to already-written records that have a
// YouTube recording but no transcription. Records are patched in place:
// the analysis is appended and updated_at bumped, nothing else changes.
type Backfiller struct {
	Audio       audioDownloader
	Transcriber transcriber
	Health      healthChecker

	WorkDir string
	logger  logging.Logger
}

// NewBackfiller creates a Backfiller.
func NewBackfiller(audio audioDownloader, transcriber transcriber, health healthChecker, workDir string, logger logging.Logger) *Backfiller {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if workDir == "" {
		workDir = "work"
	}
	return &Backfiller{
		Audio:       audio,
		Transcriber: transcriber,
		Health:      health,
		WorkDir:     workDir,
		logger:      logger,
	}
}

// FileError records a failure for a specific record file.
type FileError struct {
	Path  string
	Error string
}

// BackfillResult contains the outcome of a backfill run.
type BackfillResult struct {
	Scanned int
	Patched int
	Skipped int
	Failed  int
	Errors  []FileError
}

// Run scans dir for records missing a transcript and patches them. An
// unavailable transcription service is fatal; per-record failures are not.
func (b *Backfiller) Run(ctx context.Context, dir string) (*BackfillResult, error) {
	if b.Health != nil {
		if err := b.Health.Health(ctx); err != nil {
			return nil, fmt.Errorf("transcription service preflight: %w", err)
		}
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.vcon.json"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}

	result := &BackfillResult{Scanned: len(paths), Errors: []FileError{}}
	for _, path := range paths {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}

		patched, err := b.backfillRecord(ctx, path)
		switch {
		case err != nil:
			result.Failed++
			result.Errors = append(result.Errors, FileError{Path: path, Error: err.Error()})
			b.logger.Error("backfill failed", logging.F("path", path), logging.Err(err))
		case patched:
			result.Patched++
		default:
			result.Skipped++
		}
	}
	return result, nil
}

// backfillRecord patches one record. Returns false when the record needs no
// transcript (no YouTube recording, or one is already present).
func (b *Backfiller) backfillRecord(ctx context.Context, path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("reading record: %w", err)
	}

	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return false, fmt.Errorf("parsing record: %w", err)
	}

	videoURL, dialogIdx := youtubeDialog(record)
	if videoURL == "" || hasTranscript(record) {
		b.logger.Debug("record needs no transcript", logging.F("path", path))
		return false, nil
	}

	audioPath, err := b.Audio.DownloadAudio(ctx, videoURL, b.WorkDir)
	if err != nil {
		return false, fmt.Errorf("downloading audio: %w", err)
	}

	out, err := b.Transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return false, fmt.Errorf("transcribing: %w", err)
	}
	if out.FailedChunks > 0 {
		b.logger.Warn("transcript incomplete",
			logging.F("path", path),
			logging.F("failed_chunks", out.FailedChunks),
			logging.F("total_chunks", out.TotalChunks))
	}

	analysis := vcon.TranscriptAnalysis(out.Result, dialogIdx)
	entry, err := toJSONValue(analysis)
	if err != nil {
		return false, fmt.Errorf("encoding analysis: %w", err)
	}

	analyses, _ := record["analysis"].([]any)
	record["analysis"] = append(analyses, entry)
	record["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	patched, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return false, fmt.Errorf("encoding record: %w", err)
	}
	patched = append(patched, '\n')
	if err := os.WriteFile(path, patched, 0o644); err != nil {
		return false, fmt.Errorf("writing record: %w", err)
	}

	b.logger.Info("record patched",
		logging.F("path", path),
		logging.F("segments", len(out.Result.Segments)))
	return true, nil
}

// youtubeDialog finds the YouTube recording dialog and its index.
func youtubeDialog(record map[string]any) (string, int) {
	dialogs, _ := record["dialog"].([]any)
	for i, d := range dialogs {
		dialog, ok := d.(map[string]any)
		if !ok {
			continue
		}
		url, _ := dialog["url"].(string)
		if url != "" && client.ExtractVideoID(url) != "" {
			return url, i
		}
	}
	return "", -1
}

// hasTranscript reports whether the record already carries a transcript in
// either its analysis or attachments list.
func hasTranscript(record map[string]any) bool {
	for _, listKey := range []string{"analysis", "attachments"} {
		items, _ := record[listKey].([]any)
		for _, item := range items {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			typ, _ := entry["type"].(string)
			if typ == vcon.AnalysisWTFTranscription || typ == "transcript" {
				return true
			}
		}
	}
	return false
}

// toJSONValue round-trips a typed value into the generic JSON shape the
// record map uses.
func toJSONValue(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
