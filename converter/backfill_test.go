package converter

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ietf2vcon/ietf2vcon/pkg/transcript"
	"github.com/ietf2vcon/ietf2vcon/pkg/transcription"
	"github.com/ietf2vcon/ietf2vcon/pkg/vcon"
)

type fakeHealth struct {
	err error
}

func (f *fakeHealth) Health(ctx context.Context) error { return f.err }

type fakeAudio struct {
	path string
	err  error
}

func (f *fakeAudio) DownloadAudio(ctx context.Context, videoURL, outputDir string) (string, error) {
	return f.path, f.err
}

func writeRecord(t *testing.T, dir, name string, record map[string]any) string {
	t.Helper()
	data, err := json.MarshalIndent(record, "", "  ")
	require.NoError(t, err)
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func recordWithVideo(url string) map[string]any {
	return map[string]any{
		"vcon":       vcon.Version,
		"uuid":       "4f5aae79-2db0-4c91-9f0f-4e2b1d2fca11",
		"created_at": "2025-07-21T12:00:00Z",
		"parties":    []any{},
		"dialog": []any{
			map[string]any{"type": "recording", "url": url, "mimetype": "video/mp4"},
		},
		"attachments": []any{},
		"analysis":    []any{},
	}
}

func testBackfiller(t *testing.T, audio *fakeAudio, tr *fakeTranscriber) *Backfiller {
	t.Helper()
	return NewBackfiller(audio, tr, &fakeHealth{}, t.TempDir(), nil)
}

func whisperOutput() *transcription.Output {
	return &transcription.Output{
		Result: &transcript.Result{
			Text:     "Welcome.",
			Segments: []transcript.Segment{{ID: 0, Start: 0, End: 3, Text: "Welcome."}},
			Language: "en",
			Duration: 3,
			Provider: "mlx-whisper",
			Model:    "large-v3",
		},
		TotalChunks: 1,
	}
}

func TestBackfillPatchesRecord(t *testing.T) {
	dir := t.TempDir()
	path := writeRecord(t, dir, "ietf123_vcon_5501.vcon.json",
		recordWithVideo("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))

	tr := &fakeTranscriber{output: whisperOutput()}
	b := testBackfiller(t, &fakeAudio{path: "audio.mp3"}, tr)

	result, err := b.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Scanned)
	assert.Equal(t, 1, result.Patched)
	assert.Equal(t, 0, result.Failed)

	record := readRecord(t, path)
	analyses := record["analysis"].([]any)
	require.Len(t, analyses, 1)
	wtf := analyses[0].(map[string]any)
	assert.Equal(t, vcon.AnalysisWTFTranscription, wtf["type"])
	assert.Equal(t, float64(0), wtf["dialog"])
	assert.NotEmpty(t, record["updated_at"])
}

func TestBackfillSkipsRecordWithTranscript(t *testing.T) {
	dir := t.TempDir()
	record := recordWithVideo("https://www.youtube.com/watch?v=dQw4w9WgXcQ")
	record["analysis"] = []any{
		map[string]any{"type": vcon.AnalysisWTFTranscription},
	}
	writeRecord(t, dir, "ietf123_vcon_5501.vcon.json", record)

	tr := &fakeTranscriber{output: whisperOutput()}
	b := testBackfiller(t, &fakeAudio{path: "audio.mp3"}, tr)

	result, err := b.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, result.Patched)
	assert.Equal(t, 0, tr.calls)
}

func TestBackfillSkipsRecordWithoutYouTubeVideo(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "ietf123_vcon_5501.vcon.json",
		recordWithVideo("https://meetings.conf.meetecho.com/ietf123/?group=vcon"))

	tr := &fakeTranscriber{output: whisperOutput()}
	b := testBackfiller(t, &fakeAudio{path: "audio.mp3"}, tr)

	result, err := b.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 0, tr.calls)
}

func TestBackfillPreflightFatal(t *testing.T) {
	b := NewBackfiller(&fakeAudio{}, &fakeTranscriber{}, &fakeHealth{err: errors.New("down")}, t.TempDir(), nil)

	_, err := b.Run(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "preflight")
}

func TestBackfillPerRecordFailure(t *testing.T) {
	dir := t.TempDir()
	writeRecord(t, dir, "ietf123_vcon_5501.vcon.json",
		recordWithVideo("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	writeRecord(t, dir, "ietf123_moq_5502.vcon.json",
		recordWithVideo("https://meetings.conf.meetecho.com/ietf123/?group=moq"))

	b := testBackfiller(t, &fakeAudio{err: errors.New("download refused")}, &fakeTranscriber{})

	result, err := b.Run(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Scanned)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error, "download refused")
}

func TestHasTranscriptChecksAttachments(t *testing.T) {
	record := recordWithVideo("https://youtu.be/dQw4w9WgXcQ")
	assert.False(t, hasTranscript(record))

	record["attachments"] = []any{map[string]any{"type": "transcript"}}
	assert.True(t, hasTranscript(record))
}
