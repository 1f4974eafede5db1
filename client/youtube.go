package client

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	vconerrors "github.com/ietf2vcon/ietf2vcon/pkg/errors"
	"github.com/ietf2vcon/ietf2vcon/pkg/ietf"
	"github.com/ietf2vcon/ietf2vcon/pkg/logging"
)

var videoIDRegex = regexp.MustCompile(`(?:v=|/v/|youtu\.be/)([a-zA-Z0-9_-]{11})`)

// YouTube locates and downloads IETF session recordings via yt-dlp.
type YouTube struct {
	// YTDLPPath is the yt-dlp binary, "yt-dlp" by default.
	YTDLPPath string
	logger    logging.Logger
}

// NewYouTube returns a YouTube client using the yt-dlp binary on PATH.
func NewYouTube(logger logging.Logger) *YouTube {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &YouTube{YTDLPPath: "yt-dlp", logger: logger}
}

func (y *YouTube) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, y.YTDLPPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// SearchSessionVideo searches YouTube for the official recording of a working
// group session and returns the best title match, or ErrNotFound.
func (y *YouTube) SearchSessionVideo(ctx context.Context, meetingNumber int, groupAcronym string) (*ietf.VideoRef, error) {
	query := fmt.Sprintf(`ytsearch5:"IETF %d %s"`, meetingNumber, strings.ToUpper(groupAcronym))
	out, err := y.run(ctx, query,
		"--flat-playlist",
		"--print", "%(id)s|%(title)s|%(duration)s|%(upload_date)s")
	if err != nil {
		return nil, fmt.Errorf("search session video: %w", err)
	}

	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 4)
		if len(parts) < 2 {
			continue
		}
		if !titleMatchesSession(parts[1], meetingNumber, groupAcronym) {
			continue
		}

		ref := &ietf.VideoRef{
			VideoID: parts[0],
			Title:   parts[1],
			URL:     "https://www.youtube.com/watch?v=" + parts[0],
		}
		if len(parts) > 2 {
			if secs, err := strconv.ParseFloat(parts[2], 64); err == nil {
				ref.DurationSeconds = int(secs)
			}
		}
		if len(parts) > 3 && parts[3] != "NA" {
			ref.UploadDate = parts[3]
		}
		y.logger.Info("found session video",
			logging.F("video_id", ref.VideoID), logging.F("title", ref.Title))
		return ref, nil
	}
	return nil, fmt.Errorf("no video for IETF %d %s: %w", meetingNumber, groupAcronym, vconerrors.ErrNotFound)
}

// titleMatchesSession reports whether a video title names both the meeting
// and the working group. Uploads are inconsistent about spacing, so "ietf
// 123", "ietf123" and "ietf-123" all count.
func titleMatchesSession(title string, meetingNumber int, groupAcronym string) bool {
	lower := strings.ToLower(title)
	num := strconv.Itoa(meetingNumber)
	meetingMatch := strings.Contains(lower, "ietf "+num) ||
		strings.Contains(lower, "ietf"+num) ||
		strings.Contains(lower, "ietf-"+num)
	return meetingMatch && strings.Contains(lower, strings.ToLower(groupAcronym))
}

// GetVideoMetadata fetches duration and upload date for a known video URL.
func (y *YouTube) GetVideoMetadata(ctx context.Context, videoURL string) (*ietf.VideoRef, error) {
	out, err := y.run(ctx, videoURL,
		"--print", "%(id)s",
		"--print", "%(title)s",
		"--print", "%(duration)s",
		"--print", "%(upload_date)s")
	if err != nil {
		return nil, fmt.Errorf("get video metadata: %w", err)
	}

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 2 {
		return nil, fmt.Errorf("get video metadata: short yt-dlp output for %s", videoURL)
	}
	ref := &ietf.VideoRef{VideoID: lines[0], Title: lines[1], URL: videoURL}
	if len(lines) > 2 {
		if secs, err := strconv.ParseFloat(lines[2], 64); err == nil {
			ref.DurationSeconds = int(secs)
		}
	}
	if len(lines) > 3 && lines[3] != "NA" {
		ref.UploadDate = lines[3]
	}
	return ref, nil
}

// DownloadVideo downloads the video at up to 1080p into outputDir and
// returns the path of the downloaded file.
func (y *YouTube) DownloadVideo(ctx context.Context, videoURL, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("download video: %w", err)
	}
	out, err := y.run(ctx, videoURL,
		"-f", "best[height<=1080]",
		"-o", filepath.Join(outputDir, "%(id)s.%(ext)s"),
		"--print", "after_move:filepath")
	if err != nil {
		return "", fmt.Errorf("download video: %w", err)
	}
	path := strings.TrimSpace(out)
	if path == "" {
		return "", fmt.Errorf("download video: yt-dlp reported no file for %s", videoURL)
	}
	return path, nil
}

// DownloadAudio extracts the audio track as mono 16 kHz MP3, the shape the
// transcription backend expects, and returns the path of the file.
func (y *YouTube) DownloadAudio(ctx context.Context, videoURL, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("download audio: %w", err)
	}
	out, err := y.run(ctx, videoURL,
		"-x",
		"--audio-format", "mp3",
		"--audio-quality", "5",
		"--postprocessor-args", "ffmpeg:-ac 1 -ar 16000",
		"-o", filepath.Join(outputDir, "%(id)s.%(ext)s"),
		"--print", "after_move:filepath")
	if err != nil {
		return "", fmt.Errorf("download audio: %w", err)
	}
	path := strings.TrimSpace(out)
	if path == "" {
		return "", fmt.Errorf("download audio: yt-dlp reported no file for %s", videoURL)
	}
	// after_move reports the pre-extraction filename when the postprocessor
	// changes the extension.
	if !strings.HasSuffix(path, ".mp3") {
		mp3 := strings.TrimSuffix(path, filepath.Ext(path)) + ".mp3"
		if _, err := os.Stat(mp3); err == nil {
			path = mp3
		}
	}
	return path, nil
}

// DownloadCaptions fetches the English subtitle track (manual or automatic)
// in json3 format without downloading the video. Returns the caption file
// path, or ErrNoTranscript when YouTube has no captions for the video.
func (y *YouTube) DownloadCaptions(ctx context.Context, videoURL, outputDir string) (string, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("download captions: %w", err)
	}
	videoID := ExtractVideoID(videoURL)
	if videoID == "" {
		return "", fmt.Errorf("download captions: no video id in %s", videoURL)
	}

	base := filepath.Join(outputDir, videoID)
	_, err := y.run(ctx, videoURL,
		"--write-auto-sub",
		"--write-sub",
		"--sub-lang", "en",
		"--sub-format", "json3",
		"--skip-download",
		"-o", base)
	if err != nil {
		return "", fmt.Errorf("download captions: %w", err)
	}

	// yt-dlp names the file {base}.{lang}.json3 with a language tag we
	// cannot predict exactly (en, en-US, en-orig).
	matches, _ := filepath.Glob(base + ".*.json3")
	if len(matches) == 0 {
		return "", fmt.Errorf("no captions for %s: %w", videoURL, vconerrors.ErrNoTranscript)
	}
	return matches[0], nil
}

// ExtractVideoID pulls the 11-character video id out of a YouTube URL, or
// returns "" when the URL has no recognizable id.
func ExtractVideoID(videoURL string) string {
	m := videoIDRegex.FindStringSubmatch(videoURL)
	if m == nil {
		return ""
	}
	return m[1]
}
