// Package converter assembles IETF session data into vCon records. It pulls
// session metadata from the Datatracker, the recording from YouTube (with a
// Meetecho fallback), materials, a transcript, and Zulip chat, then writes
// one record per session. Every stage past the metadata seed degrades to a
// warning so one broken source never loses the rest of the session.
package converter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ietf2vcon/ietf2vcon/client"
	"github.com/ietf2vcon/ietf2vcon/pkg/ietf"
	"github.com/ietf2vcon/ietf2vcon/pkg/logging"
	"github.com/ietf2vcon/ietf2vcon/pkg/transcript"
	"github.com/ietf2vcon/ietf2vcon/pkg/transcription"
	"github.com/ietf2vcon/ietf2vcon/pkg/vcon"
)

// directory is the Datatracker surface the converter needs.
type directory interface {
	GetMeeting(ctx context.Context, number int) (*ietf.Meeting, error)
	GetGroupSessions(ctx context.Context, meetingNumber int, groupAcronym string) ([]ietf.Session, error)
	GetMeetingSessions(ctx context.Context, meetingNumber int) ([]ietf.Session, error)
	GetSessionMaterials(ctx context.Context, meetingNumber int, groupAcronym string) ([]ietf.Material, error)
	GetGroupChairs(ctx context.Context, groupAcronym string) ([]ietf.Person, error)
	MeetechoRecordingURL(meetingNumber int, groupAcronym string) string
}

// videoSource finds and downloads session recordings.
type videoSource interface {
	SearchSessionVideo(ctx context.Context, meetingNumber int, groupAcronym string) (*ietf.VideoRef, error)
	DownloadVideo(ctx context.Context, videoURL, outputDir string) (string, error)
	DownloadCaptions(ctx context.Context, videoURL, outputDir string) (string, error)
	DownloadAudio(ctx context.Context, videoURL, outputDir string) (string, error)
}

// chatSource reads session chat history.
type chatSource interface {
	GetSessionMessages(ctx context.Context, groupAcronym string, limit int) ([]ietf.ChatMessage, error)
}

// transcriber turns an audio file into a transcript.
type transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*transcription.Output, error)
}

// Options controls how sessions are converted.
type Options struct {
	// OutputDir is where finished records are written.
	OutputDir string

	// WorkDir holds downloaded audio and caption files.
	WorkDir string

	// InlineMaterials embeds material content instead of URL references.
	InlineMaterials bool

	// DownloadVideo embeds the recording itself in the record instead of
	// referencing the YouTube URL. Expect very large records.
	DownloadVideo bool

	// ChatAsJSON stores the chat dialog as structured JSON instead of a
	// plain text rendering.
	ChatAsJSON bool

	// ChatLimit caps how many Zulip messages are fetched per stream.
	ChatLimit int

	// SkipTranscript disables the transcript stage entirely.
	SkipTranscript bool

	// TranscriptFile points at a local timed-entry JSON transcript. It is
	// tried after captions and before Whisper.
	TranscriptFile string

	// SubtitleFormat writes the transcript as a sidecar subtitle file next
	// to the record: "srt", "vtt", or empty for none.
	SubtitleFormat string
}

// Result describes one converted session.
type Result struct {
	Path          string
	UUID          string
	MeetingNumber int
	GroupAcronym  string
	SessionID     string

	// Warnings lists the stages that degraded. The record was still written.
	Warnings []string
}

// Converter orchestrates session conversion. Chat, Materials and
// Transcriber are optional; a nil collaborator skips its stage.
type Converter struct {
	Directory   directory
	Video       videoSource
	Chat        chatSource
	Materials   vcon.MaterialFetcher
	Transcriber transcriber

	opts   Options
	logger logging.Logger
}

// New creates a Converter.
func New(dir directory, video videoSource, opts Options, logger logging.Logger) *Converter {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "vcons"
	}
	if opts.WorkDir == "" {
		opts.WorkDir = "work"
	}
	return &Converter{
		Directory: dir,
		Video:     video,
		opts:      opts,
		logger:    logger,
	}
}

// ConvertSession builds and writes the vCon record for one session.
func (c *Converter) ConvertSession(ctx context.Context, meeting *ietf.Meeting, session *ietf.Session) (*Result, error) {
	res := &Result{
		MeetingNumber: session.MeetingNumber,
		GroupAcronym:  session.GroupAcronym,
		SessionID:     session.SessionID,
	}
	log := c.logger.With(
		logging.F("meeting", session.MeetingNumber),
		logging.F("group", session.GroupAcronym),
		logging.F("session", session.SessionID))

	b := vcon.NewBuilder()
	b.SetMeetingMetadata(meeting, session)
	b.AddIngressInfo("ietf-datatracker", map[string]any{
		"ietf_meeting":  session.MeetingNumber,
		"working_group": session.GroupAcronym,
		"session_id":    session.SessionID,
	})
	b.AddIETFNoteWell()

	c.addParties(ctx, b, session, res, log)
	video, videoIdx := c.addVideo(ctx, b, session, res, log)
	c.addMaterials(ctx, b, session, res, log)
	var spoken *transcript.Result
	if !c.opts.SkipTranscript && video != nil && videoIdx >= 0 {
		spoken = c.addTranscript(ctx, b, video, videoIdx, res, log)
	}
	c.addChat(ctx, b, session, res, log)

	record := b.Build()
	res.UUID = record.UUID

	path, err := SaveVCon(record, c.opts.OutputDir, session.MeetingNumber, session.GroupAcronym, session.SessionID)
	if err != nil {
		return nil, err
	}
	res.Path = path

	if spoken != nil && c.opts.SubtitleFormat != "" {
		if err := c.writeSubtitles(path, spoken); err != nil {
			res.warnf("subtitle export failed: %v", err)
			log.Warn("subtitle export failed", logging.Err(err))
		}
	}

	log.Info("session converted",
		logging.F("path", path), logging.F("warnings", len(res.Warnings)))
	return res, nil
}

func (c *Converter) addParties(ctx context.Context, b *vcon.Builder, session *ietf.Session, res *Result, log logging.Logger) {
	chairs, err := c.Directory.GetGroupChairs(ctx, session.GroupAcronym)
	if err != nil {
		res.warnf("chairs unavailable: %v", err)
		log.Warn("chairs unavailable", logging.Err(err))
	}
	b.AddPersons(chairs)
	b.AddAttendeesParty(0)
}

// addVideo attaches the session recording. YouTube is searched first; when
// no upload matches, the Meetecho player URL stands in so the record always
// points at a recording.
func (c *Converter) addVideo(ctx context.Context, b *vcon.Builder, session *ietf.Session, res *Result, log logging.Logger) (*ietf.VideoRef, int) {
	video, err := c.Video.SearchSessionVideo(ctx, session.MeetingNumber, session.GroupAcronym)
	if err == nil {
		if c.opts.DownloadVideo {
			if idx, ok := c.inlineVideo(ctx, b, video, session, res, log); ok {
				return video, idx
			}
			// fall through to the URL reference
		}
		return video, b.AddVideoDialog(video, session, nil)
	}

	res.warnf("no YouTube recording: %v", err)
	log.Warn("no YouTube recording, falling back to Meetecho", logging.Err(err))
	meetecho := c.Directory.MeetechoRecordingURL(session.MeetingNumber, session.GroupAcronym)
	return nil, b.AddVideoDialogFromURL(meetecho, session, "text/html", nil)
}

func (c *Converter) inlineVideo(ctx context.Context, b *vcon.Builder, video *ietf.VideoRef, session *ietf.Session, res *Result, log logging.Logger) (int, bool) {
	path, err := c.Video.DownloadVideo(ctx, video.URL, c.opts.WorkDir)
	if err != nil {
		res.warnf("video download failed, keeping URL reference: %v", err)
		log.Warn("video download failed", logging.Err(err))
		return 0, false
	}
	idx, err := b.AddVideoDialogInline(path, session, nil)
	if err != nil {
		res.warnf("embedding video failed, keeping URL reference: %v", err)
		log.Warn("embedding video failed", logging.Err(err))
		return 0, false
	}
	return idx, true
}

func (c *Converter) addMaterials(ctx context.Context, b *vcon.Builder, session *ietf.Session, res *Result, log logging.Logger) {
	materials, err := c.Directory.GetSessionMaterials(ctx, session.MeetingNumber, session.GroupAcronym)
	if err != nil {
		res.warnf("materials unavailable: %v", err)
		log.Warn("materials unavailable", logging.Err(err))
		return
	}
	b.AddMaterials(materials, c.opts.InlineMaterials, c.Materials)
}

// addTranscript tries the transcript providers in order of cost: YouTube
// captions are nearly free, a supplied transcript file is a local read, and
// local Whisper transcription is the expensive last resort. The first
// provider that yields segments wins.
func (c *Converter) addTranscript(ctx context.Context, b *vcon.Builder, video *ietf.VideoRef, videoIdx int, res *Result, log logging.Logger) *transcript.Result {
	if result := c.transcriptFromCaptions(ctx, video, log); result != nil {
		b.AddTranscript(result, videoIdx)
		return result
	}
	if result := c.transcriptFromFile(res, log); result != nil {
		b.AddTranscript(result, videoIdx)
		return result
	}
	if result := c.transcriptFromWhisper(ctx, video, res, log); result != nil {
		b.AddTranscript(result, videoIdx)
		return result
	}
	res.warnf("no transcript for video %s", video.VideoID)
	return nil
}

func (c *Converter) transcriptFromFile(res *Result, log logging.Logger) *transcript.Result {
	if c.opts.TranscriptFile == "" {
		return nil
	}

	f, err := os.Open(c.opts.TranscriptFile)
	if err != nil {
		res.warnf("transcript file unreadable: %v", err)
		log.Warn("transcript file unreadable", logging.Err(err))
		return nil
	}
	defer f.Close()

	result, err := transcript.LoadTimedEntries(f)
	if err != nil {
		res.warnf("transcript file invalid: %v", err)
		log.Warn("transcript file invalid", logging.Err(err))
		return nil
	}
	log.Info("transcript from file",
		logging.F("path", c.opts.TranscriptFile),
		logging.F("segments", len(result.Segments)))
	return result
}

// writeSubtitles writes the spoken transcript next to the record file,
// replacing the .vcon.json suffix with the subtitle extension.
func (c *Converter) writeSubtitles(recordPath string, result *transcript.Result) error {
	var content string
	switch c.opts.SubtitleFormat {
	case "srt":
		content = transcript.ToSRT(result)
	case "vtt":
		content = transcript.ToWebVTT(result)
	default:
		return fmt.Errorf("unknown subtitle format %q", c.opts.SubtitleFormat)
	}

	stem := strings.TrimSuffix(recordPath, ".vcon.json")
	return os.WriteFile(stem+"."+c.opts.SubtitleFormat, []byte(content), 0o644)
}

func (c *Converter) transcriptFromCaptions(ctx context.Context, video *ietf.VideoRef, log logging.Logger) *transcript.Result {
	path, err := c.Video.DownloadCaptions(ctx, video.URL, c.opts.WorkDir)
	if err != nil {
		log.Debug("captions unavailable", logging.Err(err))
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		log.Warn("opening captions failed", logging.Err(err))
		return nil
	}
	defer f.Close()

	result, err := transcript.LoadYouTubeCaptions(f)
	if err != nil {
		log.Warn("parsing captions failed", logging.Err(err))
		return nil
	}
	log.Info("transcript from captions", logging.F("segments", len(result.Segments)))
	return result
}

func (c *Converter) transcriptFromWhisper(ctx context.Context, video *ietf.VideoRef, res *Result, log logging.Logger) *transcript.Result {
	if c.Transcriber == nil {
		return nil
	}

	audioPath, err := c.Video.DownloadAudio(ctx, video.URL, c.opts.WorkDir)
	if err != nil {
		res.warnf("audio download failed: %v", err)
		log.Warn("audio download failed", logging.Err(err))
		return nil
	}

	out, err := c.Transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		res.warnf("transcription failed: %v", err)
		log.Warn("transcription failed", logging.Err(err))
		return nil
	}
	if out.FailedChunks > 0 {
		res.warnf("transcription incomplete: %d of %d chunks failed", out.FailedChunks, out.TotalChunks)
	}
	log.Info("transcript from whisper",
		logging.F("segments", len(out.Result.Segments)),
		logging.F("failed_chunks", out.FailedChunks))
	return out.Result
}

func (c *Converter) addChat(ctx context.Context, b *vcon.Builder, session *ietf.Session, res *Result, log logging.Logger) {
	if c.Chat == nil {
		return
	}

	messages, err := c.Chat.GetSessionMessages(ctx, session.GroupAcronym, c.opts.ChatLimit)
	if err != nil {
		res.warnf("chat unavailable: %v", err)
		log.Warn("chat unavailable", logging.Err(err))
		return
	}
	messages = client.FilterByWindow(messages, session.StartTime, session.EndTime())
	if len(messages) == 0 {
		log.Debug("no chat messages in session window")
		return
	}
	b.AddChatDialog(messages, session, !c.opts.ChatAsJSON)
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Filename returns the record filename for a session.
func Filename(meetingNumber int, groupAcronym, sessionID string) string {
	return fmt.Sprintf("ietf%d_%s_%s.vcon.json", meetingNumber, groupAcronym, sessionID)
}

// SaveVCon writes a record to dir and returns the file path.
func SaveVCon(record *vcon.VCon, dir string, meetingNumber int, groupAcronym, sessionID string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("saving record: %w", err)
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("saving record: %w", err)
	}
	data = append(data, '\n')

	path := filepath.Join(dir, Filename(meetingNumber, groupAcronym, sessionID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("saving record: %w", err)
	}
	return path, nil
}
