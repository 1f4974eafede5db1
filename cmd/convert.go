package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ietf2vcon/ietf2vcon/converter"
)

// Convert command flags.
var (
	convertOutputDir       string
	convertWorkDir         string
	convertSessionID       string
	convertInlineMaterials bool
	convertDownloadVideo   bool
	convertChatJSON        bool
	convertSkipTranscript  bool
	convertTranscriptFile  string
	convertSubtitles       string
)

// ConvertCmd converts the sessions of one working group.
var ConvertCmd = &cobra.Command{
	Use:   "convert <meeting> <group>",
	Short: "Convert a working group's sessions to vCon records",
	Long: `Convert the sessions of one working group at an IETF meeting into vCon records.

For each session this gathers metadata from the Datatracker, finds the YouTube
recording (falling back to the Meetecho player URL), attaches the meeting
materials, builds a transcript (captions first, local Whisper otherwise), and
pulls the Zulip chat history. One record is written per session.

Examples:
  # Convert all VCON sessions at IETF 123
  ietf2vcon convert 123 vcon

  # Convert one specific session
  ietf2vcon convert 123 vcon --session 5501

  # Embed material content instead of URL references
  ietf2vcon convert 123 vcon --inline-materials`,
	Args: cobra.ExactArgs(2),
	RunE: runConvert,
}

func init() {
	ConvertCmd.Flags().StringVarP(&convertOutputDir, "output", "o", "", "Output directory for records (default from config)")
	ConvertCmd.Flags().StringVar(&convertWorkDir, "work-dir", "", "Working directory for downloads (default from config)")
	ConvertCmd.Flags().StringVar(&convertSessionID, "session", "", "Convert only this session id")
	ConvertCmd.Flags().BoolVar(&convertInlineMaterials, "inline-materials", false, "Embed material content in the record")
	ConvertCmd.Flags().BoolVar(&convertDownloadVideo, "download-video", false, "Embed the recording itself instead of the YouTube URL")
	ConvertCmd.Flags().BoolVar(&convertChatJSON, "chat-json", false, "Store chat as structured JSON instead of plain text")
	ConvertCmd.Flags().BoolVar(&convertSkipTranscript, "skip-transcript", false, "Skip the transcript stage")
	ConvertCmd.Flags().StringVar(&convertTranscriptFile, "transcript-file", "", "Local timed-entry JSON transcript, used before Whisper")
	ConvertCmd.Flags().StringVar(&convertSubtitles, "subtitles", "", "Also write the transcript as a subtitle file: srt or vtt")
}

func runConvert(cmd *cobra.Command, args []string) error {
	meetingNumber, err := parseMeetingNumber(args[0])
	if err != nil {
		return err
	}
	group := strings.ToLower(args[1])

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	opts := converter.Options{
		OutputDir:       cfg.OutputDir,
		WorkDir:         cfg.WorkDir,
		InlineMaterials: cfg.InlineMaterials || convertInlineMaterials,
		DownloadVideo:   convertDownloadVideo,
		ChatAsJSON:      convertChatJSON,
		ChatLimit:       cfg.Zulip.ChatLimit,
		SkipTranscript:  convertSkipTranscript,
		TranscriptFile:  convertTranscriptFile,
		SubtitleFormat:  convertSubtitles,
	}
	if convertSubtitles != "" && convertSubtitles != "srt" && convertSubtitles != "vtt" {
		return fmt.Errorf("unknown subtitle format %q (want srt or vtt)", convertSubtitles)
	}
	if convertOutputDir != "" {
		opts.OutputDir = convertOutputDir
	}
	if convertWorkDir != "" {
		opts.WorkDir = convertWorkDir
	}

	conv := newConverter(cfg, opts, logger)
	ctx := cmd.Context()

	meeting, err := conv.Directory.GetMeeting(ctx, meetingNumber)
	if err != nil {
		return fmt.Errorf("looking up meeting %d: %w", meetingNumber, err)
	}

	sessions, err := conv.Directory.GetGroupSessions(ctx, meetingNumber, group)
	if err != nil {
		return fmt.Errorf("looking up sessions: %w", err)
	}
	if convertSessionID != "" {
		filtered := sessions[:0]
		for _, s := range sessions {
			if s.SessionID == convertSessionID {
				filtered = append(filtered, s)
			}
		}
		sessions = filtered
	}
	if len(sessions) == 0 {
		return fmt.Errorf("no sessions found for %s at IETF %d", group, meetingNumber)
	}

	var failures int
	for i := range sessions {
		res, err := conv.ConvertSession(ctx, meeting, &sessions[i])
		if err != nil {
			failures++
			fmt.Fprintf(cmd.ErrOrStderr(), "session %s failed: %v\n", sessions[i].SessionID, err)
			continue
		}

		fmt.Printf("Wrote %s\n", res.Path)
		for _, w := range res.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
	}

	if failures > 0 {
		return fmt.Errorf("%d of %d sessions failed", failures, len(sessions))
	}
	return nil
}
