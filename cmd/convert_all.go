package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ietf2vcon/ietf2vcon/converter"
)

// Convert-all command flags.
var (
	convertAllOutputDir      string
	convertAllWorkDir        string
	convertAllGroups         []string
	convertAllParallel       int
	convertAllSkipTranscript bool
)

// ConvertAllCmd converts a whole IETF meeting.
var ConvertAllCmd = &cobra.Command{
	Use:   "convert-all <meeting>",
	Short: "Convert every session of an IETF meeting",
	Long: `Convert every scheduled session of an IETF meeting into vCon records.

Sessions are converted by a pool of parallel workers. A failing session is
reported and skipped; the rest of the meeting still converts.

Examples:
  # Convert the whole of IETF 123
  ietf2vcon convert-all 123

  # Only a few groups, with more workers
  ietf2vcon convert-all 123 --groups vcon,moq,httpbis --parallel 6`,
	Args: cobra.ExactArgs(1),
	RunE: runConvertAll,
}

func init() {
	ConvertAllCmd.Flags().StringVarP(&convertAllOutputDir, "output", "o", "", "Output directory for records (default from config)")
	ConvertAllCmd.Flags().StringVar(&convertAllWorkDir, "work-dir", "", "Working directory for downloads (default from config)")
	ConvertAllCmd.Flags().StringSliceVar(&convertAllGroups, "groups", nil, "Only convert these working groups")
	ConvertAllCmd.Flags().IntVar(&convertAllParallel, "parallel", 0, "Number of parallel session workers (default from config)")
	ConvertAllCmd.Flags().BoolVar(&convertAllSkipTranscript, "skip-transcript", false, "Skip the transcript stage")
}

func runConvertAll(cmd *cobra.Command, args []string) error {
	meetingNumber, err := parseMeetingNumber(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	opts := converter.Options{
		OutputDir:       cfg.OutputDir,
		WorkDir:         cfg.WorkDir,
		InlineMaterials: cfg.InlineMaterials,
		ChatLimit:       cfg.Zulip.ChatLimit,
		SkipTranscript:  convertAllSkipTranscript,
	}
	if convertAllOutputDir != "" {
		opts.OutputDir = convertAllOutputDir
	}
	if convertAllWorkDir != "" {
		opts.WorkDir = convertAllWorkDir
	}

	parallel := cfg.Parallel
	if convertAllParallel > 0 {
		parallel = convertAllParallel
	}

	var groups []string
	for _, g := range convertAllGroups {
		if g = strings.ToLower(strings.TrimSpace(g)); g != "" {
			groups = append(groups, g)
		}
	}

	conv := newConverter(cfg, opts, logger)

	progress := converter.NewProgress(0)
	progress.SetOnUpdate(func(p *converter.Progress) {
		if p.Status == "running" && p.ProcessedCount > 0 {
			fmt.Printf("\r[%d/%d] converted %d, failed %d",
				p.ProcessedCount, p.TotalSessions, p.ConvertedCount, p.FailedCount)
		}
	})

	result, err := conv.ConvertMeeting(cmd.Context(), meetingNumber, groups, parallel, progress)
	if err != nil {
		return err
	}
	fmt.Println()

	fmt.Printf("Converted %d of %d sessions in %s\n",
		result.Converted, result.TotalSessions,
		result.CompletedAt.Sub(result.StartedAt).Round(time.Second))
	for _, r := range result.Results {
		fmt.Printf("  %s\n", r.Path)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "  failed %s/%s: %s\n", e.GroupAcronym, e.SessionID, e.Error)
	}

	if !result.Success {
		return fmt.Errorf("%d sessions failed", result.Failed)
	}
	return nil
}
