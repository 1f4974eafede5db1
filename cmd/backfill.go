package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ietf2vcon/ietf2vcon/client"
	"github.com/ietf2vcon/ietf2vcon/converter"
)

var backfillWorkDir string

// BackfillCmd adds transcripts to existing records that lack one.
var BackfillCmd = &cobra.Command{
	Use:   "backfill <dir>",
	Short: "Transcribe recordings for records missing a transcript",
	Long: `Scan a directory of vCon record files and add a transcription
analysis to every record that references a YouTube recording but has no
transcript yet. The transcription service must be reachable before any
record is touched.

Examples:
  # Backfill all records under vcons/
  ietf2vcon backfill vcons/

  # Keep downloaded audio under a custom working directory
  ietf2vcon backfill vcons/ --work-dir /tmp/ietf2vcon`,
	Args: cobra.ExactArgs(1),
	RunE: runBackfill,
}

func init() {
	BackfillCmd.Flags().StringVar(&backfillWorkDir, "work-dir", "", "Directory for downloaded audio (default from config)")
}

func runBackfill(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	workDir := cfg.WorkDir
	if backfillWorkDir != "" {
		workDir = backfillWorkDir
	}

	pipeline, whisper := newTranscriber(cfg, workDir, logger)
	backfiller := converter.NewBackfiller(client.NewYouTube(logger), pipeline, whisper, workDir, logger)

	result, err := backfiller.Run(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Scanned %d records: %d patched, %d skipped, %d failed\n",
		result.Scanned, result.Patched, result.Skipped, result.Failed)
	for _, fe := range result.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", fe.Path, fe.Error)
	}
	if result.Failed > 0 {
		return fmt.Errorf("%d records failed to backfill", result.Failed)
	}
	return nil
}
