// Package main provides the ietf2vcon CLI entry point.
// ietf2vcon converts IETF meeting sessions into vCon conversation records.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ietf2vcon/ietf2vcon/cmd"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ietf2vcon",
	Short: "Convert IETF meeting sessions into vCon conversation records",
	Long: `ietf2vcon assembles vCon conversation records for IETF working group
sessions. Each record combines session metadata from the Datatracker with
the meeting recording, slides and agenda, the Zulip chat log, and a
transcript of the recording.

COMMON WORKFLOWS:
  One session:       ietf2vcon convert 123 vcon
  A whole meeting:   ietf2vcon convert-all 123 --parallel 5
  Explore first:     ietf2vcon sessions 123  →  ietf2vcon materials 123 vcon
  Check the output:  ietf2vcon validate vcons/ --verbose
  Add transcripts:   ietf2vcon backfill vcons/

DISCOVERY:
  ietf2vcon <command> --help   Flags and examples for any command`,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&cmd.Debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(cmd.ConvertCmd)
	rootCmd.AddCommand(cmd.ConvertAllCmd)
	rootCmd.AddCommand(cmd.SessionsCmd)
	rootCmd.AddCommand(cmd.MaterialsCmd)
	rootCmd.AddCommand(cmd.InfoCmd)
	rootCmd.AddCommand(cmd.ValidateCmd)
	rootCmd.AddCommand(cmd.BackfillCmd)
	rootCmd.AddCommand(cmd.AuthCmd)
	rootCmd.AddCommand(cmd.VersionCmd)
}

func main() {
	// Set up signal handling for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
