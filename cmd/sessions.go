package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ietf2vcon/ietf2vcon/pkg/ietf"
)

var sessionsJSON bool

// SessionsCmd lists the sessions of a meeting.
var SessionsCmd = &cobra.Command{
	Use:   "sessions <meeting> [group]",
	Short: "List the sessions of an IETF meeting",
	Long: `List the scheduled sessions of an IETF meeting from the Datatracker.

With a group argument, only that working group's sessions are listed, with
their scheduled time and room. Without one, all sessions are listed.

Examples:
  ietf2vcon sessions 123
  ietf2vcon sessions 123 vcon
  ietf2vcon sessions 123 vcon --json`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSessions,
}

func init() {
	SessionsCmd.Flags().BoolVar(&sessionsJSON, "json", false, "Output as JSON")
}

func runSessions(cmd *cobra.Command, args []string) error {
	meetingNumber, err := parseMeetingNumber(args[0])
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)
	dt := newDatatracker(cfg, logger)
	ctx := cmd.Context()

	var sessions []ietf.Session
	if len(args) == 2 {
		sessions, err = dt.GetGroupSessions(ctx, meetingNumber, strings.ToLower(args[1]))
	} else {
		sessions, err = dt.GetMeetingSessions(ctx, meetingNumber)
	}
	if err != nil {
		return fmt.Errorf("listing sessions: %w", err)
	}
	if len(sessions) == 0 {
		fmt.Printf("No sessions found for IETF %d\n", meetingNumber)
		return nil
	}

	if sessionsJSON {
		return printJSON(sessions)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "GROUP\tSESSION\tSTART\tROOM\tNAME")
	for _, s := range sessions {
		start := "-"
		if s.StartTime != nil {
			start = s.StartTime.Format(time.RFC3339)
		}
		room := s.Room
		if room == "" {
			room = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", s.GroupAcronym, s.SessionID, start, room, s.Name)
	}
	return w.Flush()
}
