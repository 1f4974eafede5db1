package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ietf2vcon/ietf2vcon/pkg/vcon"
)

// InfoCmd summarizes a vCon record file.
var InfoCmd = &cobra.Command{
	Use:   "info <file.vcon.json>",
	Short: "Summarize a vCon record",
	Long: `Print a human-readable summary of a vCon record file: its subject,
parties, dialogs, attachments and analyses.

Examples:
  ietf2vcon info vcons/ietf123_vcon_5501.vcon.json`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading record: %w", err)
	}

	var record vcon.VCon
	if err := json.Unmarshal(data, &record); err != nil {
		return fmt.Errorf("parsing record: %w", err)
	}

	fmt.Printf("UUID:       %s\n", record.UUID)
	fmt.Printf("Version:    %s\n", record.VCon)
	if record.Subject != "" {
		fmt.Printf("Subject:    %s\n", record.Subject)
	}
	fmt.Printf("Created:    %s\n", record.CreatedAt.Format(time.RFC3339))
	if record.UpdatedAt != nil {
		fmt.Printf("Updated:    %s\n", record.UpdatedAt.Format(time.RFC3339))
	}
	fmt.Println()

	fmt.Printf("Parties (%d):\n", len(record.Parties))
	for i, p := range record.Parties {
		line := p.Name
		if p.Mailto != "" {
			line += " <" + p.Mailto + ">"
		}
		if p.Role != "" {
			line += " (" + p.Role + ")"
		}
		fmt.Printf("  [%d] %s\n", i, line)
	}

	fmt.Printf("Dialogs (%d):\n", len(record.Dialog))
	for i, d := range record.Dialog {
		target := d.URL
		if target == "" {
			target = fmt.Sprintf("inline body, %d bytes", len(d.Body))
		}
		fmt.Printf("  [%d] %s %s %s\n", i, d.Type, d.Mimetype, target)
	}

	fmt.Printf("Attachments (%d):\n", len(record.Attachments))
	for i, a := range record.Attachments {
		fmt.Printf("  [%d] %s\n", i, a.Type)
	}

	fmt.Printf("Analyses (%d):\n", len(record.Analysis))
	for i, a := range record.Analysis {
		line := a.Type
		if a.Vendor != "" {
			line += " (" + a.Vendor + ")"
		}
		fmt.Printf("  [%d] %s\n", i, line)
	}

	return nil
}
