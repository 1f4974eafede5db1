package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ietf2vcon/ietf2vcon/client"
)

// Materials command flags.
var (
	materialsJSON     bool
	materialsDownload string
)

// MaterialsCmd lists or downloads session materials.
var MaterialsCmd = &cobra.Command{
	Use:   "materials <meeting> <group>",
	Short: "List a session's meeting materials",
	Long: `List the materials of a working group's session: slides, agenda, minutes,
chat logs and the collaborative notes.

Examples:
  ietf2vcon materials 123 vcon
  ietf2vcon materials 123 vcon --json
  ietf2vcon materials 123 vcon --download ./materials`,
	Args: cobra.ExactArgs(2),
	RunE: runMaterials,
}

func init() {
	MaterialsCmd.Flags().BoolVar(&materialsJSON, "json", false, "Output as JSON")
	MaterialsCmd.Flags().StringVar(&materialsDownload, "download", "", "Download materials into this directory")
}

func runMaterials(cmd *cobra.Command, args []string) error {
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
	dt := newDatatracker(cfg, logger)
	ctx := cmd.Context()

	materials, err := dt.GetSessionMaterials(ctx, meetingNumber, group)
	if err != nil {
		return fmt.Errorf("listing materials: %w", err)
	}

	if materialsDownload != "" {
		downloader := client.NewMaterials(logger)
		var failures int
		for _, m := range materials {
			path, err := downloader.DownloadMaterial(ctx, m, materialsDownload)
			if err != nil {
				failures++
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %v\n", m.Title, err)
				continue
			}
			fmt.Printf("  %s\n", path)
		}
		if failures > 0 {
			return fmt.Errorf("%d of %d materials failed to download", failures, len(materials))
		}
		return nil
	}

	if materialsJSON {
		return printJSON(materials)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tTITLE\tURL")
	for _, m := range materials {
		fmt.Fprintf(w, "%s\t%s\t%s\n", m.Type, m.Title, m.URL)
	}
	return w.Flush()
}
