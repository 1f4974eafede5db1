package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ietf2vcon/ietf2vcon/pkg/buildinfo"
)

var versionJSON bool

// VersionCmd prints the version of the binary.
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if versionJSON {
			return printJSON(buildinfo.Get())
		}
		fmt.Printf("ietf2vcon %s\n", buildinfo.String())
		fmt.Printf("go: %s\n", buildinfo.Get().GoVersion)
		return nil
	},
}

func init() {
	VersionCmd.Flags().BoolVar(&versionJSON, "json", false, "Output as JSON")
}
