package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ietf2vcon/ietf2vcon/pkg/vcon"
)

// Validate command flags.
var (
	validateSample  int
	validateAll     bool
	validateVerbose bool
)

// ValidateCmd validates vCon record files.
var ValidateCmd = &cobra.Command{
	Use:   "validate <path>...",
	Short: "Validate vCon record files",
	Long: `Validate vCon record files against the vCon structure rules.

Each path may be a record file or a directory of *.vcon.json files. All
findings are reported; validation never stops at the first problem. The
command exits non-zero when any record has errors.

Examples:
  # Validate a whole output directory
  ietf2vcon validate vcons/

  # Spot-check a few records with all warnings shown
  ietf2vcon validate vcons/ --sample 5 --verbose`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	ValidateCmd.Flags().IntVar(&validateSample, "sample", 0, "Validate only the first N records")
	ValidateCmd.Flags().BoolVar(&validateAll, "all", false, "Validate every record, overriding --sample")
	ValidateCmd.Flags().BoolVar(&validateVerbose, "verbose", false, "Report low-severity warnings too")
}

func runValidate(cmd *cobra.Command, args []string) error {
	files, err := collectRecordFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no record files found")
	}
	if !validateAll && validateSample > 0 && validateSample < len(files) {
		files = files[:validateSample]
	}

	validator := &vcon.Validator{Verbose: validateVerbose}
	var withErrors, withWarnings int

	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			withErrors++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			continue
		}

		report := validator.Validate(data)
		switch {
		case !report.Valid():
			withErrors++
			fmt.Printf("FAIL %s\n", path)
		case len(report.Warnings) > 0:
			withWarnings++
			fmt.Printf("WARN %s\n", path)
		default:
			fmt.Printf("OK   %s\n", path)
		}
		for _, e := range report.Errors {
			fmt.Printf("  error: %s\n", e)
		}
		for _, w := range report.Warnings {
			fmt.Printf("  warning: %s\n", w)
		}
	}

	fmt.Printf("\n%d records: %d failed, %d with warnings\n",
		len(files), withErrors, withWarnings)
	if withErrors > 0 {
		return fmt.Errorf("%d records failed validation", withErrors)
	}
	return nil
}

// collectRecordFiles expands directories into their *.vcon.json files.
func collectRecordFiles(paths []string) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		matches, err := filepath.Glob(filepath.Join(path, "*.vcon.json"))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}
