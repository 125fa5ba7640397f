package cmd

import (
	"fmt"
	"io"

	"github.com/abdul-hamid-achik/loxspec/packages/core/config"
	"github.com/abdul-hamid-achik/loxspec/packages/core/expect"
	"github.com/abdul-hamid-achik/loxspec/packages/core/runner"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [file|directory...]",
	Short: "List test files and their expectations",
	Long: `List each test file with the expectations extracted from its
annotations.

Examples:
  loxspec list
  loxspec list test/integration/closure
  loxspec list --name "string/*"`,
	RunE: listCommand,
}

func init() {
	listCmd.Flags().StringVar(&configFlag, "config", getEnvString("LOXSPEC_CONFIG", ""), "Path to config file (env: LOXSPEC_CONFIG)")
	listCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "List only tests whose name matches the pattern")
	listCmd.Flags().StringSliceVar(&extFlag, "ext", config.DefaultExtensions, "Test file extensions (env: LOXSPEC_EXT)")
}

func listCommand(cmd *cobra.Command, args []string) error {
	s, err := resolveRunSettings(cmd.Flags(), args)
	if err != nil {
		return err
	}

	files, err := discover(s)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if len(files) == 0 {
		noTestsMessage(s, w)
		return nil
	}

	for _, f := range files {
		set, err := expect.ExtractFile(f.Path)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error reading %s: %v\n", f.Name, err)
			continue
		}
		printExpectations(w, f, set)
	}

	fmt.Fprintf(w, "\n%d test file(s)\n", len(files))
	return nil
}

func printExpectations(w io.Writer, f runner.TestFile, set *expect.Set) {
	fmt.Fprintf(w, "\n%s:\n", f.Name)

	switch set.Failure.Kind {
	case expect.FailureCompile:
		fmt.Fprintf(w, "  - compile error (exit 65)\n")
	case expect.FailureRuntime:
		fmt.Fprintf(w, "  - runtime error (exit 70): %s\n", set.Failure.Message)
	default:
		if len(set.Output) == 0 {
			fmt.Fprintf(w, "  - no output (exit 0)\n")
			return
		}
		fmt.Fprintf(w, "  - %d output line(s) (exit 0)\n", len(set.Output))
		for _, line := range set.Output {
			fmt.Fprintf(w, "      %s\n", line)
		}
	}

	if set.HasConflict() {
		fmt.Fprintf(w, "  - %d output line(s) ignored\n", len(set.Output))
	}
}
