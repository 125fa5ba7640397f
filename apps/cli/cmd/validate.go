package cmd

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/abdul-hamid-achik/loxspec/packages/core/config"
	"github.com/abdul-hamid-achik/loxspec/packages/core/expect"
	"github.com/abdul-hamid-achik/loxspec/packages/core/runner"
	"github.com/spf13/cobra"
)

var strictFlag bool

var validateCmd = &cobra.Command{
	Use:   "validate [file|directory...]",
	Short: "Check test files for annotation problems",
	Long: `Check test files without running the interpreter.

Reports files that cannot be read, files that expect both output lines and
an error (the output lines are ignored when such a test runs), comments
that look like annotations but are not recognized, and files with no
annotations at all.

Examples:
  loxspec validate
  loxspec validate test/integration/closure --strict`,
	RunE: validateCommand,
}

func init() {
	validateCmd.Flags().StringVar(&configFlag, "config", getEnvString("LOXSPEC_CONFIG", ""), "Path to config file (env: LOXSPEC_CONFIG)")
	validateCmd.Flags().StringVarP(&nameFlag, "name", "n", "", "Validate only tests whose name matches the pattern")
	validateCmd.Flags().StringSliceVar(&extFlag, "ext", config.DefaultExtensions, "Test file extensions (env: LOXSPEC_EXT)")
	validateCmd.Flags().BoolVar(&strictFlag, "strict", false, "Treat warnings as errors")
}

// looseMarker finds comments that mention expect without matching any
// recognized annotation
var looseMarker = regexp.MustCompile(`//\s*expect\b`)

// fileReport is the outcome of validating one file
type fileReport struct {
	Errors   []string
	Warnings []string
	Infos    []string
}

func validateFile(tf runner.TestFile) fileReport {
	var rep fileReport

	data, err := os.ReadFile(tf.Path)
	if err != nil {
		rep.Errors = append(rep.Errors, fmt.Sprintf("cannot read file: %v", err))
		return rep
	}

	text := string(data)
	for i, line := range strings.Split(text, "\n") {
		if looseMarker.MatchString(line) && len(expect.Classify(line)) == 0 {
			rep.Warnings = append(rep.Warnings,
				fmt.Sprintf("line %d: unrecognized annotation: %s", i+1, strings.TrimSpace(line)))
		}
	}

	annotations := expect.Scan(text)
	set := expect.Reduce(annotations)
	switch {
	case set.HasConflict():
		rep.Warnings = append(rep.Warnings,
			fmt.Sprintf("expects a %s and %d output line(s); output lines are ignored", set.Failure.Kind, len(set.Output)))
	case set.IsEmpty():
		rep.Infos = append(rep.Infos, "no annotations; expects a silent successful run")
	}

	failures := 0
	for _, a := range annotations {
		if a.Kind != expect.KindOutput {
			failures++
		}
	}
	if failures > 1 {
		rep.Warnings = append(rep.Warnings,
			fmt.Sprintf("%d error annotations; only the last one applies", failures))
	}

	return rep
}

func validateCommand(cmd *cobra.Command, args []string) error {
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

	var errCount, warnCount int
	for _, f := range files {
		rep := validateFile(f)
		errCount += len(rep.Errors)
		warnCount += len(rep.Warnings)
		printFileReport(w, f.Name, rep)
	}

	fmt.Fprintf(w, "\n%d file(s), %d error(s), %d warning(s)\n", len(files), errCount, warnCount)

	if errCount > 0 || (strictFlag && warnCount > 0) {
		return &exitError{code: ExitTestFailure}
	}
	return nil
}

func printFileReport(w io.Writer, name string, rep fileReport) {
	if len(rep.Errors) == 0 && len(rep.Warnings) == 0 && len(rep.Infos) == 0 {
		fmt.Fprintf(w, "Valid: %s\n", name)
		return
	}
	for _, e := range rep.Errors {
		fmt.Fprintf(w, "Error in %s: %s\n", name, e)
	}
	for _, msg := range rep.Warnings {
		fmt.Fprintf(w, "warning: %s: %s\n", name, msg)
	}
	for _, msg := range rep.Infos {
		fmt.Fprintf(w, "info: %s: %s\n", name, msg)
	}
}
