package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/abdul-hamid-achik/loxspec/packages/compare"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	diffOutputFlag           string
	diffThresholdFlag        string
	diffFailOnRegressionFlag bool
)

var diffCmd = &cobra.Command{
	Use:   "diff <before.json> <after.json>",
	Short: "Compare two JSON reports",
	Long: `Compare two reports written with --output json and show which tests
were fixed, regressed, added or removed between them.

Examples:
  loxspec diff before.json after.json
  loxspec diff before.json after.json --fail-on-regression
  loxspec diff before.json after.json --threshold 25% --output json`,
	Args: cobra.ExactArgs(2),
	RunE: diffCommand,
}

func init() {
	diffCmd.Flags().StringVarP(&diffOutputFlag, "output", "o", "console", "Output format: console, json")
	diffCmd.Flags().StringVar(&diffThresholdFlag, "threshold", "", "Fail if any test is slower by this percentage (e.g., 10%)")
	diffCmd.Flags().BoolVar(&diffFailOnRegressionFlag, "fail-on-regression", false, "Exit with status 1 if any test regressed")
}

func diffCommand(cmd *cobra.Command, args []string) error {
	file1, file2 := args[0], args[1]

	r1, err := compare.LoadFile(file1)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", file1, err)
	}
	r2, err := compare.LoadFile(file2)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", file2, err)
	}

	var threshold float64
	if diffThresholdFlag != "" {
		threshold, err = compare.ParseThreshold(diffThresholdFlag)
		if err != nil {
			return err
		}
	}

	result := compare.Compare(file1, file2, r1, r2, threshold)

	switch strings.ToLower(diffOutputFlag) {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(result); err != nil {
			return err
		}
	case "console":
		outputDiffConsole(cmd.OutOrStdout(), result)
	default:
		return fmt.Errorf("unknown output format %q (use console, json)", diffOutputFlag)
	}

	if (diffFailOnRegressionFlag && result.HasRegressions()) || result.ThresholdExceeded() {
		return &exitError{code: ExitTestFailure}
	}
	return nil
}

func outputDiffConsole(w io.Writer, diff *compare.Result) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(w, "\n%s\n", bold("Test Results Comparison"))
	fmt.Fprintf(w, "  %s: %s\n", cyan("Before"), diff.File1)
	fmt.Fprintf(w, "  %s: %s\n\n", cyan("After"), diff.File2)

	sum := diff.Summary
	fmt.Fprintf(w, "%s\n", bold("Summary"))
	fmt.Fprintf(w, "  Total Tests:    %d\n", sum.Total)
	if sum.Fixed > 0 {
		fmt.Fprintf(w, "  Fixed:          %s\n", green(sum.Fixed))
	}
	if sum.Regressed > 0 {
		fmt.Fprintf(w, "  Regressed:      %s\n", red(sum.Regressed))
	}
	if sum.Unchanged > 0 {
		fmt.Fprintf(w, "  Unchanged:      %d\n", sum.Unchanged)
	}
	if sum.New > 0 {
		fmt.Fprintf(w, "  New Tests:      %s\n", cyan(sum.New))
	}
	if sum.Removed > 0 {
		fmt.Fprintf(w, "  Removed Tests:  %s\n", yellow(sum.Removed))
	}
	fmt.Fprintf(w, "  Duration:       %.0fms → %.0fms\n\n", sum.TotalDuration1, sum.TotalDuration2)

	changed := false
	for _, c := range diff.Comparisons {
		if c.Status == compare.StatusUnchanged && !c.Slower {
			continue
		}
		if !changed {
			fmt.Fprintf(w, "%s\n", bold("Changes"))
			changed = true
		}

		switch c.Status {
		case compare.StatusFixed:
			fmt.Fprintf(w, "  %s %s\n", green("↑"), c.Name)
		case compare.StatusRegressed:
			fmt.Fprintf(w, "  %s %s", red("↓"), c.Name)
			if c.Reason2 != "" {
				fmt.Fprintf(w, " (%s)", c.Reason2)
			}
			fmt.Fprintln(w)
		case compare.StatusNew:
			state := "passing"
			if !c.Passed2 {
				state = "failing"
			}
			fmt.Fprintf(w, "  %s %s  (new, %s)\n", cyan("+"), c.Name, state)
		case compare.StatusRemoved:
			fmt.Fprintf(w, "  %s %s  (removed)\n", yellow("-"), c.Name)
		default:
			fmt.Fprintf(w, "  %s %s  %.0fms → %.0fms %s\n", yellow("~"), c.Name,
				c.Duration1, c.Duration2, yellow(fmt.Sprintf("+%.1f%%", c.DurationChange)))
		}
	}
	if !changed {
		fmt.Fprintf(w, "No changes.\n")
	}

	if sum.Threshold > 0 {
		fmt.Fprintln(w)
		if sum.Slower == 0 {
			fmt.Fprintf(w, "%s Threshold check passed (max slowdown: %.1f%%)\n", green("✓"), sum.Threshold)
		} else {
			fmt.Fprintf(w, "%s Threshold check failed (%d test(s) slower by more than %.1f%%)\n", red("✗"), sum.Slower, sum.Threshold)
		}
	}
}
