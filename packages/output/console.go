package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/loxspec/packages/core/runner"
	"github.com/fatih/color"
)

// SummaryRule is the width of the rule framing the summary block
const SummaryRule = 60

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	quiet   bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

// WithQuiet hides passing tests
func WithQuiet(q bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.quiet = q
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	if !f.verbose {
		return
	}
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("loxspec"), version)
}

func (f *ConsoleFormatter) FormatStart(total int) {
	if f.quiet {
		return
	}
	fmt.Fprintf(f.writer, "Running %d integration tests...\n\n", total)
}

func (f *ConsoleFormatter) FormatResult(result *runner.TestResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	if f.quiet && result.Passed() {
		return
	}

	var line string
	if result.Passed() {
		line = green("✓ PASS:") + " " + result.Name
	} else {
		line = red("✗ FAIL:") + " " + result.Name
	}
	if f.verbose {
		line += " " + cyan(fmt.Sprintf("(%dms)", result.Duration.Milliseconds()))
	}
	fmt.Fprintln(f.writer, line)

	if !result.Passed() && result.Verdict.Message != "" {
		for _, msg := range strings.Split(result.Verdict.Message, "\n") {
			fmt.Fprintf(f.writer, "    %s\n", msg)
		}
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

// Flush writes the summary block
func (f *ConsoleFormatter) Flush(report *runner.Report) error {
	rule := strings.Repeat("=", SummaryRule)

	fmt.Fprintln(f.writer)
	fmt.Fprintln(f.writer, rule)
	fmt.Fprintf(f.writer, "Tests run: %d\n", report.Total())
	fmt.Fprintf(f.writer, "Passed:    %d\n", report.Passed)
	fmt.Fprintf(f.writer, "Failed:    %d\n", report.Failed)
	fmt.Fprintln(f.writer, rule)

	if f.verbose && report.Timings != nil && report.Timings.Count > 0 {
		t := report.Timings
		fmt.Fprintf(f.writer, "\nTimings (%d runs", t.Count)
		if t.Timeouts > 0 {
			fmt.Fprintf(f.writer, ", %d timed out", t.Timeouts)
		}
		fmt.Fprintf(f.writer, ")\n")
		fmt.Fprintf(f.writer, "  min %s  p50 %s  p95 %s  p99 %s  max %s\n",
			formatDuration(t.Min), formatDuration(t.P50), formatDuration(t.P95),
			formatDuration(t.P99), formatDuration(t.Max))
		if len(t.Slowest) > 0 {
			fmt.Fprintf(f.writer, "  Slowest:\n")
			for _, s := range t.Slowest {
				fmt.Fprintf(f.writer, "    %-40s %s\n", s.Name, formatDuration(s.Duration))
			}
		}
		fmt.Fprintf(f.writer, "Time: %s\n", formatDuration(report.Duration))
	}

	return nil
}

// FormatDelta reports tests whose outcome changed since the previous
// recorded run
func (f *ConsoleFormatter) FormatDelta(regressed, fixed []string) {
	if len(regressed) == 0 && len(fixed) == 0 {
		return
	}
	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	fmt.Fprintln(f.writer)
	if len(regressed) > 0 {
		fmt.Fprintf(f.writer, "%s\n", red(fmt.Sprintf("Regressed since last run (%d):", len(regressed))))
		for _, name := range regressed {
			fmt.Fprintf(f.writer, "    %s\n", name)
		}
	}
	if len(fixed) > 0 {
		fmt.Fprintf(f.writer, "%s\n", green(fmt.Sprintf("Fixed since last run (%d):", len(fixed))))
		for _, name := range fixed {
			fmt.Fprintf(f.writer, "    %s\n", name)
		}
	}
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
