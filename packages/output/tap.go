package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/loxspec/packages/core/runner"
)

// TAPFormatter formats test results in TAP (Test Anything Protocol) format
type TAPFormatter struct {
	writer    io.Writer
	testCount int
	results   []tapResult
}

type tapResult struct {
	number   int
	name     string
	passed   bool
	reason   string
	severity string
	message  []string
	exitCode *int
}

type TAPOption func(*TAPFormatter)

func NewTAPFormatter(opts ...TAPOption) *TAPFormatter {
	f := &TAPFormatter{
		writer:  os.Stdout,
		results: make([]tapResult, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func TAPWithWriter(w io.Writer) TAPOption {
	return func(f *TAPFormatter) {
		f.writer = w
	}
}

func (f *TAPFormatter) FormatResult(result *runner.TestResult) {
	f.testCount++
	tr := tapResult{
		number: f.testCount,
		name:   result.Name,
		passed: result.Passed(),
	}

	if !tr.passed {
		tr.reason = string(result.Verdict.Reason)
		tr.severity = "fail"
		if result.Verdict.Reason.IsError() {
			tr.severity = "error"
		}
		tr.message = strings.Split(result.Verdict.Message, "\n")
		if result.Exec != nil && result.Exec.Completed() {
			code := result.Exec.ExitCode
			tr.exitCode = &code
		}
	}

	f.results = append(f.results, tr)
}

func (f *TAPFormatter) FormatError(err error) {
	// Errors are included in individual test results
}

func (f *TAPFormatter) FormatHeader(version string) {
	// Header is written in Flush
}

func (f *TAPFormatter) FormatStart(total int) {}

// Flush writes the accumulated TAP output
func (f *TAPFormatter) Flush(report *runner.Report) error {
	fmt.Fprintf(f.writer, "TAP version 13\n")
	fmt.Fprintf(f.writer, "1..%d\n", f.testCount)

	for _, r := range f.results {
		if r.passed {
			fmt.Fprintf(f.writer, "ok %d - %s\n", r.number, r.name)
			continue
		}

		fmt.Fprintf(f.writer, "not ok %d - %s\n", r.number, r.name)
		fmt.Fprintf(f.writer, "  ---\n")
		fmt.Fprintf(f.writer, "  severity: %s\n", r.severity)
		if r.reason != "" {
			fmt.Fprintf(f.writer, "  reason: %s\n", r.reason)
		}
		if r.exitCode != nil {
			fmt.Fprintf(f.writer, "  exitCode: %d\n", *r.exitCode)
		}
		if len(r.message) == 1 {
			fmt.Fprintf(f.writer, "  message: %s\n", escapeYAML(r.message[0]))
		} else {
			fmt.Fprintf(f.writer, "  message: |\n")
			for _, line := range r.message {
				fmt.Fprintf(f.writer, "    %s\n", line)
			}
		}
		fmt.Fprintf(f.writer, "  ...\n")
	}

	// Add final newline for proper TAP output
	fmt.Fprintln(f.writer)

	return nil
}

func escapeYAML(s string) string {
	// Simple YAML escaping - wrap in quotes if contains special chars
	if strings.ContainsAny(s, ":\n\"'[]{}#&*!|>%@`") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		return "\"" + s + "\""
	}
	return s
}
