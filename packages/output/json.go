package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/loxspec/packages/core/runner"
	"github.com/abdul-hamid-achik/loxspec/packages/stats"
)

// JSONOutput represents the complete JSON output structure
type JSONOutput struct {
	RunID    string         `json:"runId"`
	Summary  JSONSummary    `json:"summary"`
	Tests    []JSONTest     `json:"tests"`
	Duration float64        `json:"duration"`
	Time     string         `json:"time"`
	Timings  *stats.Summary `json:"timings,omitempty"`
}

// JSONSummary represents the test summary
type JSONSummary struct {
	Total  int `json:"total"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// JSONTest represents a single test result
type JSONTest struct {
	Name     string  `json:"name"`
	File     string  `json:"file"`
	Passed   bool    `json:"passed"`
	Reason   string  `json:"reason,omitempty"`
	Message  string  `json:"message,omitempty"`
	ExitCode *int    `json:"exitCode,omitempty"`
	TimedOut bool    `json:"timedOut,omitempty"`
	Duration float64 `json:"duration"`
}

// JSONFormatter formats test results as JSON
type JSONFormatter struct {
	writer  io.Writer
	results []JSONTest
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer:  os.Stdout,
		results: make([]JSONTest, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResult(result *runner.TestResult) {
	test := JSONTest{
		Name:     result.Name,
		File:     result.File,
		Passed:   result.Passed(),
		Reason:   string(result.Verdict.Reason),
		Message:  result.Verdict.Message,
		Duration: float64(result.Duration.Milliseconds()),
	}

	if result.Exec != nil {
		test.TimedOut = result.Exec.TimedOut
		if result.Exec.Completed() {
			code := result.Exec.ExitCode
			test.ExitCode = &code
		}
	}

	f.results = append(f.results, test)
}

func (f *JSONFormatter) FormatError(err error) {
	// Errors are included in individual test results
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

func (f *JSONFormatter) FormatStart(total int) {}

// Flush writes the accumulated JSON output
func (f *JSONFormatter) Flush(report *runner.Report) error {
	var passed, failed int
	for _, t := range f.results {
		if t.Passed {
			passed++
		} else {
			failed++
		}
	}

	output := JSONOutput{
		RunID: report.RunID,
		Summary: JSONSummary{
			Total:  len(f.results),
			Passed: passed,
			Failed: failed,
		},
		Tests:    f.results,
		Duration: float64(report.Duration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
		Timings:  report.Timings,
	}

	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
