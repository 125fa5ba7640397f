package output

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/loxspec/packages/core/interp"
	"github.com/abdul-hamid-achik/loxspec/packages/core/runner"
	"github.com/abdul-hamid-achik/loxspec/packages/core/verify"
	"github.com/abdul-hamid-achik/loxspec/packages/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *runner.Report {
	results := []*runner.TestResult{
		{
			Name:     "print.lox",
			File:     "test/integration/print.lox",
			Exec:     &interp.Result{ExitCode: 0, Stdout: "1\n"},
			Verdict:  verify.Pass(),
			Duration: 12 * time.Millisecond,
		},
		{
			Name:     "closure/counter.lox",
			File:     "test/integration/closure/counter.lox",
			Exec:     &interp.Result{ExitCode: 0, Stdout: "1\n3\n"},
			Verdict:  verify.Fail(verify.ReasonLineMismatch, "Line 2 mismatch:\n  Expected: 2\n  Got:      3"),
			Duration: 8 * time.Millisecond,
		},
		{
			Name:     "loop.lox",
			File:     "test/integration/loop.lox",
			Exec:     &interp.Result{ExitCode: -1, TimedOut: true, Timeout: 5 * time.Second},
			Verdict:  verify.TimedOut(5 * time.Second),
			Duration: 5 * time.Second,
		},
	}
	return &runner.Report{
		RunID:     "run-1",
		StartedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration:  5100 * time.Millisecond,
		Results:   results,
		Passed:    1,
		Failed:    2,
		Timings:   &stats.Summary{},
	}
}

func feed(f interface {
	FormatResult(*runner.TestResult)
}, report *runner.Report) {
	for _, r := range report.Results {
		f.FormatResult(r)
	}
}

func TestConsoleFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	report := sampleReport()

	f.FormatStart(report.Total())
	feed(f, report)
	require.NoError(t, f.Flush(report))

	out := buf.String()
	rule := strings.Repeat("=", 60)
	assert.True(t, strings.HasPrefix(out, "Running 3 integration tests...\n\n"))
	assert.Contains(t, out, "✓ PASS: print.lox\n")
	assert.Contains(t, out, "✗ FAIL: closure/counter.lox\n    Line 2 mismatch:\n      Expected: 2\n      Got:      3\n")
	assert.Contains(t, out, "✗ FAIL: loop.lox\n    Test timed out after 5s\n")
	assert.Contains(t, out, "\n"+rule+"\nTests run: 3\nPassed:    1\nFailed:    2\n"+rule+"\n")
	assert.NotContains(t, out, "Timings")
}

func TestConsoleFormatter_Verbose(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithVerbose(true))
	report := sampleReport()
	report.Timings = &stats.Summary{
		Count:   2,
		Min:     8 * time.Millisecond,
		Max:     12 * time.Millisecond,
		P50:     8 * time.Millisecond,
		P95:     12 * time.Millisecond,
		P99:     12 * time.Millisecond,
		Slowest: []stats.Timing{{Name: "print.lox", Duration: 12 * time.Millisecond}},
	}

	f.FormatHeader("1.0.0")
	feed(f, report)
	require.NoError(t, f.Flush(report))

	out := buf.String()
	assert.Contains(t, out, "loxspec 1.0.0")
	assert.Contains(t, out, "✓ PASS: print.lox (12ms)")
	assert.Contains(t, out, "Timings (2 runs)")
	assert.Contains(t, out, "print.lox")
}

func TestConsoleFormatter_FormatError(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))
	f.FormatError(errors.New("boom"))
	assert.Equal(t, "Error: boom\n", buf.String())
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJSONFormatter(JSONWithWriter(&buf))
	report := sampleReport()

	feed(f, report)
	require.NoError(t, f.Flush(report))

	var out JSONOutput
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, JSONSummary{Total: 3, Passed: 1, Failed: 2}, out.Summary)
	require.Len(t, out.Tests, 3)

	assert.True(t, out.Tests[0].Passed)
	require.NotNil(t, out.Tests[0].ExitCode)
	assert.Equal(t, 0, *out.Tests[0].ExitCode)

	assert.Equal(t, "line_mismatch", out.Tests[1].Reason)
	assert.Contains(t, out.Tests[1].Message, "Line 2 mismatch")

	assert.True(t, out.Tests[2].TimedOut)
	assert.Nil(t, out.Tests[2].ExitCode)
	assert.Equal(t, "timeout", out.Tests[2].Reason)
}

func TestJUnitFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewJUnitFormatter(JUnitWithWriter(&buf))
	report := sampleReport()

	feed(f, report)
	require.NoError(t, f.Flush(report))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))

	var suites JUnitTestSuites
	require.NoError(t, xml.Unmarshal([]byte(out[strings.Index(out, "<testsuites"):]), &suites))
	assert.Equal(t, 3, suites.Tests)
	assert.Equal(t, 1, suites.Failures)
	assert.Equal(t, 1, suites.Errors)
	require.Len(t, suites.TestSuites, 1)

	cases := suites.TestSuites[0].TestCases
	require.Len(t, cases, 3)
	assert.Nil(t, cases[0].Failure)
	assert.Equal(t, "integration", cases[0].ClassName)
	require.NotNil(t, cases[1].Failure)
	assert.Equal(t, "closure", cases[1].ClassName)
	assert.Equal(t, "Line 2 mismatch:", cases[1].Failure.Message)
	require.NotNil(t, cases[2].Error)
	assert.Equal(t, "timeout", cases[2].Error.Type)
}

func TestTAPFormatter(t *testing.T) {
	var buf bytes.Buffer
	f := NewTAPFormatter(TAPWithWriter(&buf))
	report := sampleReport()

	feed(f, report)
	require.NoError(t, f.Flush(report))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "TAP version 13\n1..3\n"))
	assert.Contains(t, out, "ok 1 - print.lox\n")
	assert.Contains(t, out, "not ok 2 - closure/counter.lox\n  ---\n  severity: fail\n  reason: line_mismatch\n  exitCode: 0\n  message: |\n    Line 2 mismatch:\n")
	assert.Contains(t, out, "not ok 3 - loop.lox\n  ---\n  severity: error\n")
}

func TestEscapeYAML(t *testing.T) {
	assert.Equal(t, "plain", escapeYAML("plain"))
	assert.Equal(t, `"a: b"`, escapeYAML("a: b"))
	assert.Equal(t, `"say \"hi\""`, escapeYAML(`say "hi"`))
}

func TestConsoleFormatter_Quiet(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true), WithQuiet(true))
	report := sampleReport()

	f.FormatStart(report.Total())
	feed(f, report)
	require.NoError(t, f.Flush(report))

	out := buf.String()
	assert.NotContains(t, out, "Running")
	assert.NotContains(t, out, "PASS")
	assert.Contains(t, out, "✗ FAIL: loop.lox")
	assert.Contains(t, out, "Tests run: 3")
}

func TestConsoleFormatter_FormatDelta(t *testing.T) {
	var buf bytes.Buffer
	f := NewConsoleFormatter(WithWriter(&buf), WithNoColor(true))

	f.FormatDelta(nil, nil)
	assert.Empty(t, buf.String())

	f.FormatDelta([]string{"a.lox"}, []string{"b.lox", "c.lox"})
	assert.Equal(t, "\nRegressed since last run (1):\n    a.lox\nFixed since last run (2):\n    b.lox\n    c.lox\n", buf.String())
}
