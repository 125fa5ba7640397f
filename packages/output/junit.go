package output

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/loxspec/packages/core/runner"
)

// JUnit XML structures

// JUnitTestSuites is the root element
type JUnitTestSuites struct {
	XMLName    xml.Name         `xml:"testsuites"`
	Name       string           `xml:"name,attr,omitempty"`
	Tests      int              `xml:"tests,attr"`
	Failures   int              `xml:"failures,attr"`
	Errors     int              `xml:"errors,attr"`
	Time       float64          `xml:"time,attr"`
	Timestamp  string           `xml:"timestamp,attr,omitempty"`
	TestSuites []JUnitTestSuite `xml:"testsuite"`
}

// JUnitTestSuite represents a test suite (one run of the corpus)
type JUnitTestSuite struct {
	XMLName   xml.Name        `xml:"testsuite"`
	Name      string          `xml:"name,attr"`
	Tests     int             `xml:"tests,attr"`
	Failures  int             `xml:"failures,attr"`
	Errors    int             `xml:"errors,attr"`
	Time      float64         `xml:"time,attr"`
	Timestamp string          `xml:"timestamp,attr,omitempty"`
	TestCases []JUnitTestCase `xml:"testcase"`
}

// JUnitTestCase represents a single test file
type JUnitTestCase struct {
	XMLName   xml.Name      `xml:"testcase"`
	Name      string        `xml:"name,attr"`
	ClassName string        `xml:"classname,attr"`
	Time      float64       `xml:"time,attr"`
	Failure   *JUnitFailure `xml:"failure,omitempty"`
	Error     *JUnitError   `xml:"error,omitempty"`
}

// JUnitFailure represents an expectation mismatch
type JUnitFailure struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitError represents a test that could not be run to completion
type JUnitError struct {
	Message string `xml:"message,attr,omitempty"`
	Type    string `xml:"type,attr,omitempty"`
	Content string `xml:",chardata"`
}

// JUnitFormatter formats test results as JUnit XML
type JUnitFormatter struct {
	writer    io.Writer
	suiteName string
	cases     []JUnitTestCase
	failures  int
	errors    int
}

type JUnitOption func(*JUnitFormatter)

func NewJUnitFormatter(opts ...JUnitOption) *JUnitFormatter {
	f := &JUnitFormatter{
		writer:    os.Stdout,
		suiteName: "integration",
		cases:     make([]JUnitTestCase, 0),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JUnitWithWriter(w io.Writer) JUnitOption {
	return func(f *JUnitFormatter) {
		f.writer = w
	}
}

// JUnitWithSuiteName sets the name of the test suite element
func JUnitWithSuiteName(name string) JUnitOption {
	return func(f *JUnitFormatter) {
		f.suiteName = name
	}
}

func (f *JUnitFormatter) FormatResult(result *runner.TestResult) {
	tc := JUnitTestCase{
		Name:      result.Name,
		ClassName: classNameFor(result.Name),
		Time:      result.Duration.Seconds(),
	}

	if !result.Passed() {
		v := result.Verdict
		if v.Reason.IsError() {
			f.errors++
			tc.Error = &JUnitError{
				Message: firstLine(v.Message),
				Type:    string(v.Reason),
				Content: v.Message,
			}
		} else {
			f.failures++
			tc.Failure = &JUnitFailure{
				Message: firstLine(v.Message),
				Type:    string(v.Reason),
				Content: v.Message,
			}
		}
	}

	f.cases = append(f.cases, tc)
}

func (f *JUnitFormatter) FormatError(err error) {
	// Errors are included in individual test cases
}

func (f *JUnitFormatter) FormatHeader(version string) {
	// No header needed for JUnit XML
}

func (f *JUnitFormatter) FormatStart(total int) {}

// Flush writes the accumulated JUnit XML output
func (f *JUnitFormatter) Flush(report *runner.Report) error {
	timestamp := report.StartedAt.Format(time.RFC3339)
	suite := JUnitTestSuite{
		Name:      f.suiteName,
		Tests:     len(f.cases),
		Failures:  f.failures,
		Errors:    f.errors,
		Time:      report.Duration.Seconds(),
		Timestamp: timestamp,
		TestCases: f.cases,
	}

	suites := JUnitTestSuites{
		Name:       "loxspec",
		Tests:      suite.Tests,
		Failures:   suite.Failures,
		Errors:     suite.Errors,
		Time:       suite.Time,
		Timestamp:  timestamp,
		TestSuites: []JUnitTestSuite{suite},
	}

	fmt.Fprintf(f.writer, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	encoder := xml.NewEncoder(f.writer)
	encoder.Indent("", "  ")
	if err := encoder.Encode(suites); err != nil {
		return err
	}
	_, err := fmt.Fprintln(f.writer)
	return err
}

// classNameFor turns "closure/nested.lox" into "closure"
func classNameFor(name string) string {
	dir := path.Dir(name)
	if dir == "." {
		return "integration"
	}
	return strings.ReplaceAll(dir, "/", ".")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
