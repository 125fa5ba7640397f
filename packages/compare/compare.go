package compare

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Status is the change in a test's outcome between two reports
type Status string

const (
	StatusFixed     Status = "fixed"
	StatusRegressed Status = "regressed"
	StatusUnchanged Status = "unchanged"
	StatusNew       Status = "new"
	StatusRemoved   Status = "removed"
)

// TestReport is the part of a json report that comparison needs
type TestReport struct {
	RunID    string
	Duration float64
	Tests    []TestEntry
}

// TestEntry is one test of a report
type TestEntry struct {
	Name     string
	Passed   bool
	Reason   string
	Duration float64 // ms
}

// Comparison is the result for one test name
type Comparison struct {
	Name           string  `json:"name"`
	Status         Status  `json:"status"`
	Passed1        bool    `json:"passed1"`
	Passed2        bool    `json:"passed2"`
	Reason2        string  `json:"reason2,omitempty"`
	Duration1      float64 `json:"duration1,omitempty"`
	Duration2      float64 `json:"duration2,omitempty"`
	DurationChange float64 `json:"durationChange,omitempty"` // percent
	Slower         bool    `json:"slower,omitempty"`
}

// Summary counts comparisons by status
type Summary struct {
	Total          int     `json:"total"`
	Fixed          int     `json:"fixed"`
	Regressed      int     `json:"regressed"`
	Unchanged      int     `json:"unchanged"`
	New            int     `json:"new"`
	Removed        int     `json:"removed"`
	Slower         int     `json:"slower"`
	TotalDuration1 float64 `json:"totalDuration1"`
	TotalDuration2 float64 `json:"totalDuration2"`
	Threshold      float64 `json:"threshold,omitempty"`
}

// Result is the comparison of two reports
type Result struct {
	File1       string       `json:"file1"`
	File2       string       `json:"file2"`
	RunID1      string       `json:"runId1,omitempty"`
	RunID2      string       `json:"runId2,omitempty"`
	Summary     Summary      `json:"summary"`
	Comparisons []Comparison `json:"comparisons"`
}

// HasRegressions reports whether any test went from passing to failing
func (r *Result) HasRegressions() bool {
	return r.Summary.Regressed > 0
}

// ThresholdExceeded reports whether any test slowed down by more than the
// configured threshold
func (r *Result) ThresholdExceeded() bool {
	return r.Summary.Slower > 0
}

// LoadFile reads a json report from disk
func LoadFile(path string) (*TestReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse reads a json report. Unknown fields are ignored.
func Parse(data []byte) (*TestReport, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON report")
	}

	doc := gjson.ParseBytes(data)
	tests := doc.Get("tests")
	if !tests.IsArray() {
		return nil, fmt.Errorf("report has no tests array")
	}

	report := &TestReport{
		RunID:    doc.Get("runId").String(),
		Duration: doc.Get("duration").Float(),
		Tests:    make([]TestEntry, 0),
	}
	for _, t := range tests.Array() {
		name := t.Get("name").String()
		if name == "" {
			return nil, fmt.Errorf("report contains a test without a name")
		}
		report.Tests = append(report.Tests, TestEntry{
			Name:     name,
			Passed:   t.Get("passed").Bool(),
			Reason:   t.Get("reason").String(),
			Duration: t.Get("duration").Float(),
		})
	}
	return report, nil
}

// ParseThreshold parses a percentage such as "10%" or "25"
func ParseThreshold(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid threshold %q: %w", s, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("invalid threshold %q: must not be negative", s)
	}
	return v, nil
}

// Compare matches the tests of two reports by name. Comparisons follow
// the order of the second report, with removed tests appended in the
// order of the first. A threshold of zero disables the slowdown check.
func Compare(file1, file2 string, r1, r2 *TestReport, threshold float64) *Result {
	result := &Result{
		File1:  file1,
		File2:  file2,
		RunID1: r1.RunID,
		RunID2: r2.RunID,
		Summary: Summary{
			TotalDuration1: r1.Duration,
			TotalDuration2: r2.Duration,
			Threshold:      threshold,
		},
		Comparisons: make([]Comparison, 0),
	}

	before := make(map[string]TestEntry, len(r1.Tests))
	for _, t := range r1.Tests {
		before[t.Name] = t
	}
	seen := make(map[string]bool, len(r2.Tests))

	for _, t2 := range r2.Tests {
		seen[t2.Name] = true
		comp := Comparison{
			Name:      t2.Name,
			Passed2:   t2.Passed,
			Reason2:   t2.Reason,
			Duration2: t2.Duration,
		}

		t1, ok := before[t2.Name]
		if !ok {
			comp.Status = StatusNew
			result.add(comp)
			continue
		}

		comp.Passed1 = t1.Passed
		comp.Duration1 = t1.Duration
		if t1.Duration > 0 {
			comp.DurationChange = (t2.Duration - t1.Duration) / t1.Duration * 100
		}
		comp.Slower = threshold > 0 && comp.DurationChange > threshold

		switch {
		case t1.Passed && !t2.Passed:
			comp.Status = StatusRegressed
		case !t1.Passed && t2.Passed:
			comp.Status = StatusFixed
		default:
			comp.Status = StatusUnchanged
		}
		result.add(comp)
	}

	for _, t1 := range r1.Tests {
		if seen[t1.Name] {
			continue
		}
		result.add(Comparison{
			Name:      t1.Name,
			Status:    StatusRemoved,
			Passed1:   t1.Passed,
			Duration1: t1.Duration,
		})
	}

	return result
}

func (r *Result) add(c Comparison) {
	r.Comparisons = append(r.Comparisons, c)
	r.Summary.Total++
	switch c.Status {
	case StatusFixed:
		r.Summary.Fixed++
	case StatusRegressed:
		r.Summary.Regressed++
	case StatusUnchanged:
		r.Summary.Unchanged++
	case StatusNew:
		r.Summary.New++
	case StatusRemoved:
		r.Summary.Removed++
	}
	if c.Slower {
		r.Summary.Slower++
	}
}
