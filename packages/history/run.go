package history

import (
	"time"

	"github.com/abdul-hamid-achik/loxspec/packages/core/runner"
)

// Run is one recorded test run
type Run struct {
	ID        string
	StartedAt time.Time
	Duration  time.Duration
	Total     int
	Passed    int
	Failed    int
	Commit    string
	Branch    string
	Results   []TestRecord
}

// TestRecord is the stored outcome of one test file
type TestRecord struct {
	Name     string
	Passed   bool
	Reason   string
	Message  string
	Duration time.Duration
}

// FromReport converts a run report into a Run ready to be recorded
func FromReport(report *runner.Report, stamp Stamp) *Run {
	run := &Run{
		ID:        report.RunID,
		StartedAt: report.StartedAt,
		Duration:  report.Duration,
		Total:     report.Total(),
		Passed:    report.Passed,
		Failed:    report.Failed,
		Commit:    stamp.Commit,
		Branch:    stamp.Branch,
		Results:   make([]TestRecord, 0, len(report.Results)),
	}
	for _, r := range report.Results {
		run.Results = append(run.Results, TestRecord{
			Name:     r.Name,
			Passed:   r.Passed(),
			Reason:   string(r.Verdict.Reason),
			Message:  r.Verdict.Message,
			Duration: r.Duration,
		})
	}
	return run
}

// Delta lists tests whose outcome changed between two runs
type Delta struct {
	Regressed []string
	Fixed     []string
}

// Changed reports whether any test changed outcome
func (d Delta) Changed() bool {
	return len(d.Regressed) > 0 || len(d.Fixed) > 0
}

// Compare returns the tests that went from passing to failing and back.
// Tests present in only one of the runs are ignored. Names keep the order
// of cur.
func Compare(prev, cur *Run) Delta {
	var d Delta
	if prev == nil || cur == nil {
		return d
	}

	before := make(map[string]bool, len(prev.Results))
	for _, r := range prev.Results {
		before[r.Name] = r.Passed
	}

	for _, r := range cur.Results {
		passed, ok := before[r.Name]
		if !ok {
			continue
		}
		switch {
		case passed && !r.Passed:
			d.Regressed = append(d.Regressed, r.Name)
		case !passed && r.Passed:
			d.Fixed = append(d.Fixed, r.Name)
		}
	}
	return d
}
