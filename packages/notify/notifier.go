// Package notify posts test run summaries to chat services.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/loxspec/packages/core/runner"
)

// NotifyOn specifies when to send notifications
type NotifyOn string

const (
	// NotifyAlways sends notifications for every run
	NotifyAlways NotifyOn = "always"
	// NotifyFailure sends notifications only when tests fail
	NotifyFailure NotifyOn = "failure"
	// NotifySuccess sends notifications only when tests pass
	NotifySuccess NotifyOn = "success"
	// NotifyRecovery sends notifications on failure and when a run passes
	// after a failing one
	NotifyRecovery NotifyOn = "recovery"
)

// ParseNotifyOn validates a --notify-on value
func ParseNotifyOn(s string) (NotifyOn, error) {
	switch on := NotifyOn(strings.ToLower(strings.TrimSpace(s))); on {
	case NotifyAlways, NotifyFailure, NotifySuccess, NotifyRecovery:
		return on, nil
	case "":
		return NotifyFailure, nil
	default:
		return "", fmt.Errorf("invalid notify-on value %q (use always, failure, success or recovery)", s)
	}
}

// RunSummary represents the summary of a test run for notifications
type RunSummary struct {
	RunID         string        `json:"run_id"`
	TotalTests    int           `json:"total_tests"`
	PassedTests   int           `json:"passed_tests"`
	FailedTests   int           `json:"failed_tests"`
	Duration      time.Duration `json:"duration"`
	Interpreter   string        `json:"interpreter,omitempty"`
	Commit        string        `json:"commit,omitempty"`
	Branch        string        `json:"branch,omitempty"`
	FailedResults []FailedTest  `json:"failed_results,omitempty"`
	Regressions   []string      `json:"regressions,omitempty"`
	IsRecovery    bool          `json:"is_recovery,omitempty"`

	// PreviousFailed is the outcome of the previous recorded run, when
	// history is available.
	PreviousFailed *bool `json:"-"`
}

// FailedTest represents a failed test for notifications
type FailedTest struct {
	Name    string `json:"name"`
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// MaxFailedResults caps the failed tests listed in one notification
const MaxFailedResults = 20

// NewRunSummary builds a summary from a run report
func NewRunSummary(report *runner.Report, interpreter string) *RunSummary {
	summary := &RunSummary{
		RunID:       report.RunID,
		TotalTests:  report.Total(),
		PassedTests: report.Passed,
		FailedTests: report.Failed,
		Duration:    report.Duration,
		Interpreter: interpreter,
	}
	for _, r := range report.Results {
		if r.Passed() {
			continue
		}
		if len(summary.FailedResults) == MaxFailedResults {
			break
		}
		msg := r.Verdict.Message
		if i := strings.IndexByte(msg, '\n'); i >= 0 {
			msg = msg[:i]
		}
		summary.FailedResults = append(summary.FailedResults, FailedTest{
			Name:    r.Name,
			Reason:  string(r.Verdict.Reason),
			Message: msg,
		})
	}
	return summary
}

// Notifier is the interface for notification services
type Notifier interface {
	// Notify sends a notification about test results
	Notify(ctx context.Context, summary *RunSummary) error

	// Name returns the name of the notifier
	Name() string
}

// Manager manages multiple notifiers
type Manager struct {
	notifiers []Notifier
	notifyOn  NotifyOn
	lastState bool // true if last run was successful
}

// NewManager creates a new notification manager
func NewManager(notifyOn NotifyOn, notifiers ...Notifier) *Manager {
	return &Manager{
		notifiers: notifiers,
		notifyOn:  notifyOn,
		lastState: true, // Assume success initially
	}
}

// AddNotifier adds a notifier to the manager
func (m *Manager) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// Notify sends notifications based on the configured policy. It reports
// whether a notification was attempted.
func (m *Manager) Notify(ctx context.Context, summary *RunSummary) (bool, error) {
	shouldNotify := false
	currentSuccess := summary.FailedTests == 0

	previousSuccess := m.lastState
	if summary.PreviousFailed != nil {
		previousSuccess = !*summary.PreviousFailed
	}

	switch m.notifyOn {
	case NotifyAlways:
		shouldNotify = true
	case NotifyFailure:
		shouldNotify = !currentSuccess
	case NotifySuccess:
		shouldNotify = currentSuccess
	case NotifyRecovery:
		if !previousSuccess && currentSuccess {
			shouldNotify = true
			summary.IsRecovery = true
		}
		if !currentSuccess {
			shouldNotify = true
		}
	}

	m.lastState = currentSuccess

	if !shouldNotify {
		return false, nil
	}

	var errs []string
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, summary); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", n.Name(), err))
		}
	}
	if len(errs) > 0 {
		return true, fmt.Errorf("notification failed: %s", strings.Join(errs, "; "))
	}
	return true, nil
}
