package verify

import (
	"fmt"
	"time"
)

// Reason classifies why a verdict failed.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonExitCode       Reason = "exit_code"
	ReasonMissingMessage Reason = "missing_message"
	ReasonLineCount      Reason = "line_count"
	ReasonLineMismatch   Reason = "line_mismatch"
	ReasonTimeout        Reason = "timeout"
	ReasonLaunch         Reason = "launch"
	ReasonRead           Reason = "read"
)

// IsError reports whether the reason is a problem running the test rather
// than a mismatch between expected and observed behavior.
func (r Reason) IsError() bool {
	switch r {
	case ReasonTimeout, ReasonLaunch, ReasonRead:
		return true
	}
	return false
}

// Verdict is the outcome for one test file. Message is empty when Passed.
type Verdict struct {
	Passed  bool
	Message string
	Reason  Reason
}

// Pass returns a passing verdict.
func Pass() Verdict {
	return Verdict{Passed: true}
}

// Fail returns a failing verdict.
func Fail(reason Reason, format string, args ...any) Verdict {
	return Verdict{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// TimedOut is the verdict for a run that exceeded its time budget.
func TimedOut(timeout time.Duration) Verdict {
	return Fail(ReasonTimeout, "Test timed out after %s", timeout)
}

// LaunchFailed is the verdict for an interpreter that could not be started.
func LaunchFailed(err error) Verdict {
	return Fail(ReasonLaunch, "Failed to run interpreter: %v", err)
}

// ReadFailed is the verdict for a test file that could not be read.
func ReadFailed(err error) Verdict {
	return Fail(ReasonRead, "Failed to read test file: %v", err)
}
