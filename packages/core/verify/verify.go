package verify

import (
	"strings"

	"github.com/abdul-hamid-achik/loxspec/packages/core/expect"
	"github.com/abdul-hamid-achik/loxspec/packages/core/interp"
)

// Exit codes reserved by the interpreter contract.
const (
	ExitSuccess      = 0
	ExitCompileError = 65
	ExitRuntimeError = 70
)

// Verify checks an interpreter run against a file's expectations. Runs that
// timed out or failed to launch are reported as such without looking at the
// expectations. Verify has no side effects.
func Verify(set *expect.Set, result *interp.Result) Verdict {
	if result.TimedOut {
		return TimedOut(result.Timeout)
	}
	if result.LaunchErr != nil {
		return LaunchFailed(result.LaunchErr)
	}

	switch set.Failure.Kind {
	case expect.FailureCompile:
		return verifyCompileError(result)
	case expect.FailureRuntime:
		return verifyRuntimeError(set.Failure.Message, result)
	default:
		return verifyOutput(set.Output, result)
	}
}

func verifyCompileError(result *interp.Result) Verdict {
	if result.ExitCode != ExitCompileError {
		return Fail(ReasonExitCode, "Expected compile error (exit %d), got exit %d",
			ExitCompileError, result.ExitCode)
	}
	return Pass()
}

func verifyRuntimeError(message string, result *interp.Result) Verdict {
	if result.ExitCode != ExitRuntimeError {
		return Fail(ReasonExitCode, "Expected runtime error (exit %d), got exit %d",
			ExitRuntimeError, result.ExitCode)
	}
	if !strings.Contains(result.Stderr, message) {
		return Fail(ReasonMissingMessage, "Expected runtime error: %s\nGot: %s",
			message, result.Stderr)
	}
	return Pass()
}

func verifyOutput(expected []string, result *interp.Result) Verdict {
	if result.ExitCode != ExitSuccess {
		return Fail(ReasonExitCode, "Expected success (exit %d), got exit %d\nstderr: %s",
			ExitSuccess, result.ExitCode, result.Stderr)
	}

	actual := SplitOutput(result.Stdout)

	if len(expected) != len(actual) {
		return Fail(ReasonLineCount, "Expected %d lines of output, got %d\nExpected: %q\nGot: %q",
			len(expected), len(actual), expected, actual)
	}

	for i := range expected {
		if expected[i] != actual[i] {
			return Fail(ReasonLineMismatch, "Line %d mismatch:\n  Expected: %s\n  Got:      %s",
				i+1, expected[i], actual[i])
		}
	}

	return Pass()
}

// SplitOutput turns captured stdout into lines: CRLF endings are
// normalized, the whole text is trimmed of surrounding whitespace, then
// split on "\n". Empty output yields no lines.
func SplitOutput(stdout string) []string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(stdout, "\r\n", "\n"))
	if trimmed == "" {
		return []string{}
	}
	return strings.Split(trimmed, "\n")
}
