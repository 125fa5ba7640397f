package interp

import "time"

// Result is the observed behavior of one interpreter run. It is not
// modified after Run returns.
type Result struct {
	ExitCode int
	Stdout   string
	Stderr   string
	Duration time.Duration

	// TimedOut is set when the run exceeded its timeout and was killed.
	// ExitCode is meaningless in that case.
	TimedOut bool
	// Timeout is the limit that applied to the run.
	Timeout time.Duration

	// LaunchErr is set when the interpreter could not be started.
	LaunchErr error
}

// Completed reports whether the interpreter ran and exited on its own.
func (r *Result) Completed() bool {
	return !r.TimedOut && r.LaunchErr == nil
}
