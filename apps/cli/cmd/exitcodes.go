package cmd

// Exit codes for loxspec CLI
const (
	// ExitSuccess indicates all tests passed, or there were none
	ExitSuccess = 0

	// ExitTestFailure indicates one or more tests failed, or the
	// interpreter could not be found
	ExitTestFailure = 1

	// ExitUsageError indicates invalid CLI usage or configuration
	ExitUsageError = 64
)
