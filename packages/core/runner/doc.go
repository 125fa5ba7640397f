// Package runner discovers test files and runs them through the
// interpreter under test.
//
// It provides functionality for:
//   - Discovering test files by extension under one or more roots
//   - Filtering tests by name pattern
//   - Sequential execution, or a bounded worker pool with an optional
//     launch rate limit
//   - Converting read failures, launch failures and timeouts into verdicts
//   - Aggregating verdicts into a Report in discovery order
package runner
