// Package compare diffs two JSON reports written by the json formatter.
//
// Tests are matched by name. Each test is classified as fixed,
// regressed, unchanged, new or removed, and durations are compared
// against an optional slowdown threshold.
package compare
