// Package verify decides whether an interpreter run satisfies a test
// file's expectations.
//
// Verification is an ordered dispatch on the expected failure kind:
//  1. compile error: the exit code must be 65
//  2. runtime error: the exit code must be 70 and stderr must contain the
//     expected message
//  3. otherwise the exit code must be 0 and trimmed stdout must match the
//     expected lines exactly
//
// A file that declares a failure kind is never checked against its output
// lines. Timeouts, launch failures and unreadable files are decided before
// verification and have their own Verdict constructors.
package verify
