// Package expect extracts expectation annotations from test source files.
//
// Three markers are recognized anywhere on a line, usually after code and a
// comment delimiter:
//   - "// expect: <text>" appends a line of expected stdout
//   - "// expect compile error" expects the interpreter to reject the file
//   - "// expect runtime error: <text>" expects a runtime failure whose
//     stderr contains <text>
//
// Extraction is split into a per-line classifier (Classify, Scan) and a
// reduction step (Reduce) that accumulates output lines in file order and
// lets the last failure-kind annotation win.
package expect
