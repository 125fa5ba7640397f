// Package output provides formatters for displaying test results.
//
// Supported output formats:
//   - Console: the PASS/FAIL report with a summary block
//   - JSON: Machine-readable JSON output
//   - JUnit: JUnit XML format for CI integration
//   - TAP: Test Anything Protocol format
//
// Formatters receive results in discovery order and write their final
// output when flushed with the run report.
package output
