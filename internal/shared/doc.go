// Package shared holds code used across packages that belongs to no single
// layer.
//
// The testutil subpackage provides test helpers:
//
//   - CaseWorkbook builds xlsx uploads in the banner-then-header layout of
//     the case tracker export, with ExampleCaseWorkbook as the canonical
//     three-row fixture.
//   - BufferedSlogHandler and NewTestLogger capture slog records so tests
//     can assert on what a component logged.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    logger, logs := testutil.NewTestLogger(t)
//	    upload := testutil.ExampleCaseWorkbook().Build(t)
//	    // ...
//	    testutil.AssertLogContains(t, logs, slog.LevelInfo, "analysis completed")
//	}
package shared
