// Package report contains the outputs of a run: the console logger and summary, the JUnit XML
// and JSON report files, and the SQLite run history.
package report
