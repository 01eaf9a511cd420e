// Package report renders settled diagnoses.
//
// This package contains writers for different output formats:
//   - SimpleWriter: Human-readable text output for terminal display
//   - JSONWriter: Structured JSON output for tool integration
//   - MarkdownWriter: Markdown with a mermaid pie chart of predictions
//
// Design decision: Report writing is kept out of the session package. A
// session only exposes read-only snapshots; turning them into text is a
// presentation concern and new formats must not touch the state machine.
package report
