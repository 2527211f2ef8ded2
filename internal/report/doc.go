// Package report renders experiment results for people and tools.
//
// Writers share the Writer interface so the CLI can pick one by flag:
//   - SimpleWriter: aligned text for the terminal
//   - JSONWriter: structured output for scripts
//   - MarkdownWriter: tables, a damage pie chart and an alert block for sharing
package report
