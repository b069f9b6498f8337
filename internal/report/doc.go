// Package report writes hunt results in multiple output formats.
//
// The package provides:
//   - PlainWriter: the flags one per line, the default stdout format
//   - JSONWriter / FullJSONWriter: machine-readable output
//   - YAMLWriter: structured output for config-management pipelines
//   - MarkdownWriter: documentation-quality output with charts
//   - SummaryWriter: a boxed terminal summary for replaying past runs
//   - MultiWriter: fan-out to several writers at once
//
// All writers implement the Writer interface, so the command layer can
// pick formats at runtime without caring which one it holds.
package report
