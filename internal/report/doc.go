// Package report provides run summary output: the JSON artifact consumed by
// downstream tooling and a Markdown report for operators. Writers share one
// interface so the artifact sink and the human-readable report can be
// swapped or combined.
package report
