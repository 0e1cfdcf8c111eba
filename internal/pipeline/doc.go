// Package pipeline orchestrates one connector run as a sequence of steps:
// fetch, extract, publish, summarize. Each step receives the accumulating
// Run and can modify it.
//
// The run is a small state machine: Idle → Fetching → Extracting →
// Publishing → Summarizing → Done, with Failed reachable from Fetching
// only. A feed that errors or returns no records is a hard stop with no
// artifact; every later failure is absorbed at the per-record or per-label
// boundary and recorded in the summary instead of ending the run.
package pipeline
