// Package model defines the data structures shared across the connector:
// raw feed records, normalized observables, label handling, and the per-run
// summary with its per-item publish results.
package model
