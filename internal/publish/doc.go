// Package publish implements the store-facing half of the pipeline: the
// per-run label registry (resolve-or-create with memoization), the pacing
// policy between label attachments, and the publisher that upserts
// observables and attaches their labels with per-label failure isolation.
package publish
