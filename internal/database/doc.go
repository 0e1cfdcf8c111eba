// Package database provides SQLite-based persistence for run history.
// Each completed connector run is recorded with its counts and full summary
// so operators can audit past imports with the history command. Persistence
// is additive only: a database failure never affects a run's outcome.
package database
