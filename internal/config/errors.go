package config

import "errors"

// Configuration validation errors.
// These are package-level sentinel errors so callers can classify failures
// with errors.Is while still getting a human-readable message.
var (
	// ErrNoFeedURL is returned when no feed endpoint is configured.
	ErrNoFeedURL = errors.New("no feed URL configured")

	// ErrNoStoreURL is returned when no knowledge-store URL is configured
	// for a run that is not a dry run.
	ErrNoStoreURL = errors.New("no store URL configured: set store_url, OPENCTI_API_URL, or use --dry-run")

	// ErrNoStoreToken is returned when no knowledge-store API token is
	// configured for a run that is not a dry run.
	ErrNoStoreToken = errors.New("no store token configured: set store_token, OPENCTI_API_KEY, or use --dry-run")

	// ErrInvalidTimeout is returned when the HTTP timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidPacingDelay is returned when the pacing delay is negative.
	// Use 0 to disable pacing entirely.
	ErrInvalidPacingDelay = errors.New("invalid pacing delay: must be non-negative")

	// ErrInvalidScore is returned when the observable score is outside 0-100.
	ErrInvalidScore = errors.New("invalid score: must be between 0 and 100")

	// ErrNoArtifactPath is returned when the artifact output path is empty.
	ErrNoArtifactPath = errors.New("no artifact output path configured")
)
