// Package log provides a credential-safe slog handler for ctisync.
// The connector carries a knowledge-store API token in its configuration;
// the handler guarantees that tokens and other credential-shaped values
// never reach log output, regardless of which call site logs them.
package log
