// Package feed provides the HTTP client for the DShield Intel Feed.
// The feed is a single JSON array of indicator records; the client fetches
// and decodes it in one request, with no pagination or retry logic.
package feed
