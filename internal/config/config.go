package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// Where applicable these match the upstream DShield feed conventions and the
// OpenCTI defaults the connector was built against.
const (
	// DefaultFeedURL is the DShield Intel Feed endpoint. The feed is served
	// as a single JSON array; no pagination exists.
	DefaultFeedURL = "https://isc.sans.edu/api/intelfeed?json"

	// DefaultTimeout is the HTTP timeout for feed and store requests.
	// Both endpoints are public internet services; 30 seconds covers slow
	// responses without hanging a one-shot run indefinitely.
	DefaultTimeout = 30 * time.Second

	// DefaultPacingDelay is the minimum delay enforced before every label
	// attachment call. This exists purely to respect the store's API rate
	// limits; it is a politeness setting, not a correctness requirement.
	DefaultPacingDelay = 500 * time.Millisecond

	// DefaultScore is the confidence score assigned to created observables.
	DefaultScore = 60

	// DefaultLabelColor is the visual hint used when the connector has to
	// create a label that does not exist in the store yet.
	DefaultLabelColor = "#ffa500"

	// DefaultMarking is the TLP marking hint applied to created observables.
	DefaultMarking = "TLP:GREEN"

	// DefaultArtifactFile is the artifact written at the end of a run,
	// relative to the working directory unless overridden.
	DefaultArtifactFile = "dshield_export.json"

	// OrganizationName is the identity all created observables are
	// attributed to.
	OrganizationName = "DShield"

	// OrganizationDescription describes the attribution identity.
	OrganizationDescription = "DShield Intel Feed importer"

	// SourceName is the provenance source name for external references.
	SourceName = "dshield.org"

	// SourceURL is the provenance URL for the organization's reference.
	SourceURL = "https://dshield.org/"

	// AppName is the application name used for XDG directory paths.
	AppName = "ctisync"
)

// Config holds all configuration options for one connector run.
// It is populated from the optional YAML config file, environment variables,
// and CLI flags (in that order, later sources winning), then passed through
// the application via dependency injection rather than global state.
type Config struct {
	// FeedURL is the threat-intelligence feed endpoint to ingest.
	FeedURL string

	// StoreURL is the base URL of the knowledge store API.
	// Required unless DryRun is set.
	StoreURL string

	// StoreToken is the bearer token for the knowledge store API.
	// Required unless DryRun is set. Never logged; see internal/log.
	StoreToken string

	// Timeout is the HTTP timeout applied to feed and store requests.
	Timeout time.Duration

	// PacingDelay is the minimum interval enforced before each label
	// attachment call, success or failure.
	PacingDelay time.Duration

	// Score is the confidence score hint for created observables.
	Score int

	// LabelColor is the color hint for labels the connector creates.
	LabelColor string

	// ArtifactFile is the path the run summary artifact is written to.
	ArtifactFile string

	// MarkdownReport switches the stdout run report from plain text to
	// Markdown rendering.
	MarkdownReport bool

	// DryRun skips all external-store side effects, publishing against an
	// in-memory store instead. The feed is still fetched and the artifact
	// is still written, so a dry run verifies the full local pipeline.
	DryRun bool

	// Verbose enables debug-level log output.
	Verbose bool

	// SaveHistory controls whether the run summary is recorded in the
	// local run-history database.
	SaveHistory bool

	// DBDir is the directory holding the run-history SQLite database.
	// Defaults to the XDG data directory.
	DBDir string

	// ConfigFilePath is an explicit config file path. If empty, the loader
	// searches the conventional locations (see FindConfigFile).
	ConfigFilePath string
}

// NewConfig creates a Config with default values. Many defaults are
// non-zero, so relying on zero values would be error-prone; the constructor
// also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		FeedURL:      DefaultFeedURL,
		Timeout:      DefaultTimeout,
		PacingDelay:  DefaultPacingDelay,
		Score:        DefaultScore,
		LabelColor:   DefaultLabelColor,
		ArtifactFile: DefaultArtifactFile,
		SaveHistory:  true,
		DBDir:        XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for ctisync.
// On Linux: ~/.local/share/ctisync
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for ctisync.
// On Linux: ~/.config/ctisync
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid, returning the first
// problem found. Called once after flag and file loading, before any
// network traffic, so misconfiguration fails fast with a clear message.
func (c *Config) Validate() error {
	if c.FeedURL == "" {
		return ErrNoFeedURL
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.PacingDelay < 0 {
		return ErrInvalidPacingDelay
	}

	if c.Score < 0 || c.Score > 100 {
		return ErrInvalidScore
	}

	if c.ArtifactFile == "" {
		return ErrNoArtifactPath
	}

	// Store credentials are only needed when we will actually talk to one.
	if !c.DryRun {
		if c.StoreURL == "" {
			return ErrNoStoreURL
		}
		if c.StoreToken == "" {
			return ErrNoStoreToken
		}
	}

	return nil
}
