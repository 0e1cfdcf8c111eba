package config

import (
	"errors"
	"testing"
	"time"
)

// validConfig returns a config that passes validation for a non-dry run.
func validConfig() *Config {
	cfg := NewConfig()
	cfg.StoreURL = "https://opencti.example.test"
	cfg.StoreToken = "test-token"
	return cfg
}

// TestNewConfig tests that defaults are populated.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.FeedURL != DefaultFeedURL {
		t.Errorf("expected default feed URL, got %q", cfg.FeedURL)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected default timeout, got %v", cfg.Timeout)
	}
	if cfg.PacingDelay != DefaultPacingDelay {
		t.Errorf("expected default pacing delay, got %v", cfg.PacingDelay)
	}
	if cfg.Score != DefaultScore {
		t.Errorf("expected default score, got %d", cfg.Score)
	}
	if cfg.ArtifactFile != DefaultArtifactFile {
		t.Errorf("expected default artifact file, got %q", cfg.ArtifactFile)
	}
	if !cfg.SaveHistory {
		t.Error("expected history saving enabled by default")
	}
}

// TestConfigValidate tests validation rules.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config passes",
			mutate:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "missing feed URL",
			mutate:  func(c *Config) { c.FeedURL = "" },
			wantErr: ErrNoFeedURL,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "negative pacing delay",
			mutate:  func(c *Config) { c.PacingDelay = -time.Second },
			wantErr: ErrInvalidPacingDelay,
		},
		{
			name:    "score above 100",
			mutate:  func(c *Config) { c.Score = 101 },
			wantErr: ErrInvalidScore,
		},
		{
			name:    "empty artifact path",
			mutate:  func(c *Config) { c.ArtifactFile = "" },
			wantErr: ErrNoArtifactPath,
		},
		{
			name:    "missing store URL",
			mutate:  func(c *Config) { c.StoreURL = "" },
			wantErr: ErrNoStoreURL,
		},
		{
			name:    "missing store token",
			mutate:  func(c *Config) { c.StoreToken = "" },
			wantErr: ErrNoStoreToken,
		},
		{
			name: "dry run needs no store credentials",
			mutate: func(c *Config) {
				c.DryRun = true
				c.StoreURL = ""
				c.StoreToken = ""
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
