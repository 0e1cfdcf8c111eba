// Package config provides configuration structures and utilities for ctisync.
// It defines defaults for the feed endpoint, knowledge-store connection,
// publish pacing, and artifact output, plus the YAML file loader and
// environment-variable overrides.
package config
