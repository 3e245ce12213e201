// Package config layers clawforge's environment variables over an
// optional YAML host profile file, the same two-layer shape as the
// teacher's env-based Load() plus its YAML-backed profile loader.
package config

import (
	"os"
	"path/filepath"
)

// Config is clawctl's resolved host configuration.
type Config struct {
	DBPath       string
	DBDriver     string
	ArtifactRoot string
	DefaultActor string
}

const (
	envDBPath       = "CLAWFORGE_DB_PATH"
	envArtifactRoot = "CLAWFORGE_ARTIFACT_ROOT"
	envDBDriver     = "CLAWFORGE_DB_DRIVER"

	defaultDBDriver = "sqlite"
)

// Load resolves Config from environment variables, applying the
// defaults `~/.clawforge/db.sqlite` and `~/.clawforge/artifacts/` when
// unset, then layers an optional host profile (see LoadProfile) on top
// for any field the profile sets and the environment didn't.
func Load() *Config {
	home, _ := os.UserHomeDir()
	defaultDBPath := filepath.Join(home, ".clawforge", "db.sqlite")
	defaultArtifactRoot := filepath.Join(home, ".clawforge", "artifacts")

	cfg := &Config{
		DBPath:       getEnvOrDefault(envDBPath, defaultDBPath),
		DBDriver:     getEnvOrDefault(envDBDriver, defaultDBDriver),
		ArtifactRoot: getEnvOrDefault(envArtifactRoot, defaultArtifactRoot),
	}

	if profile, err := LoadProfile(DefaultProfilePath(home)); err == nil {
		cfg.applyProfile(profile)
	}

	return cfg
}

// applyProfile fills in any field the environment left at its default
// with the profile's value; an explicit environment variable always
// wins over the profile.
func (c *Config) applyProfile(p *Profile) {
	if os.Getenv(envDBPath) == "" && p.DBPath != "" {
		c.DBPath = p.DBPath
	}
	if os.Getenv(envDBDriver) == "" && p.DBDriver != "" {
		c.DBDriver = p.DBDriver
	}
	if os.Getenv(envArtifactRoot) == "" && p.ArtifactRoot != "" {
		c.ArtifactRoot = p.ArtifactRoot
	}
	if p.DefaultActor != "" {
		c.DefaultActor = p.DefaultActor
	}
}

func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// DefaultProfilePath returns the conventional profile location under
// the given home directory.
func DefaultProfilePath(home string) string {
	return filepath.Join(home, ".clawforge", "profile.yaml")
}
