package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is clawctl's host profile: the YAML-backed layer beneath the
// environment variables in Load(), repurposed from the teacher's
// regional compliance profile into driver selection, artifact root,
// and default actor.
type Profile struct {
	DBPath       string `yaml:"db_path,omitempty"`
	DBDriver     string `yaml:"db_driver,omitempty"`
	ArtifactRoot string `yaml:"artifact_root,omitempty"`
	DefaultActor string `yaml:"default_actor,omitempty"`
}

// LoadProfile reads and parses the host profile YAML at path. A
// missing file is a normal, expected condition for hosts that run
// entirely off environment variables; callers treat a non-nil error
// from a missing file as "no profile," not as a fatal condition.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load host profile: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("parse host profile %q: %w", path, err)
	}

	return &profile, nil
}
