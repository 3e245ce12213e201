package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/config"
)

// runInitCmd implements `clawctl init`: it creates the host's
// ~/.clawforge directory tree (artifacts/, the sqlite db file, an
// empty profile.yaml) so every other command has somewhere to write.
//
// Exit codes: 0 ok, 2 on fatal I/O error.
func runInitCmd(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	if err := os.MkdirAll(cfg.ArtifactRoot, 0o755); err != nil {
		fmt.Fprintf(stderr, "Error: create artifact root: %v\n", err)
		return 2
	}

	if cfg.DBDriver == "sqlite" || cfg.DBDriver == "" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			fmt.Fprintf(stderr, "Error: create db directory: %v\n", err)
			return 2
		}
	}

	s, err := openAuditStore(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}
	defer s.Close()

	home, _ := os.UserHomeDir()
	profilePath := config.DefaultProfilePath(home)
	if _, err := os.Stat(profilePath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(profilePath), 0o755); err != nil {
			fmt.Fprintf(stderr, "Error: create profile directory: %v\n", err)
			return 2
		}
		stub := "# clawctl host profile — see `clawctl config show`\n"
		if err := os.WriteFile(profilePath, []byte(stub), 0o644); err != nil {
			fmt.Fprintf(stderr, "Error: write profile stub: %v\n", err)
			return 2
		}
	}

	fmt.Fprintf(stdout, "clawctl initialized\n")
	fmt.Fprintf(stdout, "  db:       %s (%s)\n", cfg.DBPath, cfg.DBDriver)
	fmt.Fprintf(stdout, "  artifacts: %s\n", cfg.ArtifactRoot)
	fmt.Fprintf(stdout, "  profile:  %s\n", profilePath)
	return 0
}
