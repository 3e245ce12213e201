package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/config"
)

// runConfigCmd implements `clawctl config show [--json]`.
//
// Exit codes: 0 on success (an unreadable profile file is silently
// treated as "no profile" by config.Load); 2 on a missing or unknown
// subcommand or a flag parse error.
func runConfigCmd(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] != "show" {
		fmt.Fprintln(stderr, "Usage: clawctl config show [--json]")
		return 2
	}

	cmd := flag.NewFlagSet("config show", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var jsonOutput bool
	cmd.BoolVar(&jsonOutput, "json", false, "Output as JSON")
	if err := cmd.Parse(args[1:]); err != nil {
		return 2
	}

	cfg := config.Load()

	if jsonOutput {
		data, _ := json.MarshalIndent(cfg, "", "  ")
		fmt.Fprintln(stdout, string(data))
		return 0
	}

	fmt.Fprintf(stdout, "dbPath:       %s\n", cfg.DBPath)
	fmt.Fprintf(stdout, "dbDriver:     %s\n", cfg.DBDriver)
	fmt.Fprintf(stdout, "artifactRoot: %s\n", cfg.ArtifactRoot)
	if cfg.DefaultActor != "" {
		fmt.Fprintf(stdout, "defaultActor: %s\n", cfg.DefaultActor)
	}
	return 0
}
