package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifactfs"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/config"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/store"
)

// runPutArtifactCmd implements `clawctl put-artifact --run --file
// [--mime] [--label]`: it copies the given file under the run's
// artifacts/ directory and records the put as an audit event, so
// every artifact landing on disk has a corresponding chain entry.
//
// Exit codes: 0 ok, 1 on missing flags, copy failure, or store error.
func runPutArtifactCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("put-artifact", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var runID, file, mime, label, actor string
	cmd.StringVar(&runID, "run", "", "Run ID (REQUIRED)")
	cmd.StringVar(&file, "file", "", "Path to the source file (REQUIRED)")
	cmd.StringVar(&mime, "mime", "", "MIME type recorded in the audit event")
	cmd.StringVar(&label, "label", "", "Destination filename (defaults to the source basename)")
	cmd.StringVar(&actor, "actor", "", "Actor performing this put")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	if runID == "" || file == "" {
		fmt.Fprintln(stderr, "Error: --run and --file are required")
		return 1
	}

	cfg := config.Load()
	if actor == "" {
		actor = cfg.DefaultActor
	}

	dest, err := artifactfs.PutArtifact(cfg.ArtifactRoot, runID, file, label)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	s, err := openAuditStore(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer s.Close()

	payload, _ := json.Marshal(map[string]string{
		"source": file,
		"dest":   dest,
		"mime":   mime,
	})

	event, err := s.Append(context.Background(), store.NewEventInput{
		RunID: runID, Type: "put-artifact", Actor: actor, Payload: payload,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "artifact stored: %s (event %s, seq %d)\n", dest, event.EventID, event.Seq)
	return 0
}
