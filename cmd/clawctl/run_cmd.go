package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/config"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/store"
)

// runNewRunCmd implements `clawctl new-run [--run] [--actor] [--host]
// [--correlation] [--meta]`: it appends the first event (type
// "new-run") to a fresh run's audit chain, generating a run id if one
// was not given.
//
// Exit codes: 0 ok, 1 on store error.
func runNewRunCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("new-run", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var runID, actor, host, correlation, meta string
	cmd.StringVar(&runID, "run", "", "Run ID (generated if omitted)")
	cmd.StringVar(&actor, "actor", "", "Actor initiating the run")
	cmd.StringVar(&host, "host", "", "Host identifier")
	cmd.StringVar(&correlation, "correlation", "", "Correlation ID")
	cmd.StringVar(&meta, "meta", "", "Free-form JSON metadata payload")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	if runID == "" {
		runID = uuid.New().String()
	}

	cfg := config.Load()
	if actor == "" {
		actor = cfg.DefaultActor
	}

	s, err := openAuditStore(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer s.Close()

	payload, err := metaPayload(meta)
	if err != nil {
		fmt.Fprintf(stderr, "Error: --meta is not valid JSON: %v\n", err)
		return 1
	}

	event, err := s.Append(context.Background(), store.NewEventInput{
		RunID: runID, Type: "new-run", Actor: actor, Host: host, Correlation: correlation, Payload: payload,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "run %s started (event %s, seq %d)\n", runID, event.EventID, event.Seq)
	return 0
}

// runAppendEventCmd implements `clawctl append-event --run --event`.
//
// Exit codes: 0 ok, 1 on missing flags or store error.
func runAppendEventCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("append-event", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var runID, eventType, actor, host, correlation, meta string
	cmd.StringVar(&runID, "run", "", "Run ID (REQUIRED)")
	cmd.StringVar(&eventType, "event", "", "Event type (REQUIRED)")
	cmd.StringVar(&actor, "actor", "", "Actor performing this event")
	cmd.StringVar(&host, "host", "", "Host identifier")
	cmd.StringVar(&correlation, "correlation", "", "Correlation ID")
	cmd.StringVar(&meta, "meta", "", "Free-form JSON metadata payload")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	if runID == "" || eventType == "" {
		fmt.Fprintln(stderr, "Error: --run and --event are required")
		return 1
	}

	cfg := config.Load()
	if actor == "" {
		actor = cfg.DefaultActor
	}

	s, err := openAuditStore(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer s.Close()

	payload, err := metaPayload(meta)
	if err != nil {
		fmt.Fprintf(stderr, "Error: --meta is not valid JSON: %v\n", err)
		return 1
	}

	event, err := s.Append(context.Background(), store.NewEventInput{
		RunID: runID, Type: eventType, Actor: actor, Host: host, Correlation: correlation, Payload: payload,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "event appended: %s (seq %d)\n", event.EventID, event.Seq)
	return 0
}

// runListEventsCmd implements `clawctl list-events --run [--json]`.
//
// Exit codes: 0 ok, 1 on missing flag or store error.
func runListEventsCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("list-events", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var runID string
	var jsonOutput bool
	cmd.StringVar(&runID, "run", "", "Run ID (REQUIRED)")
	cmd.BoolVar(&jsonOutput, "json", false, "Output as JSON")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if runID == "" {
		fmt.Fprintln(stderr, "Error: --run is required")
		return 1
	}

	cfg := config.Load()
	s, err := openAuditStore(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer s.Close()

	events, err := s.List(context.Background(), runID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(events, "", "  ")
		fmt.Fprintln(stdout, string(data))
		return 0
	}

	for _, e := range events {
		fmt.Fprintf(stdout, "%d  %s  %-16s %s\n", e.Seq, e.Timestamp.Format("2006-01-02T15:04:05Z07:00"), e.Type, e.EventID)
	}
	return 0
}

// runVerifyRunCmd implements `clawctl verify-run --run [--json]`.
//
// Exit codes: 0 ok, 1 on missing flag or store error, 3 on a broken
// chain (the "evidence/lint/review failure" exit code per §6's gate
// table — an audit chain break is the host-level analogue).
func runVerifyRunCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("verify-run", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var runID string
	var jsonOutput bool
	cmd.StringVar(&runID, "run", "", "Run ID (REQUIRED)")
	cmd.BoolVar(&jsonOutput, "json", false, "Output as JSON")
	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if runID == "" {
		fmt.Fprintln(stderr, "Error: --run is required")
		return 1
	}

	cfg := config.Load()
	s, err := openAuditStore(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer s.Close()

	events, err := s.List(context.Background(), runID)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	failures := store.VerifyChain(events)

	if jsonOutput {
		result := map[string]interface{}{
			"run":      runID,
			"verified": len(failures) == 0,
			"failures": failures,
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(stdout, string(data))
	} else if len(failures) == 0 {
		fmt.Fprintf(stdout, "run %s: chain verified (%d events)\n", runID, len(events))
	} else {
		fmt.Fprintf(stdout, "run %s: chain verification FAILED\n", runID)
		for _, f := range failures {
			fmt.Fprintf(stdout, "  - %s\n", f.Error())
		}
	}

	if len(failures) > 0 {
		return 3
	}
	return 0
}

func metaPayload(meta string) (json.RawMessage, error) {
	if meta == "" {
		return nil, nil
	}
	var probe interface{}
	if err := json.Unmarshal([]byte(meta), &probe); err != nil {
		return nil, err
	}
	return json.RawMessage(meta), nil
}
