package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifact"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifactfs"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/config"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/reviewer"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/store"
)

// runReviewStepCmd implements `clawctl review-step --run --step
// --envelope --patch --dod --lock --plan [--json]`: it reads the five
// artifact files named on the command line, runs C12's
// reviewer.DefaultRegistry over them in §4.12's fixed role order, and
// persists each role's report under the run's reviewer-reports/
// directory (pkg/artifactfs.WriteReviewerReport).
//
// Exit codes: 0 approved; 1 missing flags or unreadable/malformed
// input; 3 rejected by a reviewer role, per §6's exit-code table.
func runReviewStepCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("review-step", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var runID, stepID, envelopePath, patchPath, dodPath, lockPath, planPath, actor string
	var jsonOutput bool
	cmd.StringVar(&runID, "run", "", "Run ID (REQUIRED)")
	cmd.StringVar(&stepID, "step", "", "Step ID being reviewed (REQUIRED)")
	cmd.StringVar(&envelopePath, "envelope", "", "Path to the step envelope JSON file (REQUIRED)")
	cmd.StringVar(&patchPath, "patch", "", "Path to the patch artifact JSON file (REQUIRED)")
	cmd.StringVar(&dodPath, "dod", "", "Path to the Definition of Done JSON file (REQUIRED)")
	cmd.StringVar(&lockPath, "lock", "", "Path to the decision lock JSON file (REQUIRED)")
	cmd.StringVar(&planPath, "plan", "", "Path to the execution plan JSON file (REQUIRED)")
	cmd.StringVar(&actor, "actor", "", "Actor performing this review")
	cmd.BoolVar(&jsonOutput, "json", false, "Output the reviewer reports as JSON")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	if runID == "" || stepID == "" || envelopePath == "" || patchPath == "" || dodPath == "" || lockPath == "" || planPath == "" {
		fmt.Fprintln(stderr, "Error: --run, --step, --envelope, --patch, --dod, --lock, and --plan are required")
		return 1
	}

	var envelope artifact.StepEnvelope
	var patch artifact.PatchArtifact
	var dod artifact.DefinitionOfDone
	var lock artifact.DecisionLock
	var plan artifact.ExecutionPlan
	for _, f := range []struct {
		path string
		out  interface{}
	}{
		{envelopePath, &envelope},
		{patchPath, &patch},
		{dodPath, &dod},
		{lockPath, &lock},
		{planPath, &plan},
	} {
		data, err := os.ReadFile(f.path)
		if err != nil {
			fmt.Fprintf(stderr, "Error: cannot read %s: %v\n", f.path, err)
			return 1
		}
		if err := json.Unmarshal(data, f.out); err != nil {
			fmt.Fprintf(stderr, "Error: malformed JSON in %s: %v\n", f.path, err)
			return 1
		}
	}

	in := reviewer.BuildInput(&envelope, &patch, &dod, &lock, &plan)
	reports, err := reviewer.DefaultRegistry.Orchestrate(in)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	state := reviewer.DeriveStepState(reports)

	cfg := config.Load()
	if actor == "" {
		actor = cfg.DefaultActor
	}
	if _, err := artifactfs.EnsureRunDir(cfg.ArtifactRoot, runID); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	for _, report := range reports {
		if err := artifactfs.WriteReviewerReport(cfg.ArtifactRoot, runID, stepID, string(report.Role), report); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	s, err := openAuditStore(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer s.Close()

	payload, _ := json.Marshal(map[string]interface{}{"stepId": stepID, "state": state})
	if _, err := s.Append(context.Background(), store.NewEventInput{
		RunID: runID, Type: "review-step", Actor: actor, Payload: payload,
	}); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if jsonOutput {
		data, _ := json.MarshalIndent(map[string]interface{}{"stepId": stepID, "state": state, "reports": reports}, "", "  ")
		fmt.Fprintln(stdout, string(data))
	} else if state.State == "approved" {
		fmt.Fprintf(stdout, "approved: step %s\n", stepID)
	} else {
		fmt.Fprintf(stdout, "rejected: step %s at role %s: %v\n", stepID, state.Role, state.Violations)
	}

	if state.State != "approved" {
		return 3
	}
	return 0
}
