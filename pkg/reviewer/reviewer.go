// Package reviewer implements clawforge's reviewer orchestrator (§4.12):
// an ordered sequence of reviewer roles, each owning a set of rules
// expressed as CEL boolean expressions evaluated against a flattened
// view of the envelope, patch, DoD, and lock. The CEL program cache
// follows the teacher's CELPolicyEvaluator: compile once per
// expression, cache the compiled program, and re-evaluate the cached
// program against each new input document.
package reviewer

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	"github.com/google/cel-go/ext"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifact"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/symbols"
)

// Role is one of the fixed, ordered reviewer roles.
type Role string

const (
	RoleStatic     Role = "static"
	RoleSecurity   Role = "security"
	RoleQA         Role = "qa"
	RoleE2E        Role = "e2e"
	RoleAutomation Role = "automation"
)

// RoleOrder is the fixed evaluation order of §4.12.
var RoleOrder = []Role{RoleStatic, RoleSecurity, RoleQA, RoleE2E, RoleAutomation}

// Rule is one named CEL boolean expression owned by a role.
type Rule struct {
	ID         string
	Role       Role
	Expression string
}

// Report is the outcome of evaluating every rule for one role.
type Report struct {
	Role       Role     `json:"role"`
	Passed     bool     `json:"passed"`
	Violations []string `json:"violations,omitempty"`
}

// State is the per-step reviewer state machine's current value.
type State string

const (
	StatePending State = "pending"
)

// StepState names the terminal or in-progress state of one step's
// review, mirroring §4.12's Pending → Reviewing(role) → Approved |
// Rejected(role, violations) machine.
type StepState struct {
	State      string   `json:"state"` // "pending" | "reviewing" | "approved" | "rejected"
	Role       Role     `json:"role,omitempty"`
	Violations []string `json:"violations,omitempty"`
}

// Registry compiles and caches CEL programs for a fixed rule set, the
// same caching shape as the teacher's CELPolicyEvaluator.
type Registry struct {
	env   *cel.Env
	rules []Rule

	mu       sync.RWMutex
	prgCache map[string]cel.Program
}

// NewRegistry builds a Registry over rules using a CEL environment with
// a single dynamic "input" variable. The strings extension is enabled
// so rules can use string.contains() to test patch text and similar
// free-form fields.
func NewRegistry(rules []Rule) (*Registry, error) {
	env, err := cel.NewEnv(cel.Variable("input", cel.DynType), ext.Strings())
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	return &Registry{
		env:      env,
		rules:    rules,
		prgCache: make(map[string]cel.Program),
	}, nil
}

func (r *Registry) program(expr string) (cel.Program, error) {
	r.mu.RLock()
	prg, hit := r.prgCache[expr]
	r.mu.RUnlock()
	if hit {
		return prg, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prg, hit = r.prgCache[expr]; hit {
		return prg, nil
	}

	ast, issues := r.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	p, err := r.env.Program(ast, cel.InterruptCheckFrequency(100), cel.CostLimit(10000))
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	r.prgCache[expr] = p
	return p, nil
}

// Input is the flattened document a rule's CEL expression is evaluated
// against: {envelope, patch, dod, lock, plan}, plus precomputed
// path/symbol extraction results the static/security rules rely on
// (C11). Plan is included alongside envelope because the security
// role's forbidden-action and allowed-capability checks (§4.12) are
// properties of the plan, not the envelope.
type Input struct {
	Envelope     *artifact.StepEnvelope     `json:"envelope"`
	Patch        *artifact.PatchArtifact    `json:"patch"`
	DoD          *artifact.DefinitionOfDone `json:"dod"`
	Lock         *artifact.DecisionLock     `json:"lock"`
	Plan         *artifact.ExecutionPlan    `json:"plan"`
	ChangedPaths []string                   `json:"changedPaths"`
	PatchText    string                     `json:"patchText"`
}

// BuildInput flattens the five artifacts into the document rules
// evaluate against, extracting changed paths from each file change's
// unified diff via C11.
func BuildInput(envelope *artifact.StepEnvelope, patch *artifact.PatchArtifact, dod *artifact.DefinitionOfDone, lock *artifact.DecisionLock, plan *artifact.ExecutionPlan) Input {
	var changedPaths []string
	var patchText string
	for _, fc := range patch.FileChanges {
		changedPaths = append(changedPaths, symbols.ExtractPaths(fc.UnifiedDiff)...)
		patchText += fc.UnifiedDiff + "\n"
	}
	return Input{
		Envelope:     envelope,
		Patch:        patch,
		DoD:          dod,
		Lock:         lock,
		Plan:         plan,
		ChangedPaths: changedPaths,
		PatchText:    patchText,
	}
}

func toCELInput(in Input) map[string]interface{} {
	return map[string]interface{}{
		"input": map[string]interface{}{
			"envelope":     toMap(in.Envelope),
			"patch":        toMap(in.Patch),
			"dod":          toMap(in.DoD),
			"lock":         toMap(in.Lock),
			"plan":         toMap(in.Plan),
			"changedPaths": toInterfaceSlice(in.ChangedPaths),
			"patchText":    in.PatchText,
		},
	}
}

// toMap converts v to a plain map[string]interface{} via a JSON
// round-trip so CEL can address its fields dynamically; nil inputs
// become an empty map rather than a typed nil.
func toMap(v interface{}) map[string]interface{} {
	if v == nil {
		return map[string]interface{}{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return map[string]interface{}{}
	}
	return m
}

func toInterfaceSlice(xs []string) []interface{} {
	out := make([]interface{}, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}

// EvaluateRole runs every rule owned by role against in, evaluating
// every rule (not stopping at the first failure) so the caller sees
// every violation within that role.
func (r *Registry) EvaluateRole(role Role, in Input) (Report, error) {
	doc := toCELInput(in)
	report := Report{Role: role, Passed: true}
	for _, rule := range r.rules {
		if rule.Role != role {
			continue
		}
		prg, err := r.program(rule.Expression)
		if err != nil {
			return Report{}, err
		}
		out, _, err := prg.Eval(doc)
		passed := false
		if err == nil {
			if b, ok := out.Value().(bool); ok {
				passed = b
			}
		}
		if !passed {
			report.Passed = false
			report.Violations = append(report.Violations, rule.ID)
		}
	}
	return report, nil
}

// Orchestrate runs each role in RoleOrder, stopping at the first
// failing role per §4.12: the failing role's report (with all its
// violations) is returned alongside every report collected so far. On
// full success, a report for every role is returned.
func (r *Registry) Orchestrate(in Input) ([]Report, error) {
	var reports []Report
	for _, role := range RoleOrder {
		report, err := r.EvaluateRole(role, in)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
		if !report.Passed {
			return reports, nil
		}
	}
	return reports, nil
}

// DeriveStepState reduces an Orchestrate() result into the §4.12 step
// state machine value: Approved if every role passed, or
// Rejected(role, violations) at the first failing role.
func DeriveStepState(reports []Report) StepState {
	for _, r := range reports {
		if !r.Passed {
			return StepState{State: "rejected", Role: r.Role, Violations: r.Violations}
		}
	}
	return StepState{State: "approved"}
}

// DefaultRules is the indicative reviewer rule set of §4.12, one or more
// rules per role. Every expression is defensive against a null list
// field (a field whose Go value was a nil slice, which marshals to JSON
// null rather than an empty array) so an artifact that simply omits an
// optional list does not fail CEL evaluation outright.
var DefaultRules = []Rule{
	{
		ID:         "static.changed_paths_within_allowed_paths",
		Role:       RoleStatic,
		Expression: `input.envelope.allowedPaths != null && input.changedPaths.all(p, p in input.envelope.allowedPaths)`,
	},
	{
		ID:         "security.no_forbidden_action_in_patch_text",
		Role:       RoleSecurity,
		Expression: `input.plan.forbiddenActions == null || input.plan.forbiddenActions.all(a, !input.patchText.contains(a))`,
	},
	{
		ID:         "security.envelope_capabilities_within_plan_capabilities",
		Role:       RoleSecurity,
		Expression: `input.envelope.allowedCapabilities == null || input.plan.allowedCapabilities == null || input.envelope.allowedCapabilities.all(c, c in input.plan.allowedCapabilities)`,
	},
	{
		ID:         "qa.expected_evidence_type_matches_referenced_items",
		Role:       RoleQA,
		Expression: `input.envelope.referencedDoDItems.all(id, input.dod.items.exists(item, item.id == id && item.verificationMethod == input.envelope.expectedEvidenceType))`,
	},
	{
		ID:         "e2e.step_exists_with_nonempty_references",
		Role:       RoleE2E,
		Expression: `input.plan.steps.exists(s, s.stepId == input.envelope.stepId && size(s.references) > 0)`,
	},
	{
		ID:         "automation.lock_and_session_ids_match",
		Role:       RoleAutomation,
		Expression: `input.envelope.lockId == input.lock.lockId && input.envelope.sessionId == input.lock.sessionId && input.envelope.sessionId == input.dod.sessionId`,
	},
}

// DefaultRegistry is the production reviewer Registry, wired into
// cmd/clawctl's review-step command. NewRegistry only fails on CEL
// environment construction, which is independent of the rule set, so
// building it from the fixed DefaultRules literal cannot fail in
// practice.
var DefaultRegistry, _ = NewRegistry(DefaultRules)
