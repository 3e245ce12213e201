// Package planbind implements clawforge's plan-hash binding (§4.6): a
// content hash over the execution plan that the decision lock must
// carry once a plan exists, so a plan cannot be silently swapped after
// the lock was signed.
package planbind

import (
	"bytes"
	"encoding/json"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifact"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/canonicalize"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/clawerr"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/gate"
)

// ComputePlanHash returns SHA256HexOf(normalize(plan)). The whole plan is
// its own identity; no field is stripped before hashing.
func ComputePlanHash(plan *artifact.ExecutionPlan) (string, error) {
	return canonicalize.SHA256HexOf(plan)
}

// ValidatePlanHashBinding recomputes the plan hash and checks it against
// lock.PlanHash, returning PLAN_HASH_MISSING if the lock carries no
// plan hash yet, or PLAN_HASH_MISMATCH if the computed hash disagrees
// with the stored one.
func ValidatePlanHashBinding(plan *artifact.ExecutionPlan, lock *artifact.DecisionLock) *clawerr.Error {
	if lock.PlanHash == nil {
		return clawerr.New(clawerr.CodePlanHashMissing, "decision lock has no bound planHash")
	}
	computed, err := ComputePlanHash(plan)
	if err != nil {
		return clawerr.New(clawerr.CodePlanHashMismatch, "failed to compute plan hash: "+err.Error())
	}
	if computed != *lock.PlanHash {
		return clawerr.New(clawerr.CodePlanHashMismatch, "computed plan hash does not match lock.planHash").
			WithDetail("computed", computed).
			WithDetail("stored", *lock.PlanHash)
	}
	return nil
}

// ValidatePlanSanity checks the two cross-artifact plan invariants of
// §3 that ValidatePlan cannot check on its own because they require
// the DoD and lock: every step's references[] entries must name an
// existing DoD item, and the plan's JSON must literally contain the
// lock's goal string.
func ValidatePlanSanity(plan *artifact.ExecutionPlan, dod *artifact.DefinitionOfDone, lock *artifact.DecisionLock) *clawerr.Error {
	for _, step := range plan.Steps {
		for _, ref := range step.References {
			if _, ok := dod.ItemByID(ref); !ok {
				return clawerr.Newf(clawerr.CodePlanReferenceUnknown, "step %q references unknown DoD item %q", step.StepID, ref).
					WithDetail("field", "steps[].references")
			}
		}
	}

	planJSON, err := json.Marshal(plan)
	if err != nil {
		return clawerr.New(clawerr.CodePlanSchemaInvalid, "failed to marshal plan: "+err.Error())
	}
	if !bytes.Contains(planJSON, []byte(lock.Goal)) {
		return clawerr.New(clawerr.CodePlanGoalMissing, "plan JSON does not contain the lock's goal text").
			WithDetail("field", "goal")
	}
	return nil
}

// EvaluatePlanSanityThenGate runs ValidatePlanSanity first and only
// evaluates the execution gate if it passes — the ordering the "goal
// missing" scenario requires: plan sanity fails before the gate runs,
// not after.
func EvaluatePlanSanityThenGate(plan *artifact.ExecutionPlan, dod *artifact.DefinitionOfDone, lock *artifact.DecisionLock) (gate.Decision, *clawerr.Error) {
	if err := ValidatePlanSanity(plan, dod, lock); err != nil {
		return gate.Decision{}, err
	}
	return gate.EvaluateExecutionGate(dod, lock), nil
}
