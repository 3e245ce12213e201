// Package evidence implements clawforge's evidence validator and chain
// verifier (§4.7): the per-item structural/contextual checks a runner's
// evidence record must pass, the hash-chain invariant linking
// consecutive evidence items, and the derivation of whether a session
// has completed.
package evidence

import (
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifact"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/canonicalize"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/capability"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/clawerr"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/gate"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/validate"
)

// ValidateEvidence runs the eight per-evidence checks of §4.7 against a
// single evidence record in the context of plan, dod, the previously
// recorded evidence ids (for duplicate detection), and registry (C4).
func ValidateEvidence(ev *artifact.RunnerEvidence, plan *artifact.ExecutionPlan, dod *artifact.DefinitionOfDone, recorded map[string]bool, registry *capability.Registry) *clawerr.Error {
	if err := validate.ValidateEvidence(ev); err != nil {
		return err
	}

	step, ok := plan.StepByID(ev.StepID)
	if !ok {
		return clawerr.Newf(clawerr.CodeEvidenceStepUnknown, "stepId %q not found in plan", ev.StepID)
	}

	if ev.SessionID != plan.SessionID {
		return clawerr.New(clawerr.CodeEvidenceSchemaInvalid, "evidence sessionId does not match plan sessionId").
			WithDetail("field", "sessionId")
	}

	if recorded[ev.EvidenceID] {
		return clawerr.Newf(clawerr.CodeEvidenceDuplicate, "evidenceId %q already recorded", ev.EvidenceID)
	}

	if !registry.IsRegistered(ev.CapabilityUsed) {
		return clawerr.Newf(clawerr.CodeEvidenceCapUnregistered, "capability %q is not registered", ev.CapabilityUsed)
	}
	if len(plan.AllowedCapabilities) > 0 && !contains(plan.AllowedCapabilities, ev.CapabilityUsed) {
		return clawerr.Newf(clawerr.CodeEvidenceCapNotAllowed, "capability %q is not in plan.allowedCapabilities", ev.CapabilityUsed)
	}
	if len(step.RequiredCapabilities) > 0 && !contains(step.RequiredCapabilities, ev.CapabilityUsed) {
		return clawerr.Newf(clawerr.CodeEvidenceCapNotAllowed, "capability %q is not in step.requiredCapabilities", ev.CapabilityUsed)
	}

	if registry.RequiresHumanConfirmation(ev.CapabilityUsed) && ev.HumanConfirmationProof == "" {
		return clawerr.Newf(clawerr.CodeEvidenceHumanConfirmMissing, "capability %q requires a human confirmation proof", ev.CapabilityUsed)
	}

	if len(step.References) == 0 {
		return clawerr.New(clawerr.CodeEvidenceTypeMismatch, "step references no DoD items").WithDetail("stepId", ev.StepID)
	}
	matched, err := matchesAnyReferencedItem(ev, &step, dod)
	if err != nil {
		return err
	}
	if !matched {
		return clawerr.New(clawerr.CodeEvidenceTypeMismatch, "evidenceType does not match any referenced DoD item's verificationMethod")
	}

	return nil
}

// matchesAnyReferencedItem reports whether ev.EvidenceType equals the
// verificationMethod of at least one DoD item named in step.References,
// per check 7 of §4.7. A reference that does not resolve against dod
// is rejected outright rather than skipped, so a step mixing a valid
// and a bogus DoD reference cannot pass by matching on the valid one
// alone.
func matchesAnyReferencedItem(ev *artifact.RunnerEvidence, step *artifact.PlanStep, dod *artifact.DefinitionOfDone) (bool, *clawerr.Error) {
	matched := false
	for _, ref := range step.References {
		item, ok := dod.ItemByID(ref)
		if !ok {
			return false, clawerr.Newf(clawerr.CodePlanReferenceUnknown, "step %q references unknown DoD item %q", step.StepID, ref).
				WithDetail("field", "steps[].references")
		}
		if item.VerificationMethod == ev.EvidenceType {
			matched = true
		}
	}
	return matched, nil
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}

// VerifyChain checks the hash-chain invariant across evidence, ordered
// by stored position: the first item's prevEvidenceHash must be nil,
// each subsequent item's prevEvidenceHash must equal the previous
// item's evidenceHash, each item's own evidenceHash must equal
// SHA256HexOf(evidence minus evidenceHash), and every item's planHash
// must equal planHash.
func VerifyChain(items []artifact.RunnerEvidence, planHash string) *clawerr.Error {
	var prevHash *string
	for i, ev := range items {
		if ev.PlanHash != planHash {
			return clawerr.Newf(clawerr.CodeEvidenceChainBroken, "evidence %d has planHash that does not match the session plan hash", i)
		}

		if i == 0 {
			if ev.PrevEvidenceHash != nil {
				return clawerr.New(clawerr.CodeEvidenceChainBroken, "first evidence item must have a nil prevEvidenceHash")
			}
		} else {
			if ev.PrevEvidenceHash == nil || prevHash == nil || *ev.PrevEvidenceHash != *prevHash {
				return clawerr.Newf(clawerr.CodeEvidenceChainBroken, "evidence %d prevEvidenceHash does not match previous evidenceHash", i)
			}
		}

		computed, err := computeEvidenceHash(ev)
		if err != nil {
			return clawerr.New(clawerr.CodeEvidenceChainBroken, "failed to compute evidence hash: "+err.Error())
		}
		if computed != ev.EvidenceHash {
			return clawerr.Newf(clawerr.CodeEvidenceChainBroken, "evidence %d evidenceHash does not match its own content", i)
		}

		hash := ev.EvidenceHash
		prevHash = &hash
	}
	return nil
}

// computeEvidenceHash recomputes ev.EvidenceHash as
// SHA256HexOf(evidence minus evidenceHash), per §4.7's chain
// invariant. The field is cleared on a copy so the receiver's own
// stored hash never participates in its own computation.
func computeEvidenceHash(ev artifact.RunnerEvidence) (string, error) {
	ev.EvidenceHash = ""
	return canonicalize.SHA256HexOf(ev)
}

// DerivedCompletion computes §4.7's completion derivation:
// gatePassed ∧ every step has at least one validated evidence item.
// validatedStepIDs is the set of step ids with at least one evidence
// item that has already passed ValidateEvidence.
func DerivedCompletion(gateDecision gate.Decision, plan *artifact.ExecutionPlan, validatedStepIDs map[string]bool) bool {
	if !gateDecision.Passed {
		return false
	}
	for _, step := range plan.Steps {
		if !validatedStepIDs[step.StepID] {
			return false
		}
	}
	return true
}
