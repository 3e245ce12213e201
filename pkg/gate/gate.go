// Package gate implements clawforge's Execution Gate (§4.5): a pure
// function from a DoD and its Decision Lock to a full report of every
// structural precondition the session must satisfy before a plan may
// be computed and bound. Unlike the kernel enforcement gate it is
// adapted from, this gate never stops at the first failing check —
// every check in the suite always runs, so the caller always sees the
// complete failure picture, not just the first symptom.
package gate

import (
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifact"
)

const (
	maxGoalLength = 4096
)

// Check is the outcome of one named precondition.
type Check struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Passed      bool   `json:"passed"`
	Reason      string `json:"reason,omitempty"`
}

// Decision is the full report produced by EvaluateExecutionGate.
type Decision struct {
	Passed bool    `json:"passed"`
	Checks []Check `json:"checks"`
}

// EvaluateExecutionGate runs every required check from §4.5 against dod
// and lock and returns the complete report. It never short-circuits:
// every check below always executes and contributes a Check to the
// result, even once an earlier check has already failed.
func EvaluateExecutionGate(dod *artifact.DefinitionOfDone, lock *artifact.DecisionLock) Decision {
	checks := []Check{
		checkDoDIDsMatch(dod, lock),
		checkSessionIDsMatch(dod, lock),
		checkDoDNonEmpty(dod),
		checkAllItemsHaveVerificationMethod(dod),
		checkGoalNonEmptyAndBounded(lock),
		checkAllVerificationMethodsRecognized(dod),
	}

	passed := true
	for _, c := range checks {
		if !c.Passed {
			passed = false
		}
	}
	return Decision{Passed: passed, Checks: checks}
}

func checkDoDIDsMatch(dod *artifact.DefinitionOfDone, lock *artifact.DecisionLock) Check {
	c := Check{ID: "dod_ids_match", Description: "lock.dodId equals dod.dodId"}
	if dod == nil || lock == nil {
		c.Reason = "dod or lock missing"
		return c
	}
	if dod.DoDID != lock.DoDID {
		c.Reason = "lock.dodId does not match dod.dodId"
		return c
	}
	c.Passed = true
	return c
}

func checkSessionIDsMatch(dod *artifact.DefinitionOfDone, lock *artifact.DecisionLock) Check {
	c := Check{ID: "session_ids_match", Description: "lock.sessionId equals dod.sessionId"}
	if dod == nil || lock == nil {
		c.Reason = "dod or lock missing"
		return c
	}
	if dod.SessionID != lock.SessionID {
		c.Reason = "lock.sessionId does not match dod.sessionId"
		return c
	}
	c.Passed = true
	return c
}

func checkDoDNonEmpty(dod *artifact.DefinitionOfDone) Check {
	c := Check{ID: "dod_non_empty", Description: "dod has at least one item"}
	if dod == nil || len(dod.Items) == 0 {
		c.Reason = "dod has no items"
		return c
	}
	c.Passed = true
	return c
}

func checkAllItemsHaveVerificationMethod(dod *artifact.DefinitionOfDone) Check {
	c := Check{ID: "all_items_have_verification_method", Description: "every dod item has a populated verificationMethod"}
	if dod == nil {
		c.Reason = "dod missing"
		return c
	}
	for _, item := range dod.Items {
		if item.VerificationMethod == "" {
			c.Reason = "item " + item.ID + " has no verificationMethod"
			return c
		}
	}
	c.Passed = true
	return c
}

func checkGoalNonEmptyAndBounded(lock *artifact.DecisionLock) Check {
	c := Check{ID: "goal_non_empty_and_bounded", Description: "lock.goal is non-empty and length-bounded"}
	if lock == nil {
		c.Reason = "lock missing"
		return c
	}
	if lock.Goal == "" {
		c.Reason = "goal is empty"
		return c
	}
	if len(lock.Goal) > maxGoalLength {
		c.Reason = "goal exceeds maximum length"
		return c
	}
	c.Passed = true
	return c
}

func checkAllVerificationMethodsRecognized(dod *artifact.DefinitionOfDone) Check {
	c := Check{ID: "all_verification_methods_recognized", Description: "every verification method is a recognized enum value"}
	if dod == nil {
		c.Reason = "dod missing"
		return c
	}
	for _, item := range dod.Items {
		if item.VerificationMethod != "" && !artifact.ValidVerificationMethods[item.VerificationMethod] {
			c.Reason = "item " + item.ID + " has unrecognized verificationMethod " + string(item.VerificationMethod)
			return c
		}
	}
	c.Passed = true
	return c
}
