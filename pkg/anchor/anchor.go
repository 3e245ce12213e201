// Package anchor implements clawforge's session anchor validator (§4.9):
// the root artifact binding every hash produced over the life of a
// session, checked field-by-field against the values the caller
// independently expects.
package anchor

import (
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifact"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/clawerr"
)

// Expected carries the values ValidateAnchor checks the anchor against.
// The four optional fields are pointers: a nil field means "no
// expectation supplied", and is skipped rather than compared.
type Expected struct {
	SessionID            string
	PlanHash             string
	LockID               string
	FinalEvidenceHash    string
	FinalAttestationHash *string
	RunnerIdentityHash   *string
	PolicySetHash        *string
	PolicyEvaluationHash *string
}

// ValidateAnchor checks that every supplied expected value equals the
// anchor's corresponding field, and that every anchor-optional field
// with a supplied expectation is present on the anchor. Any mismatch
// returns ANCHOR_INVALID naming the offending field.
func ValidateAnchor(a *artifact.SessionAnchor, exp Expected) *clawerr.Error {
	if a == nil {
		return clawerr.New(clawerr.CodeAnchorInvalid, "anchor is nil")
	}
	if a.SessionID != exp.SessionID {
		return mismatch("sessionId")
	}
	if a.PlanHash != exp.PlanHash {
		return mismatch("planHash")
	}
	if a.LockID != exp.LockID {
		return mismatch("lockId")
	}
	if a.FinalEvidenceHash != exp.FinalEvidenceHash {
		return mismatch("finalEvidenceHash")
	}
	if err := checkOptional("finalAttestationHash", exp.FinalAttestationHash, a.FinalAttestationHash); err != nil {
		return err
	}
	if err := checkOptional("runnerIdentityHash", exp.RunnerIdentityHash, a.RunnerIdentityHash); err != nil {
		return err
	}
	if err := checkOptional("policySetHash", exp.PolicySetHash, a.PolicySetHash); err != nil {
		return err
	}
	if err := checkOptional("policyEvaluationHash", exp.PolicyEvaluationHash, a.PolicyEvaluationHash); err != nil {
		return err
	}
	return nil
}

func checkOptional(field string, expected, actual *string) *clawerr.Error {
	if expected == nil {
		return nil
	}
	if actual == nil {
		return clawerr.Newf(clawerr.CodeAnchorInvalid, "expected %s but anchor has none", field).WithDetail("field", field)
	}
	if *actual != *expected {
		return mismatch(field)
	}
	return nil
}

func mismatch(field string) *clawerr.Error {
	return clawerr.Newf(clawerr.CodeAnchorInvalid, "anchor field %s does not match expected value", field).WithDetail("field", field)
}
