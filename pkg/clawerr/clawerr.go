// Package clawerr implements the single uniform error carrier used across
// clawforge: a symbolic code from a closed taxonomy, a human-readable
// message, and a structured details map. No package outside clawerr
// defines new error codes; every validator in this module returns one of
// the codes declared here, or no error at all.
package clawerr

import "fmt"

// Code is a symbolic, closed-taxonomy error code.
type Code string

const (
	// Schema validation (one per artifact kind), §4.3.
	CodeDoDSchemaInvalid         Code = "DOD_SCHEMA_INVALID"
	CodeLockSchemaInvalid        Code = "LOCK_SCHEMA_INVALID"
	CodePlanSchemaInvalid        Code = "PLAN_SCHEMA_INVALID"
	CodeEnvelopeSchemaInvalid    Code = "ENVELOPE_SCHEMA_INVALID"
	CodePatchSchemaInvalid       Code = "PATCH_SCHEMA_INVALID"
	CodeEvidenceSchemaInvalid    Code = "EVIDENCE_SCHEMA_INVALID"
	CodeIdentitySchemaInvalid    Code = "IDENTITY_SCHEMA_INVALID"
	CodeAttestationSchemaInvalid Code = "ATTESTATION_SCHEMA_INVALID"
	CodeAnchorSchemaInvalid      Code = "ANCHOR_SCHEMA_INVALID"
	CodeBundleSchemaInvalid      Code = "BUNDLE_SCHEMA_INVALID"
	CodeSignatureSchemaInvalid   Code = "SIGNATURE_SCHEMA_INVALID"
	CodePolicySchemaInvalid      Code = "POLICY_SCHEMA_INVALID"

	// Binding, §4.6/§4.9.
	CodePlanHashMissing       Code = "PLAN_HASH_MISSING"
	CodePlanHashMismatch      Code = "PLAN_HASH_MISMATCH"
	CodeAnchorInvalid         Code = "ANCHOR_INVALID"
	CodeRunnerIdentityInvalid Code = "RUNNER_IDENTITY_INVALID"
	CodePlanReferenceUnknown  Code = "PLAN_REFERENCE_UNKNOWN"
	CodePlanGoalMissing       Code = "PLAN_GOAL_MISSING"

	// Evidence, §4.7.
	CodeEvidenceStepUnknown         Code = "EVIDENCE_STEP_UNKNOWN"
	CodeEvidenceCapUnregistered     Code = "EVIDENCE_CAP_UNREGISTERED"
	CodeEvidenceCapNotAllowed       Code = "EVIDENCE_CAP_NOT_ALLOWED"
	CodeEvidenceHumanConfirmMissing Code = "EVIDENCE_HUMAN_CONFIRM_MISSING"
	CodeEvidenceTypeMismatch        Code = "EVIDENCE_TYPE_MISMATCH"
	CodeEvidenceChainBroken         Code = "EVIDENCE_CHAIN_BROKEN"
	CodeEvidenceDuplicate           Code = "EVIDENCE_DUPLICATE"

	// Attestation / approval, §4.8/§4.10.
	CodeAttestationInvalid      Code = "ATTESTATION_INVALID"
	CodeApprovalSignatureInvalid Code = "APPROVAL_SIGNATURE_INVALID"
	CodeApprovalNonceReplay     Code = "APPROVAL_NONCE_REPLAY"

	// Replay/bundle.
	CodeReplayBundleInvalid Code = "REPLAY_BUNDLE_INVALID"
)

// Error is the one error type clawforge's validators return. It is never
// wrapped in another error type across a package boundary: callers
// type-assert to *Error and switch on Code.
type Error struct {
	Code    Code
	Message string
	Details map[string]interface{}
}

// New creates an Error with no details.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// WithDetail returns a copy of e with a detail key set. Used fluently:
// clawerr.New(...).WithDetail("field", "planHash").
func (e *Error) WithDetail(key string, value interface{}) *Error {
	cp := *e
	cp.Details = make(map[string]interface{}, len(e.Details)+1)
	for k, v := range e.Details {
		cp.Details[k] = v
	}
	cp.Details[key] = value
	return &cp
}

func (e *Error) Error() string {
	if len(e.Details) == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s %v", e.Code, e.Message, e.Details)
}

// Is supports errors.Is(err, clawerr.New(code, "")) by comparing codes
// only; message and details are informational, not identity.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}
