// Package validate implements clawforge's schema validators (§4.3): one
// hand-written, structural-only function per artifact kind. These never
// reach for a runtime schema library or reflection — every field is
// checked with a regex, an enum-membership test, or a length/arity
// bound. Cross-artifact checks (does this lock's dodId match that DoD's
// dodId?) are explicitly out of scope here; they live in the gate,
// planbind, evidence, anchor, and approval packages.
package validate

import (
	"regexp"
	"time"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifact"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/clawerr"
)

var (
	uuidRE   = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)
	sha256RE = regexp.MustCompile(`^[0-9a-f]{64}$`)
	pemRE    = regexp.MustCompile(`(?s)^-----BEGIN [A-Z0-9 ]+-----.*-----END [A-Z0-9 ]+-----\s*$`)
	hexKeyRE = regexp.MustCompile(`^[0-9a-f]+$`)
)

// IsUUIDv4 reports whether s is a lowercase-rendered version-4 UUID.
func IsUUIDv4(s string) bool { return uuidRE.MatchString(s) }

// IsSHA256Hex reports whether s is a 64-character lowercase hex digest.
func IsSHA256Hex(s string) bool { return sha256RE.MatchString(s) }

// IsPublicKey reports whether s looks like a PEM block or a raw hex key,
// per §3's "PEM or hex" for RunnerIdentity.RunnerPublicKey.
func IsPublicKey(s string) bool {
	if s == "" {
		return false
	}
	return pemRE.MatchString(s) || hexKeyRE.MatchString(s)
}

const (
	maxGoalLength        = 4096
	maxDescriptionLength = 4096
	maxIDLength          = 256
)

// ValidateDoD performs structural validation of a DefinitionOfDone.
func ValidateDoD(d *artifact.DefinitionOfDone) *clawerr.Error {
	if d == nil {
		return clawerr.New(clawerr.CodeDoDSchemaInvalid, "dod is nil")
	}
	if !IsUUIDv4(d.DoDID) {
		return clawerr.New(clawerr.CodeDoDSchemaInvalid, "dodId is not a UUIDv4").WithDetail("field", "dodId")
	}
	if !IsUUIDv4(d.SessionID) {
		return clawerr.New(clawerr.CodeDoDSchemaInvalid, "sessionId is not a UUIDv4").WithDetail("field", "sessionId")
	}
	if len(d.Items) == 0 {
		return clawerr.New(clawerr.CodeDoDSchemaInvalid, "items must be non-empty").WithDetail("field", "items")
	}
	seen := make(map[string]bool, len(d.Items))
	for i, item := range d.Items {
		if item.ID == "" || len(item.ID) > maxIDLength {
			return clawerr.Newf(clawerr.CodeDoDSchemaInvalid, "item %d has invalid id", i).WithDetail("field", "items[].id")
		}
		if seen[item.ID] {
			return clawerr.Newf(clawerr.CodeDoDSchemaInvalid, "duplicate item id %q", item.ID).WithDetail("field", "items[].id")
		}
		seen[item.ID] = true
		if len(item.Description) > maxDescriptionLength {
			return clawerr.Newf(clawerr.CodeDoDSchemaInvalid, "item %q description too long", item.ID).WithDetail("field", "items[].description")
		}
		if item.VerificationMethod == "" {
			return clawerr.Newf(clawerr.CodeDoDSchemaInvalid, "item %q missing verificationMethod", item.ID).WithDetail("field", "items[].verificationMethod")
		}
		if !artifact.ValidVerificationMethods[item.VerificationMethod] {
			return clawerr.Newf(clawerr.CodeDoDSchemaInvalid, "item %q has unrecognized verificationMethod %q", item.ID, item.VerificationMethod).WithDetail("field", "items[].verificationMethod")
		}
	}
	return nil
}

// ValidateLock performs structural validation of a DecisionLock.
func ValidateLock(l *artifact.DecisionLock) *clawerr.Error {
	if l == nil {
		return clawerr.New(clawerr.CodeLockSchemaInvalid, "lock is nil")
	}
	if !IsUUIDv4(l.LockID) {
		return clawerr.New(clawerr.CodeLockSchemaInvalid, "lockId is not a UUIDv4").WithDetail("field", "lockId")
	}
	if !IsUUIDv4(l.SessionID) {
		return clawerr.New(clawerr.CodeLockSchemaInvalid, "sessionId is not a UUIDv4").WithDetail("field", "sessionId")
	}
	if !IsUUIDv4(l.DoDID) {
		return clawerr.New(clawerr.CodeLockSchemaInvalid, "dodId is not a UUIDv4").WithDetail("field", "dodId")
	}
	if l.Goal == "" || len(l.Goal) > maxGoalLength {
		return clawerr.New(clawerr.CodeLockSchemaInvalid, "goal must be non-empty and length-bounded").WithDetail("field", "goal")
	}
	if l.PlanHash != nil && !IsSHA256Hex(*l.PlanHash) {
		return clawerr.New(clawerr.CodeLockSchemaInvalid, "planHash is not a valid sha256 hex digest").WithDetail("field", "planHash")
	}
	return nil
}

// ValidatePlan performs structural validation of an ExecutionPlan.
func ValidatePlan(p *artifact.ExecutionPlan) *clawerr.Error {
	if p == nil {
		return clawerr.New(clawerr.CodePlanSchemaInvalid, "plan is nil")
	}
	if !IsUUIDv4(p.SessionID) || !IsUUIDv4(p.DoDID) || !IsUUIDv4(p.LockID) {
		return clawerr.New(clawerr.CodePlanSchemaInvalid, "sessionId/dodId/lockId must be UUIDv4").WithDetail("field", "sessionId|dodId|lockId")
	}
	if len(p.Steps) == 0 {
		return clawerr.New(clawerr.CodePlanSchemaInvalid, "steps must be non-empty").WithDetail("field", "steps")
	}
	if len(p.ForbiddenActions) == 0 {
		return clawerr.New(clawerr.CodePlanSchemaInvalid, "forbiddenActions must be non-empty").WithDetail("field", "forbiddenActions")
	}
	if len(p.CompletionCriteria) == 0 {
		return clawerr.New(clawerr.CodePlanSchemaInvalid, "completionCriteria must be non-empty").WithDetail("field", "completionCriteria")
	}
	seen := make(map[string]bool, len(p.Steps))
	for i, s := range p.Steps {
		if s.StepID == "" || len(s.StepID) > maxIDLength {
			return clawerr.Newf(clawerr.CodePlanSchemaInvalid, "step %d has invalid stepId", i).WithDetail("field", "steps[].stepId")
		}
		if seen[s.StepID] {
			return clawerr.Newf(clawerr.CodePlanSchemaInvalid, "duplicate step id %q", s.StepID).WithDetail("field", "steps[].stepId")
		}
		seen[s.StepID] = true
		if s.Verification.Method != "" && !artifact.ValidVerificationMethods[s.Verification.Method] {
			return clawerr.Newf(clawerr.CodePlanSchemaInvalid, "step %q has unrecognized verification method", s.StepID).WithDetail("field", "steps[].verification.method")
		}
	}
	return nil
}

// ValidateEvidence performs structural validation of a RunnerEvidence.
func ValidateEvidence(e *artifact.RunnerEvidence) *clawerr.Error {
	if e == nil {
		return clawerr.New(clawerr.CodeEvidenceSchemaInvalid, "evidence is nil")
	}
	if !IsUUIDv4(e.SessionID) {
		return clawerr.New(clawerr.CodeEvidenceSchemaInvalid, "sessionId is not a UUIDv4").WithDetail("field", "sessionId")
	}
	if !IsUUIDv4(e.EvidenceID) {
		return clawerr.New(clawerr.CodeEvidenceSchemaInvalid, "evidenceId is not a UUIDv4").WithDetail("field", "evidenceId")
	}
	if e.StepID == "" {
		return clawerr.New(clawerr.CodeEvidenceSchemaInvalid, "stepId must be non-empty").WithDetail("field", "stepId")
	}
	if !timeISO8601Valid(e.Timestamp) {
		return clawerr.New(clawerr.CodeEvidenceSchemaInvalid, "timestamp must be set").WithDetail("field", "timestamp")
	}
	if e.EvidenceType == "" || !artifact.ValidVerificationMethods[e.EvidenceType] {
		return clawerr.New(clawerr.CodeEvidenceSchemaInvalid, "evidenceType is not a recognized verification method").WithDetail("field", "evidenceType")
	}
	if !IsSHA256Hex(e.ArtifactHash) {
		return clawerr.New(clawerr.CodeEvidenceSchemaInvalid, "artifactHash is not a valid sha256 hex digest").WithDetail("field", "artifactHash")
	}
	if e.CapabilityUsed == "" {
		return clawerr.New(clawerr.CodeEvidenceSchemaInvalid, "capabilityUsed must be non-empty").WithDetail("field", "capabilityUsed")
	}
	if !IsSHA256Hex(e.PlanHash) {
		return clawerr.New(clawerr.CodeEvidenceSchemaInvalid, "planHash is not a valid sha256 hex digest").WithDetail("field", "planHash")
	}
	if e.PrevEvidenceHash != nil && !IsSHA256Hex(*e.PrevEvidenceHash) {
		return clawerr.New(clawerr.CodeEvidenceSchemaInvalid, "prevEvidenceHash is not a valid sha256 hex digest").WithDetail("field", "prevEvidenceHash")
	}
	if !IsSHA256Hex(e.EvidenceHash) {
		return clawerr.New(clawerr.CodeEvidenceSchemaInvalid, "evidenceHash is not a valid sha256 hex digest").WithDetail("field", "evidenceHash")
	}
	return nil
}

// ValidateIdentity performs structural validation of a RunnerIdentity.
func ValidateIdentity(id *artifact.RunnerIdentity) *clawerr.Error {
	if id == nil {
		return clawerr.New(clawerr.CodeIdentitySchemaInvalid, "identity is nil")
	}
	if id.RunnerID == "" || len(id.RunnerID) > maxIDLength {
		return clawerr.New(clawerr.CodeIdentitySchemaInvalid, "runnerId must be non-empty and length-bounded").WithDetail("field", "runnerId")
	}
	if id.RunnerVersion == "" {
		return clawerr.New(clawerr.CodeIdentitySchemaInvalid, "runnerVersion must be non-empty").WithDetail("field", "runnerVersion")
	}
	if !IsPublicKey(id.RunnerPublicKey) {
		return clawerr.New(clawerr.CodeIdentitySchemaInvalid, "runnerPublicKey must be PEM or hex").WithDetail("field", "runnerPublicKey")
	}
	if id.BuildHash != "" && !IsSHA256Hex(id.BuildHash) {
		return clawerr.New(clawerr.CodeIdentitySchemaInvalid, "buildHash is not a valid sha256 hex digest").WithDetail("field", "buildHash")
	}
	if !timeISO8601Valid(id.AttestationTimestamp) {
		return clawerr.New(clawerr.CodeIdentitySchemaInvalid, "attestationTimestamp must be set").WithDetail("field", "attestationTimestamp")
	}
	return nil
}

// ValidateAttestation performs structural validation of a
// RunnerAttestation.
func ValidateAttestation(a *artifact.RunnerAttestation) *clawerr.Error {
	if a == nil {
		return clawerr.New(clawerr.CodeAttestationSchemaInvalid, "attestation is nil")
	}
	if !IsUUIDv4(a.SessionID) {
		return clawerr.New(clawerr.CodeAttestationSchemaInvalid, "sessionId is not a UUIDv4").WithDetail("field", "sessionId")
	}
	if !IsSHA256Hex(a.EvidenceChainHash) {
		return clawerr.New(clawerr.CodeAttestationSchemaInvalid, "evidenceChainHash is not a valid sha256 hex digest").WithDetail("field", "evidenceChainHash")
	}
	if !IsSHA256Hex(a.RunnerIdentityHash) {
		return clawerr.New(clawerr.CodeAttestationSchemaInvalid, "runnerIdentityHash is not a valid sha256 hex digest").WithDetail("field", "runnerIdentityHash")
	}
	if a.Signature == "" {
		return clawerr.New(clawerr.CodeAttestationSchemaInvalid, "signature must be non-empty").WithDetail("field", "signature")
	}
	return nil
}

// ValidateAnchor performs structural validation of a SessionAnchor.
func ValidateAnchor(a *artifact.SessionAnchor) *clawerr.Error {
	if a == nil {
		return clawerr.New(clawerr.CodeAnchorSchemaInvalid, "anchor is nil")
	}
	if !IsUUIDv4(a.SessionID) {
		return clawerr.New(clawerr.CodeAnchorSchemaInvalid, "sessionId is not a UUIDv4").WithDetail("field", "sessionId")
	}
	if !IsSHA256Hex(a.PlanHash) {
		return clawerr.New(clawerr.CodeAnchorSchemaInvalid, "planHash is not a valid sha256 hex digest").WithDetail("field", "planHash")
	}
	if !IsUUIDv4(a.LockID) {
		return clawerr.New(clawerr.CodeAnchorSchemaInvalid, "lockId is not a UUIDv4").WithDetail("field", "lockId")
	}
	if !IsSHA256Hex(a.FinalEvidenceHash) {
		return clawerr.New(clawerr.CodeAnchorSchemaInvalid, "finalEvidenceHash is not a valid sha256 hex digest").WithDetail("field", "finalEvidenceHash")
	}
	for field, v := range map[string]*string{
		"finalAttestationHash": a.FinalAttestationHash,
		"runnerIdentityHash":   a.RunnerIdentityHash,
		"policySetHash":        a.PolicySetHash,
		"policyEvaluationHash": a.PolicyEvaluationHash,
	} {
		if v != nil && !IsSHA256Hex(*v) {
			return clawerr.Newf(clawerr.CodeAnchorSchemaInvalid, "%s is not a valid sha256 hex digest", field).WithDetail("field", field)
		}
	}
	return nil
}

// ValidateSignature performs structural validation of one approval
// Signature.
func ValidateSignature(s *artifact.Signature) *clawerr.Error {
	if s == nil {
		return clawerr.New(clawerr.CodeSignatureSchemaInvalid, "signature is nil")
	}
	if !IsUUIDv4(s.SignatureID) {
		return clawerr.New(clawerr.CodeSignatureSchemaInvalid, "signatureId is not a UUIDv4").WithDetail("field", "signatureId")
	}
	if s.ApproverID == "" {
		return clawerr.New(clawerr.CodeSignatureSchemaInvalid, "approverId must be non-empty").WithDetail("field", "approverId")
	}
	if s.Role == "" {
		return clawerr.New(clawerr.CodeSignatureSchemaInvalid, "role must be non-empty").WithDetail("field", "role")
	}
	if s.Algorithm != "RSA-SHA256" {
		return clawerr.New(clawerr.CodeSignatureSchemaInvalid, `algorithm must be "RSA-SHA256"`).WithDetail("field", "algorithm")
	}
	switch s.ArtifactType {
	case artifact.ArtifactTypeDecisionLock, artifact.ArtifactTypeExecutionPlan, artifact.ArtifactTypePromptCapsule:
	default:
		return clawerr.New(clawerr.CodeSignatureSchemaInvalid, "artifactType is not a recognized enum value").WithDetail("field", "artifactType")
	}
	if !IsSHA256Hex(s.ArtifactHash) {
		return clawerr.New(clawerr.CodeSignatureSchemaInvalid, "artifactHash is not a valid sha256 hex digest").WithDetail("field", "artifactHash")
	}
	if !IsUUIDv4(s.SessionID) {
		return clawerr.New(clawerr.CodeSignatureSchemaInvalid, "sessionId is not a UUIDv4").WithDetail("field", "sessionId")
	}
	if !timeISO8601Valid(s.Timestamp) {
		return clawerr.New(clawerr.CodeSignatureSchemaInvalid, "timestamp must be set").WithDetail("field", "timestamp")
	}
	if !IsUUIDv4(s.Nonce) {
		return clawerr.New(clawerr.CodeSignatureSchemaInvalid, "nonce is not a UUIDv4").WithDetail("field", "nonce")
	}
	if s.SignatureB64 == "" {
		return clawerr.New(clawerr.CodeSignatureSchemaInvalid, "signature must be non-empty").WithDetail("field", "signature")
	}
	if !IsSHA256Hex(s.PayloadHash) {
		return clawerr.New(clawerr.CodeSignatureSchemaInvalid, "payloadHash is not a valid sha256 hex digest").WithDetail("field", "payloadHash")
	}
	return nil
}

// ValidateBundle performs structural validation of an ApprovalBundle's
// envelope fields (each Signature is validated independently via
// ValidateSignature).
func ValidateBundle(b *artifact.ApprovalBundle) *clawerr.Error {
	if b == nil {
		return clawerr.New(clawerr.CodeBundleSchemaInvalid, "bundle is nil")
	}
	if b.SchemaVersion == "" {
		return clawerr.New(clawerr.CodeBundleSchemaInvalid, "schemaVersion must be non-empty").WithDetail("field", "schemaVersion")
	}
	if !IsUUIDv4(b.SessionID) {
		return clawerr.New(clawerr.CodeBundleSchemaInvalid, "sessionId is not a UUIDv4").WithDetail("field", "sessionId")
	}
	if !IsUUIDv4(b.BundleID) {
		return clawerr.New(clawerr.CodeBundleSchemaInvalid, "bundleId is not a UUIDv4").WithDetail("field", "bundleId")
	}
	if len(b.Signatures) == 0 {
		return clawerr.New(clawerr.CodeBundleSchemaInvalid, "signatures must be non-empty").WithDetail("field", "signatures")
	}
	for i := range b.Signatures {
		if err := ValidateSignature(&b.Signatures[i]); err != nil {
			return err
		}
	}
	if !IsSHA256Hex(b.BundleHash) {
		return clawerr.New(clawerr.CodeBundleSchemaInvalid, "bundleHash is not a valid sha256 hex digest").WithDetail("field", "bundleHash")
	}
	return nil
}

// ValidateEnvelope performs structural validation of a StepEnvelope.
func ValidateEnvelope(e *artifact.StepEnvelope) *clawerr.Error {
	if e == nil {
		return clawerr.New(clawerr.CodeEnvelopeSchemaInvalid, "envelope is nil")
	}
	if e.StepID == "" {
		return clawerr.New(clawerr.CodeEnvelopeSchemaInvalid, "stepId must be non-empty").WithDetail("field", "stepId")
	}
	if !IsUUIDv4(e.LockID) {
		return clawerr.New(clawerr.CodeEnvelopeSchemaInvalid, "lockId is not a UUIDv4").WithDetail("field", "lockId")
	}
	if !IsUUIDv4(e.SessionID) {
		return clawerr.New(clawerr.CodeEnvelopeSchemaInvalid, "sessionId is not a UUIDv4").WithDetail("field", "sessionId")
	}
	return nil
}

// ValidatePatch performs structural validation of a PatchArtifact.
func ValidatePatch(p *artifact.PatchArtifact) *clawerr.Error {
	if p == nil {
		return clawerr.New(clawerr.CodePatchSchemaInvalid, "patch is nil")
	}
	if p.StepID == "" {
		return clawerr.New(clawerr.CodePatchSchemaInvalid, "stepId must be non-empty").WithDetail("field", "stepId")
	}
	for i, fc := range p.FileChanges {
		if fc.Path == "" {
			return clawerr.Newf(clawerr.CodePatchSchemaInvalid, "fileChange %d has empty path", i).WithDetail("field", "fileChanges[].path")
		}
		if fc.Added < 0 || fc.Removed < 0 {
			return clawerr.Newf(clawerr.CodePatchSchemaInvalid, "fileChange %d has negative line counts", i).WithDetail("field", "fileChanges[]")
		}
	}
	return nil
}

// ValidatePolicy performs structural validation of a Policy document.
func ValidatePolicy(p *artifact.Policy) *clawerr.Error {
	if p == nil {
		return clawerr.New(clawerr.CodePolicySchemaInvalid, "policy is nil")
	}
	if p.PolicyID == "" || len(p.PolicyID) > maxIDLength {
		return clawerr.New(clawerr.CodePolicySchemaInvalid, "policyId must be non-empty and length-bounded").WithDetail("field", "policyId")
	}
	return nil
}

// timeISO8601Valid reports whether t is set, i.e. not a timestamp
// field's zero value, the one structural defect a decoded time.Time can still carry once
// JSON unmarshaling has already enforced RFC3339/ISO-8601 syntax: an
// absent or "0001-01-01T00:00:00Z" timestamp round-trips cleanly but
// was never actually set by the artifact's producer.
func timeISO8601Valid(t time.Time) bool {
	return !t.IsZero()
}
