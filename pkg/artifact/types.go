// Package artifact defines the data model §3 of clawforge's session
// governance engine: the Definition of Done, the Decision Lock, the
// Execution Plan, the Evidence chain, Runner Identity/Attestation, the
// Session Anchor, and the Approval Bundle, plus the Step Envelope and
// Patch artifacts the reviewer orchestrator consumes.
//
// Types here carry only data and the light, field-local helpers needed to
// compute their own canonical form; cross-artifact rules (the gate,
// binding, evidence chain, anchor, approval) live in their own packages.
package artifact

import "time"

// VerificationMethod enumerates how a DoD item (or a step, or a piece of
// evidence) is verified.
type VerificationMethod string

const (
	VerificationUnitTest       VerificationMethod = "unit_test"
	VerificationIntegrationTest VerificationMethod = "integration_test"
	VerificationStaticAnalysis VerificationMethod = "static_analysis"
	VerificationManualReview   VerificationMethod = "manual_review"
	VerificationLinter         VerificationMethod = "linter"
	VerificationBuild          VerificationMethod = "build"
)

// ValidVerificationMethods is the closed enum of recognized verification
// methods, used by the gate (§4.5) and evidence validator (§4.7).
var ValidVerificationMethods = map[VerificationMethod]bool{
	VerificationUnitTest:        true,
	VerificationIntegrationTest: true,
	VerificationStaticAnalysis:  true,
	VerificationManualReview:    true,
	VerificationLinter:          true,
	VerificationBuild:           true,
}

// DoDItem is one enumerated verifiable condition within a Definition of
// Done.
type DoDItem struct {
	ID                 string             `json:"id"`
	Description        string             `json:"description"`
	VerificationMethod VerificationMethod `json:"verificationMethod"`
}

// DefinitionOfDone is the set of conditions a session must satisfy.
type DefinitionOfDone struct {
	DoDID     string    `json:"dodId"`
	SessionID string    `json:"sessionId"`
	Items     []DoDItem `json:"items"`
}

// ItemByID returns the DoD item with the given id, or false if absent.
func (d *DefinitionOfDone) ItemByID(id string) (DoDItem, bool) {
	for _, item := range d.Items {
		if item.ID == id {
			return item, true
		}
	}
	return DoDItem{}, false
}

// DecisionLock binds a goal to a specific DoD and, once a plan exists, to
// that plan via PlanHash.
type DecisionLock struct {
	LockID    string  `json:"lockId"`
	SessionID string  `json:"sessionId"`
	DoDID     string  `json:"dodId"`
	Goal      string  `json:"goal"`
	PlanHash  *string `json:"planHash,omitempty"`
}

// StepVerification describes how a single plan step is verified.
type StepVerification struct {
	Method VerificationMethod `json:"method"`
}

// PlanStep is one unit of work in an ExecutionPlan.
type PlanStep struct {
	StepID               string           `json:"stepId"`
	AIAllowed            bool             `json:"aiAllowed"`
	References           []string         `json:"references"`
	RequiredCapabilities []string         `json:"requiredCapabilities"`
	Verification         StepVerification `json:"verification"`
}

// ExecutionPlan is the ordered set of steps, capabilities, and completion
// criteria a session will execute under.
type ExecutionPlan struct {
	SessionID           string     `json:"sessionId"`
	DoDID                string     `json:"dodId"`
	LockID               string     `json:"lockId"`
	Steps                []PlanStep `json:"steps"`
	AllowedCapabilities  []string   `json:"allowedCapabilities"`
	ForbiddenActions     []string   `json:"forbiddenActions"`
	CompletionCriteria   []string   `json:"completionCriteria"`
}

// StepByID returns the plan step with the given id, or false if absent.
func (p *ExecutionPlan) StepByID(id string) (PlanStep, bool) {
	for _, s := range p.Steps {
		if s.StepID == id {
			return s, true
		}
	}
	return PlanStep{}, false
}

// RunnerEvidence is one record asserting that a step execution attempt
// produced a particular artifact, chained to the previous evidence item.
type RunnerEvidence struct {
	SessionID              string             `json:"sessionId"`
	StepID                 string             `json:"stepId"`
	EvidenceID             string             `json:"evidenceId"`
	Timestamp              time.Time          `json:"timestamp"`
	EvidenceType           VerificationMethod `json:"evidenceType"`
	ArtifactHash           string             `json:"artifactHash"`
	VerificationMetadata   map[string]string  `json:"verificationMetadata,omitempty"`
	CapabilityUsed         string             `json:"capabilityUsed"`
	HumanConfirmationProof string             `json:"humanConfirmationProof,omitempty"`
	PlanHash               string             `json:"planHash"`
	PrevEvidenceHash       *string            `json:"prevEvidenceHash"`
	EvidenceHash           string             `json:"evidenceHash"`
}

// RunnerIdentity describes the runner that will execute (or executed) a
// session's plan.
type RunnerIdentity struct {
	RunnerID                  string    `json:"runnerId"`
	RunnerVersion              string    `json:"runnerVersion"`
	RunnerPublicKey            string    `json:"runnerPublicKey"`
	EnvironmentFingerprint     string    `json:"environmentFingerprint"`
	BuildHash                  string    `json:"buildHash"`
	AllowedCapabilitiesSnapshot []string  `json:"allowedCapabilitiesSnapshot"`
	AttestationTimestamp       time.Time `json:"attestationTimestamp"`
}

// RunnerAttestation is the runner-signed statement over the ordered
// evidence chain and the runner identity hash.
type RunnerAttestation struct {
	SessionID          string `json:"sessionId"`
	EvidenceChainHash  string `json:"evidenceChainHash"`
	RunnerIdentityHash string `json:"runnerIdentityHash"`
	Algorithm          string `json:"algorithm"`
	Signature          string `json:"signature"`
}

// SessionAnchor is the single root artifact binding every hash in a
// session.
type SessionAnchor struct {
	SessionID             string  `json:"sessionId"`
	PlanHash              string  `json:"planHash"`
	LockID                string  `json:"lockId"`
	FinalEvidenceHash     string  `json:"finalEvidenceHash"`
	FinalAttestationHash  *string `json:"finalAttestationHash,omitempty"`
	RunnerIdentityHash    *string `json:"runnerIdentityHash,omitempty"`
	PolicySetHash         *string `json:"policySetHash,omitempty"`
	PolicyEvaluationHash  *string `json:"policyEvaluationHash,omitempty"`
}

// ArtifactType enumerates what an approval signature attests over.
type ArtifactType string

const (
	ArtifactTypeDecisionLock   ArtifactType = "decision_lock"
	ArtifactTypeExecutionPlan  ArtifactType = "execution_plan"
	ArtifactTypePromptCapsule  ArtifactType = "prompt_capsule"
)

// Signature is one human approver's RSA-SHA256 signature over an
// artifact hash.
type Signature struct {
	SignatureID  string       `json:"signatureId"`
	ApproverID   string       `json:"approverId"`
	Role         string       `json:"role"`
	Algorithm    string       `json:"algorithm"`
	ArtifactType ArtifactType `json:"artifactType"`
	ArtifactHash string       `json:"artifactHash"`
	SessionID    string       `json:"sessionId"`
	Timestamp    time.Time    `json:"timestamp"`
	Nonce        string       `json:"nonce"`
	SignatureB64 string       `json:"signature"`
	PayloadHash  string       `json:"payloadHash"`
}

// ApprovalBundle aggregates every human approval signature for a session.
type ApprovalBundle struct {
	SchemaVersion string      `json:"schemaVersion"`
	SessionID     string      `json:"sessionId"`
	BundleID      string      `json:"bundleId"`
	Signatures    []Signature `json:"signatures"`
	BundleHash    string      `json:"bundleHash"`
}

// FileChange is one file's unified-diff hunk within a PatchArtifact.
type FileChange struct {
	Path       string `json:"path"`
	Added      int    `json:"added"`
	Removed    int    `json:"removed"`
	UnifiedDiff string `json:"unifiedDiff"`
}

// PatchArtifact is the set of file changes proposed for one step.
type PatchArtifact struct {
	StepID      string       `json:"stepId"`
	FileChanges []FileChange `json:"fileChanges"`
}

// StepEnvelope describes the step being reviewed: what it may touch and
// what evidence it is expected to produce.
type StepEnvelope struct {
	StepID               string   `json:"stepId"`
	LockID               string   `json:"lockId"`
	SessionID            string   `json:"sessionId"`
	ReferencedDoDItems   []string `json:"referencedDoDItems"`
	AllowedPaths         []string `json:"allowedPaths"`
	AllowedCapabilities  []string `json:"allowedCapabilities"`
	ExpectedEvidenceType VerificationMethod `json:"expectedEvidenceType"`
}

// Policy is an opaque, caller-supplied policy document; clawforge only
// ever hashes it and asserts equality (§4.9, Open Question (b)).
type Policy struct {
	PolicyID string                 `json:"policyId"`
	Body     map[string]interface{} `json:"body"`
}

// ArtifactBundle aggregates every artifact belonging to a session into
// one hashable whole (§4.13).
type ArtifactBundle struct {
	BundleVersion     string              `json:"bundleVersion"`
	DoD               DefinitionOfDone    `json:"dod"`
	DecisionLock      DecisionLock        `json:"decisionLock"`
	ExecutionPlan     ExecutionPlan       `json:"executionPlan"`
	RunnerIdentity    *RunnerIdentity     `json:"runnerIdentity,omitempty"`
	RunnerEvidence    []RunnerEvidence    `json:"runnerEvidence,omitempty"`
	RunnerAttestation *RunnerAttestation  `json:"runnerAttestation,omitempty"`
	SessionAnchor     *SessionAnchor      `json:"sessionAnchor,omitempty"`
	Policies          []Policy            `json:"policies,omitempty"`
	PolicyEvaluation  map[string]interface{} `json:"policyEvaluation,omitempty"`
}
