package evidence

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifact"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/capability"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/clawerr"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/gate"
)

// hash64 returns a syntactically valid 64-char hex digest filled with c,
// used to stand in for a real sha256 hex value in tests.
func hash64(c byte) string {
	return strings.Repeat(string(c), 64)
}

func testRegistry() *capability.Registry {
	return capability.NewRegistry([]capability.Capability{
		{ID: "test.run_unit", Category: capability.CategoryVerification, AllowedRoles: []string{"runner"}},
		{ID: "fs.write", Category: capability.CategoryFilesystem, AllowedRoles: []string{"runner"}, RequiresHumanConfirmation: true},
	})
}

func testPlan() *artifact.ExecutionPlan {
	return &artifact.ExecutionPlan{
		SessionID: "session-1",
		Steps: []artifact.PlanStep{
			{StepID: "step-1", References: []string{"item-1"}, RequiredCapabilities: []string{"test.run_unit"}},
		},
		AllowedCapabilities: []string{"test.run_unit", "fs.write"},
	}
}

func testDoD() *artifact.DefinitionOfDone {
	return &artifact.DefinitionOfDone{
		Items: []artifact.DoDItem{
			{ID: "item-1", VerificationMethod: artifact.VerificationUnitTest},
		},
	}
}

func testEvidence() *artifact.RunnerEvidence {
	return &artifact.RunnerEvidence{
		SessionID:      "session-1",
		StepID:         "step-1",
		EvidenceID:     "ev-1",
		Timestamp:      time.Now(),
		EvidenceType:   artifact.VerificationUnitTest,
		ArtifactHash:   hash64('a'),
		CapabilityUsed: "test.run_unit",
		PlanHash:       hash64('b'),
		EvidenceHash:   hash64('c'),
	}
}

func TestValidateEvidence_Valid(t *testing.T) {
	err := ValidateEvidence(testEvidence(), testPlan(), testDoD(), map[string]bool{}, testRegistry())
	assert.Nil(t, err)
}

func TestValidateEvidence_UnknownStep(t *testing.T) {
	ev := testEvidence()
	ev.StepID = "missing-step"
	err := ValidateEvidence(ev, testPlan(), testDoD(), map[string]bool{}, testRegistry())
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodeEvidenceStepUnknown, err.Code)
}

func TestValidateEvidence_Duplicate(t *testing.T) {
	ev := testEvidence()
	err := ValidateEvidence(ev, testPlan(), testDoD(), map[string]bool{"ev-1": true}, testRegistry())
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodeEvidenceDuplicate, err.Code)
}

func TestValidateEvidence_CapabilityUnregistered(t *testing.T) {
	ev := testEvidence()
	ev.CapabilityUsed = "nonexistent.capability"
	err := ValidateEvidence(ev, testPlan(), testDoD(), map[string]bool{}, testRegistry())
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodeEvidenceCapUnregistered, err.Code)
}

func TestValidateEvidence_CapabilityNotRequiredByStep(t *testing.T) {
	ev := testEvidence()
	ev.CapabilityUsed = "fs.write"
	ev.HumanConfirmationProof = "signed-off"
	err := ValidateEvidence(ev, testPlan(), testDoD(), map[string]bool{}, testRegistry())
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodeEvidenceCapNotAllowed, err.Code)
}

func TestValidateEvidence_HumanConfirmationMissing(t *testing.T) {
	plan := testPlan()
	plan.Steps[0].RequiredCapabilities = []string{"fs.write"}
	ev := testEvidence()
	ev.CapabilityUsed = "fs.write"
	err := ValidateEvidence(ev, plan, testDoD(), map[string]bool{}, testRegistry())
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodeEvidenceHumanConfirmMissing, err.Code)
}

func TestValidateEvidence_TypeMismatch(t *testing.T) {
	ev := testEvidence()
	ev.EvidenceType = artifact.VerificationLinter
	err := ValidateEvidence(ev, testPlan(), testDoD(), map[string]bool{}, testRegistry())
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodeEvidenceTypeMismatch, err.Code)
}

func TestValidateEvidence_RejectsMixOfValidAndUnknownReference(t *testing.T) {
	plan := testPlan()
	plan.Steps[0].References = []string{"item-1", "item-bogus"}
	err := ValidateEvidence(testEvidence(), plan, testDoD(), map[string]bool{}, testRegistry())
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodePlanReferenceUnknown, err.Code)
}

func TestValidateEvidence_RejectsPurelyUnknownReference(t *testing.T) {
	plan := testPlan()
	plan.Steps[0].References = []string{"item-bogus"}
	err := ValidateEvidence(testEvidence(), plan, testDoD(), map[string]bool{}, testRegistry())
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodePlanReferenceUnknown, err.Code)
}

func buildChain(t *testing.T, planHash string, n int) []artifact.RunnerEvidence {
	t.Helper()
	items := make([]artifact.RunnerEvidence, n)
	var prev *string
	for i := 0; i < n; i++ {
		ev := artifact.RunnerEvidence{
			SessionID:        "session-1",
			StepID:           "step-1",
			EvidenceID:       string(rune('a' + i)),
			Timestamp:        time.Now(),
			EvidenceType:     artifact.VerificationUnitTest,
			ArtifactHash:     hash64('a'),
			CapabilityUsed:   "test.run_unit",
			PlanHash:         planHash,
			PrevEvidenceHash: prev,
		}
		h, err := computeEvidenceHash(ev)
		require.NoError(t, err)
		ev.EvidenceHash = h
		items[i] = ev
		hCopy := h
		prev = &hCopy
	}
	return items
}

func TestVerifyChain_Valid(t *testing.T) {
	planHash := hash64('d')
	chain := buildChain(t, planHash, 3)
	assert.Nil(t, VerifyChain(chain, planHash))
}

func TestVerifyChain_FirstItemMustHaveNilPrev(t *testing.T) {
	planHash := hash64('d')
	chain := buildChain(t, planHash, 1)
	bad := hash64('e')
	chain[0].PrevEvidenceHash = &bad
	err := VerifyChain(chain, planHash)
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodeEvidenceChainBroken, err.Code)
}

func TestVerifyChain_BrokenLink(t *testing.T) {
	planHash := hash64('d')
	chain := buildChain(t, planHash, 3)
	bad := hash64('e')
	chain[2].PrevEvidenceHash = &bad
	err := VerifyChain(chain, planHash)
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodeEvidenceChainBroken, err.Code)
}

func TestVerifyChain_WrongPlanHash(t *testing.T) {
	planHash := hash64('d')
	chain := buildChain(t, planHash, 1)
	err := VerifyChain(chain, hash64('f'))
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodeEvidenceChainBroken, err.Code)
}

func TestDerivedCompletion(t *testing.T) {
	plan := &artifact.ExecutionPlan{Steps: []artifact.PlanStep{{StepID: "step-1"}, {StepID: "step-2"}}}

	assert.False(t, DerivedCompletion(gate.Decision{Passed: false}, plan, map[string]bool{"step-1": true, "step-2": true}))
	assert.False(t, DerivedCompletion(gate.Decision{Passed: true}, plan, map[string]bool{"step-1": true}))
	assert.True(t, DerivedCompletion(gate.Decision{Passed: true}, plan, map[string]bool{"step-1": true, "step-2": true}))
}
