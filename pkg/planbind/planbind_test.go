package planbind

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifact"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/clawerr"
)

func sampleDoD() *artifact.DefinitionOfDone {
	return &artifact.DefinitionOfDone{
		DoDID:     "dod-1",
		SessionID: "session-1",
		Items: []artifact.DoDItem{
			{ID: "item-1", VerificationMethod: artifact.VerificationBuild},
		},
	}
}

func sampleLock(goal string) *artifact.DecisionLock {
	return &artifact.DecisionLock{
		LockID:    "lock-1",
		SessionID: "session-1",
		DoDID:     "dod-1",
		Goal:      goal,
	}
}

func samplePlan() *artifact.ExecutionPlan {
	return &artifact.ExecutionPlan{
		SessionID: "session-1",
		DoDID:     "dod-1",
		LockID:    "lock-1",
		Steps: []artifact.PlanStep{
			{StepID: "step-1", Verification: artifact.StepVerification{Method: artifact.VerificationBuild}},
		},
		ForbiddenActions:   []string{"rm -rf /"},
		CompletionCriteria: []string{"done"},
	}
}

func TestComputePlanHash_Deterministic(t *testing.T) {
	p := samplePlan()
	h1, err := ComputePlanHash(p)
	require.NoError(t, err)
	h2, err := ComputePlanHash(p)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestComputePlanHash_DiffersOnChange(t *testing.T) {
	p1 := samplePlan()
	h1, err := ComputePlanHash(p1)
	require.NoError(t, err)

	p2 := samplePlan()
	p2.Steps[0].StepID = "step-2"
	h2, err := ComputePlanHash(p2)
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestValidatePlanHashBinding_Missing(t *testing.T) {
	p := samplePlan()
	lock := &artifact.DecisionLock{LockID: "lock-1"}
	err := ValidatePlanHashBinding(p, lock)
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodePlanHashMissing, err.Code)
}

func TestValidatePlanHashBinding_Mismatch(t *testing.T) {
	p := samplePlan()
	bad := "0000000000000000000000000000000000000000000000000000000000000000"
	lock := &artifact.DecisionLock{LockID: "lock-1", PlanHash: &bad}
	err := ValidatePlanHashBinding(p, lock)
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodePlanHashMismatch, err.Code)
}

func TestValidatePlanHashBinding_Match(t *testing.T) {
	p := samplePlan()
	h, err := ComputePlanHash(p)
	require.NoError(t, err)
	lock := &artifact.DecisionLock{LockID: "lock-1", PlanHash: &h}
	assert.Nil(t, ValidatePlanHashBinding(p, lock))
}

func TestValidatePlanSanity_Valid(t *testing.T) {
	p := samplePlan()
	p.Steps[0].References = []string{"item-1"}
	// "done" is the plan's own completionCriteria entry, so it is
	// guaranteed to appear verbatim in the marshaled plan JSON.
	err := ValidatePlanSanity(p, sampleDoD(), sampleLock("done"))
	assert.Nil(t, err)
}

func TestValidatePlanSanity_UnknownReferenceRejected(t *testing.T) {
	p := samplePlan()
	p.Steps[0].References = []string{"item-1", "item-bogus"}
	err := ValidatePlanSanity(p, sampleDoD(), sampleLock("done"))
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodePlanReferenceUnknown, err.Code)
}

func TestValidatePlanSanity_GoalMissingFromPlanJSONRejected(t *testing.T) {
	p := samplePlan()
	p.Steps[0].References = []string{"item-1"}
	err := ValidatePlanSanity(p, sampleDoD(), sampleLock("this text appears nowhere in the plan"))
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodePlanGoalMissing, err.Code)
}

func TestEvaluatePlanSanityThenGate_SanityFailureSkipsGate(t *testing.T) {
	p := samplePlan()
	p.Steps[0].References = []string{"item-1"}
	decision, err := EvaluatePlanSanityThenGate(p, sampleDoD(), sampleLock("missing from plan entirely"))
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodePlanGoalMissing, err.Code)
	assert.Empty(t, decision.Checks, "gate must not run once plan sanity has failed")
}

func TestEvaluatePlanSanityThenGate_PassesThroughToGate(t *testing.T) {
	p := samplePlan()
	p.Steps[0].References = []string{"item-1"}
	dod := sampleDoD()
	lock := sampleLock("step-1")
	decision, err := EvaluatePlanSanityThenGate(p, dod, lock)
	require.Nil(t, err)
	assert.True(t, decision.Passed)
}
