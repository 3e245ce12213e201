package bundle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifact"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/canonicalize"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/clawerr"
)

func sampleBundle() *artifact.ArtifactBundle {
	return &artifact.ArtifactBundle{
		BundleVersion: "1.2.3",
		DoD:           artifact.DefinitionOfDone{DoDID: "dod-1"},
		DecisionLock:  artifact.DecisionLock{LockID: "lock-1"},
		ExecutionPlan: artifact.ExecutionPlan{SessionID: "session-1"},
		Policies: []artifact.Policy{
			{PolicyID: "z-policy"},
			{PolicyID: "a-policy"},
		},
	}
}

func TestValidateBundleVersion_Valid(t *testing.T) {
	assert.Nil(t, ValidateBundleVersion("1.2.3"))
}

func TestValidateBundleVersion_Invalid(t *testing.T) {
	err := ValidateBundleVersion("not-a-version")
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodeBundleSchemaInvalid, err.Code)
}

func TestNormalize_SortsPoliciesByID(t *testing.T) {
	norm := Normalize(sampleBundle())
	require.Len(t, norm.Policies, 2)
	assert.Equal(t, "a-policy", norm.Policies[0].PolicyID)
	assert.Equal(t, "z-policy", norm.Policies[1].PolicyID)
}

func TestComputeBundleHash_Deterministic(t *testing.T) {
	b := sampleBundle()
	h1, err := ComputeBundleHash(b)
	require.NoError(t, err)
	h2, err := ComputeBundleHash(b)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestComputeBundleHash_OrderIndependentPolicySort(t *testing.T) {
	b1 := sampleBundle()
	b2 := sampleBundle()
	b2.Policies[0], b2.Policies[1] = b2.Policies[1], b2.Policies[0]

	h1, err := ComputeBundleHash(b1)
	require.NoError(t, err)
	h2, err := ComputeBundleHash(b2)
	require.NoError(t, err)
	assert.Equal(t, h1, h2)
}

// TestComputeBundleHash_MatchesLiteralFormula pins ComputeBundleHash to
// the exact §4.13 formula, SHA256HexOf(normalize(bundle)), with no
// wrapper struct around the normalized bundle — so a future change that
// reintroduces a domain-separation wrapper (or any other reshaping of
// the hashed value) breaks this test instead of passing silently.
func TestComputeBundleHash_MatchesLiteralFormula(t *testing.T) {
	b := sampleBundle()
	got, err := ComputeBundleHash(b)
	require.NoError(t, err)

	want, err := canonicalize.SHA256HexOf(Normalize(b))
	require.NoError(t, err)

	assert.Equal(t, want, got)
}

func TestValidate_MissingDoD(t *testing.T) {
	b := sampleBundle()
	b.DoD.DoDID = ""
	err := Validate(b)
	require.NotNil(t, err)
	assert.Equal(t, "dod", err.Details["field"])
}

func TestValidate_Valid(t *testing.T) {
	assert.Nil(t, Validate(sampleBundle()))
}
