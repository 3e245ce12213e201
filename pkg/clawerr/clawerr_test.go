package clawerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_NoDetails(t *testing.T) {
	e := New(CodeDoDSchemaInvalid, "items must be non-empty")
	assert.Equal(t, CodeDoDSchemaInvalid, e.Code)
	assert.Equal(t, "items must be non-empty", e.Message)
	assert.Empty(t, e.Details)
	assert.Equal(t, "DOD_SCHEMA_INVALID: items must be non-empty", e.Error())
}

func TestNewf_FormatsMessage(t *testing.T) {
	e := Newf(CodeDoDSchemaInvalid, "item %q missing %s", "item-1", "verificationMethod")
	assert.Equal(t, `item "item-1" missing verificationMethod`, e.Message)
}

func TestWithDetail_DoesNotMutateReceiver(t *testing.T) {
	base := New(CodeLockSchemaInvalid, "goal must be non-empty")
	withField := base.WithDetail("field", "goal")

	assert.Empty(t, base.Details, "WithDetail must not mutate the receiver")
	assert.Equal(t, "goal", withField.Details["field"])
}

func TestWithDetail_Chains(t *testing.T) {
	e := New(CodePlanSchemaInvalid, "bad plan").
		WithDetail("field", "steps").
		WithDetail("index", 2)

	assert.Equal(t, "steps", e.Details["field"])
	assert.Equal(t, 2, e.Details["index"])
}

func TestError_IncludesDetailsWhenPresent(t *testing.T) {
	e := New(CodeLockSchemaInvalid, "bad lock").WithDetail("field", "lockId")
	assert.Contains(t, e.Error(), "LOCK_SCHEMA_INVALID: bad lock")
	assert.Contains(t, e.Error(), "field")
}

func TestIs_MatchesOnCodeOnly(t *testing.T) {
	a := New(CodeEvidenceChainBroken, "broken at step 3")
	b := New(CodeEvidenceChainBroken, "broken at step 9").WithDetail("step", 9)

	assert.True(t, a.Is(b))
	assert.True(t, errors.Is(a, b))
}

func TestIs_MismatchedCodesOrTypes(t *testing.T) {
	a := New(CodeEvidenceChainBroken, "x")
	b := New(CodeAnchorInvalid, "y")

	assert.False(t, a.Is(b))
	assert.False(t, a.Is(errors.New("plain error")))
}
