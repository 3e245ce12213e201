package anchor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifact"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/clawerr"
)

func validAnchor() *artifact.SessionAnchor {
	return &artifact.SessionAnchor{
		SessionID:         "session-1",
		PlanHash:          "plan-hash",
		LockID:            "lock-1",
		FinalEvidenceHash: "evidence-hash",
	}
}

func baseExpected() Expected {
	return Expected{
		SessionID:         "session-1",
		PlanHash:          "plan-hash",
		LockID:            "lock-1",
		FinalEvidenceHash: "evidence-hash",
	}
}

func TestValidateAnchor_Valid(t *testing.T) {
	assert.Nil(t, ValidateAnchor(validAnchor(), baseExpected()))
}

func TestValidateAnchor_SessionIDMismatch(t *testing.T) {
	exp := baseExpected()
	exp.SessionID = "other-session"
	err := ValidateAnchor(validAnchor(), exp)
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodeAnchorInvalid, err.Code)
	assert.Equal(t, "sessionId", err.Details["field"])
}

func TestValidateAnchor_OptionalFieldExpectedButAbsent(t *testing.T) {
	exp := baseExpected()
	h := "some-hash"
	exp.RunnerIdentityHash = &h
	err := ValidateAnchor(validAnchor(), exp)
	require.NotNil(t, err)
	assert.Equal(t, "runnerIdentityHash", err.Details["field"])
}

func TestValidateAnchor_OptionalFieldMatches(t *testing.T) {
	a := validAnchor()
	h := "some-hash"
	a.RunnerIdentityHash = &h
	exp := baseExpected()
	exp.RunnerIdentityHash = &h
	assert.Nil(t, ValidateAnchor(a, exp))
}

func TestValidateAnchor_OptionalFieldMismatch(t *testing.T) {
	a := validAnchor()
	h1, h2 := "hash-1", "hash-2"
	a.PolicySetHash = &h1
	exp := baseExpected()
	exp.PolicySetHash = &h2
	err := ValidateAnchor(a, exp)
	require.NotNil(t, err)
	assert.Equal(t, "policySetHash", err.Details["field"])
}

func TestValidateAnchor_NilAnchor(t *testing.T) {
	err := ValidateAnchor(nil, baseExpected())
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodeAnchorInvalid, err.Code)
}
