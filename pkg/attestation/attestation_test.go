package attestation

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifact"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/clawerr"
)

func generateTestKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	require.NoError(t, err)
	block := &pem.Block{Type: "PUBLIC KEY", Bytes: der}
	return priv, string(pem.EncodeToMemory(block))
}

func TestComputeIdentityHash_Deterministic(t *testing.T) {
	id := &artifact.RunnerIdentity{
		RunnerID:                    "runner-1",
		RunnerVersion:               "1.0.0",
		RunnerPublicKey:             "deadbeef",
		AllowedCapabilitiesSnapshot: []string{"b", "a"},
	}
	h1, err := ComputeIdentityHash(id)
	require.NoError(t, err)

	id2 := &artifact.RunnerIdentity{
		RunnerID:                    "runner-1",
		RunnerVersion:               "1.0.0",
		RunnerPublicKey:             "deadbeef",
		AllowedCapabilitiesSnapshot: []string{"a", "b"},
	}
	h2, err := ComputeIdentityHash(id2)
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "capability snapshot order must not affect the hash")
}

func TestVerifyAttestation_Valid(t *testing.T) {
	priv, pubPEM := generateTestKey(t)
	sig, err := Sign(priv, "evidence-hash", "identity-hash")
	require.NoError(t, err)

	att := &artifact.RunnerAttestation{
		EvidenceChainHash:  "evidence-hash",
		RunnerIdentityHash: "identity-hash",
		Algorithm:          "RS256",
		Signature:          sig,
	}
	identity := &artifact.RunnerIdentity{RunnerPublicKey: pubPEM}

	assert.Nil(t, VerifyAttestation(att, identity))
}

func TestVerifyAttestation_ClaimMismatch(t *testing.T) {
	priv, pubPEM := generateTestKey(t)
	sig, err := Sign(priv, "evidence-hash", "identity-hash")
	require.NoError(t, err)

	att := &artifact.RunnerAttestation{
		EvidenceChainHash:  "wrong-hash",
		RunnerIdentityHash: "identity-hash",
		Signature:          sig,
	}
	identity := &artifact.RunnerIdentity{RunnerPublicKey: pubPEM}

	err2 := VerifyAttestation(att, identity)
	require.NotNil(t, err2)
	assert.Equal(t, clawerr.CodeAttestationInvalid, err2.Code)
}

func TestVerifyAttestation_WrongKey(t *testing.T) {
	priv, _ := generateTestKey(t)
	_, otherPubPEM := generateTestKey(t)
	sig, err := Sign(priv, "evidence-hash", "identity-hash")
	require.NoError(t, err)

	att := &artifact.RunnerAttestation{
		EvidenceChainHash:  "evidence-hash",
		RunnerIdentityHash: "identity-hash",
		Signature:          sig,
	}
	identity := &artifact.RunnerIdentity{RunnerPublicKey: otherPubPEM}

	err2 := VerifyAttestation(att, identity)
	require.NotNil(t, err2)
	assert.Equal(t, clawerr.CodeAttestationInvalid, err2.Code)
}

func TestVerifyAttestation_MalformedSignature(t *testing.T) {
	_, pubPEM := generateTestKey(t)
	att := &artifact.RunnerAttestation{
		EvidenceChainHash:  "evidence-hash",
		RunnerIdentityHash: "identity-hash",
		Signature:          "not-a-jwt",
	}
	identity := &artifact.RunnerIdentity{RunnerPublicKey: pubPEM}

	err := VerifyAttestation(att, identity)
	require.NotNil(t, err)
	assert.Equal(t, clawerr.CodeAttestationInvalid, err.Code)
}
