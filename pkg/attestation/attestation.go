// Package attestation implements clawforge's runner identity hashing
// and RS256-JWS attestation verification (§4.8). The attestation is
// carried as a compact JWS produced by the runner: the claims bind the
// evidence-chain hash and the runner-identity hash together so neither
// can be swapped independently of the other after signing.
package attestation

import (
	"crypto/rsa"
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifact"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/canonicalize"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/clawerr"
)

// identityPayload is the subset of RunnerIdentity fields that make up
// its content hash, in the order §4.8 specifies.
type identityPayload struct {
	RunnerID                   string   `json:"runnerId"`
	RunnerVersion              string   `json:"runnerVersion"`
	RunnerPublicKey            string   `json:"publicKey"`
	EnvironmentFingerprint     string   `json:"environmentFingerprint"`
	BuildHash                  string   `json:"buildHash"`
	SortedCapabilitiesSnapshot []string `json:"sortedCapabilitiesSnapshot"`
}

// ComputeIdentityHash binds {runnerId, runnerVersion, publicKey,
// environmentFingerprint, buildHash, sortedCapabilitiesSnapshot} into a
// single content hash.
func ComputeIdentityHash(id *artifact.RunnerIdentity) (string, error) {
	snapshot := append([]string(nil), id.AllowedCapabilitiesSnapshot...)
	sortStrings(snapshot)
	return canonicalize.SHA256HexOf(identityPayload{
		RunnerID:                   id.RunnerID,
		RunnerVersion:              id.RunnerVersion,
		RunnerPublicKey:            id.RunnerPublicKey,
		EnvironmentFingerprint:     id.EnvironmentFingerprint,
		BuildHash:                  id.BuildHash,
		SortedCapabilitiesSnapshot: snapshot,
	})
}

func sortStrings(xs []string) {
	for i := 1; i < len(xs); i++ {
		for j := i; j > 0 && xs[j-1] > xs[j]; j-- {
			xs[j-1], xs[j] = xs[j], xs[j-1]
		}
	}
}

// attestationClaims is the JWS claim set carried by a RunnerAttestation.
type attestationClaims struct {
	jwt.RegisteredClaims
	EvidenceChainHash  string `json:"evidence_chain_hash"`
	RunnerIdentityHash string `json:"runner_identity_hash"`
}

// VerifyAttestation parses attestation.Signature as a compact RS256 JWS,
// verifies it against the public key carried in identity, and checks
// that its claims equal the evidence-chain hash and runner-identity
// hash recorded on attestation. Any JWT-library error or claim mismatch
// folds into ATTESTATION_INVALID, per §4.8.
func VerifyAttestation(att *artifact.RunnerAttestation, identity *artifact.RunnerIdentity) *clawerr.Error {
	pub, err := parseRSAPublicKey(identity.RunnerPublicKey)
	if err != nil {
		return clawerr.New(clawerr.CodeAttestationInvalid, "failed to parse runner public key: "+err.Error())
	}

	claims := &attestationClaims{}
	token, err := jwt.ParseWithClaims(att.Signature, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return pub, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	if err != nil || !token.Valid {
		return clawerr.New(clawerr.CodeAttestationInvalid, "attestation signature verification failed")
	}

	if claims.EvidenceChainHash != att.EvidenceChainHash {
		return clawerr.New(clawerr.CodeAttestationInvalid, "attestation claims do not match recorded evidenceChainHash")
	}
	if claims.RunnerIdentityHash != att.RunnerIdentityHash {
		return clawerr.New(clawerr.CodeAttestationInvalid, "attestation claims do not match recorded runnerIdentityHash")
	}

	return nil
}

func parseRSAPublicKey(pemStr string) (*rsa.PublicKey, error) {
	return jwt.ParseRSAPublicKeyFromPEM([]byte(pemStr))
}

// Sign produces a compact RS256 JWS over evidenceChainHash and
// runnerIdentityHash, suitable for use as RunnerAttestation.Signature.
// This is the runner-side counterpart to VerifyAttestation; clawforge's
// core never signs on its own behalf, but ships this helper for the
// reference runner and for tests.
func Sign(priv *rsa.PrivateKey, evidenceChainHash, runnerIdentityHash string) (string, error) {
	claims := attestationClaims{
		EvidenceChainHash:  evidenceChainHash,
		RunnerIdentityHash: runnerIdentityHash,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	return token.SignedString(priv)
}
