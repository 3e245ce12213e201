// Package approval implements clawforge's approval bundle validator
// (§4.10): per-signature RSA-SHA256 verification narrowed from the
// teacher's TUF-style multi-algorithm signature verifier, bundle-hash
// computation, and per-session nonce replay protection.
package approval

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"errors"
	"sort"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifact"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/canonicalize"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/clawerr"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/validate"
)

// sigWithoutHashFields is a Signature with its own signature and
// payloadHash fields stripped, used to compute payloadHash itself.
type sigWithoutHashFields struct {
	SignatureID  string               `json:"signatureId"`
	ApproverID   string               `json:"approverId"`
	Role         string               `json:"role"`
	Algorithm    string               `json:"algorithm"`
	ArtifactType artifact.ArtifactType `json:"artifactType"`
	ArtifactHash string               `json:"artifactHash"`
	SessionID    string               `json:"sessionId"`
	Timestamp    string               `json:"timestamp"`
	Nonce        string               `json:"nonce"`
}

// ComputePayloadHash recomputes payloadHash = SHA256HexOf(signature
// minus {signature, payloadHash}).
func ComputePayloadHash(s *artifact.Signature) (string, error) {
	return canonicalize.SHA256HexOf(sigWithoutHashFields{
		SignatureID:  s.SignatureID,
		ApproverID:   s.ApproverID,
		Role:         s.Role,
		Algorithm:    s.Algorithm,
		ArtifactType: s.ArtifactType,
		ArtifactHash: s.ArtifactHash,
		SessionID:    s.SessionID,
		Timestamp:    s.Timestamp.Format(timeLayout),
		Nonce:        s.Nonce,
	})
}

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

// VerifySignature checks one approval Signature: the stored
// payloadHash matches the recomputed one, the approver's public key is
// PEM-encoded, and the RSA-SHA256 signature over the payload hash
// verifies (crypto/rsa.VerifyPKCS1v15 with crypto.SHA256). seen tracks
// nonces already consumed within the current session to provide replay
// resistance.
func VerifySignature(s *artifact.Signature, approverPublicKeyPEM string, seen map[string]bool) *clawerr.Error {
	if err := validate.ValidateSignature(s); err != nil {
		return err
	}

	if seen[s.Nonce] {
		return clawerr.Newf(clawerr.CodeApprovalNonceReplay, "nonce %q already used in this session", s.Nonce)
	}

	computed, err := ComputePayloadHash(s)
	if err != nil {
		return clawerr.New(clawerr.CodeApprovalSignatureInvalid, "failed to compute payload hash: "+err.Error())
	}
	if computed != s.PayloadHash {
		return clawerr.New(clawerr.CodeApprovalSignatureInvalid, "stored payloadHash does not match recomputed value")
	}

	pub, err := parseRSAPublicKeyPEM(approverPublicKeyPEM)
	if err != nil {
		return clawerr.New(clawerr.CodeApprovalSignatureInvalid, "approver public key is not a valid PEM RSA key: "+err.Error())
	}

	sigBytes, err := decodeSignature(s.SignatureB64)
	if err != nil {
		return clawerr.New(clawerr.CodeApprovalSignatureInvalid, "signature is not valid base64 or hex")
	}

	hashBytes, err := hex.DecodeString(s.PayloadHash)
	if err != nil {
		return clawerr.New(clawerr.CodeApprovalSignatureInvalid, "payloadHash is not valid hex")
	}

	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, hashBytes, sigBytes); err != nil {
		return clawerr.New(clawerr.CodeApprovalSignatureInvalid, "RSA-SHA256 signature verification failed")
	}

	seen[s.Nonce] = true
	return nil
}

func decodeSignature(sig string) ([]byte, error) {
	if data, err := base64.StdEncoding.DecodeString(sig); err == nil {
		return data, nil
	}
	return hex.DecodeString(sig)
}

// bundleWithoutHash is an ApprovalBundle with bundleHash stripped and
// signatures sorted by signatureId, used to compute the bundle hash.
type bundleWithoutHash struct {
	SchemaVersion string               `json:"schemaVersion"`
	SessionID     string               `json:"sessionId"`
	BundleID      string               `json:"bundleId"`
	Signatures    []artifact.Signature `json:"signatures"`
}

// ComputeBundleHash computes the bundle hash over b with bundleHash
// removed and signatures sorted by signatureId.
func ComputeBundleHash(b *artifact.ApprovalBundle) (string, error) {
	sigs := append([]artifact.Signature(nil), b.Signatures...)
	sort.Slice(sigs, func(i, j int) bool { return sigs[i].SignatureID < sigs[j].SignatureID })
	return canonicalize.SHA256HexOf(bundleWithoutHash{
		SchemaVersion: b.SchemaVersion,
		SessionID:     b.SessionID,
		BundleID:      b.BundleID,
		Signatures:    sigs,
	})
}

func parseRSAPublicKeyPEM(pemStr string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemStr))
	if block == nil {
		return nil, errors.New("not PEM-encoded")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	rsaPub, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}
	return rsaPub, nil
}
