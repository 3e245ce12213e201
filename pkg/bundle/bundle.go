// Package bundle implements clawforge's artifact bundle aggregation
// (§4.13): collecting every artifact belonging to a session into one
// normalized, hashable whole. bundleVersion is validated as a semver
// string; ComputeBundleHash is the literal §4.13 formula,
// SHA256HexOf(normalize(bundle)), with no domain-separation wrapper,
// so two conformant implementations of this spec compute the same
// hash over the same bundle.
package bundle

import (
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifact"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/canonicalize"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/clawerr"
)

// ValidateBundleVersion parses v as a semver string (Masterminds/semver/v3).
func ValidateBundleVersion(v string) *clawerr.Error {
	if _, err := semver.NewVersion(v); err != nil {
		return clawerr.New(clawerr.CodeBundleSchemaInvalid, "bundleVersion is not a valid semver string: "+err.Error()).
			WithDetail("field", "bundleVersion")
	}
	return nil
}

// Normalize returns a copy of b with evidence-chain order preserved,
// policies sorted by policyId, and absent optional fields left nil so
// they are omitted from the canonical encoding.
func Normalize(b *artifact.ArtifactBundle) artifact.ArtifactBundle {
	out := *b
	out.Policies = append([]artifact.Policy(nil), b.Policies...)
	sort.Slice(out.Policies, func(i, j int) bool { return out.Policies[i].PolicyID < out.Policies[j].PolicyID })
	out.RunnerEvidence = append([]artifact.RunnerEvidence(nil), b.RunnerEvidence...)
	return out
}

// ComputeBundleHash computes SHA256HexOf(normalize(bundle)), per §4.13.
func ComputeBundleHash(b *artifact.ArtifactBundle) (string, error) {
	n := Normalize(b)
	return canonicalize.SHA256HexOf(n)
}

// Validate checks bundle-level invariants: bundleVersion is valid
// semver, and dod/decisionLock/executionPlan are present (required,
// non-optional members of the bundle per §4.13).
func Validate(b *artifact.ArtifactBundle) *clawerr.Error {
	if err := ValidateBundleVersion(b.BundleVersion); err != nil {
		return err
	}
	if b.DoD.DoDID == "" {
		return clawerr.New(clawerr.CodeBundleSchemaInvalid, "bundle is missing dod").WithDetail("field", "dod")
	}
	if b.DecisionLock.LockID == "" {
		return clawerr.New(clawerr.CodeBundleSchemaInvalid, "bundle is missing decisionLock").WithDetail("field", "decisionLock")
	}
	if b.ExecutionPlan.SessionID == "" {
		return clawerr.New(clawerr.CodeBundleSchemaInvalid, "bundle is missing executionPlan").WithDetail("field", "executionPlan")
	}
	return nil
}
