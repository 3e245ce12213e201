package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifact"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/clawerr"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/validate"
)

// contractEnvelope is the on-disk wrapper validate-contract expects:
// a "kind" discriminator alongside the artifact's own fields, so a
// bare JSON file tells the CLI which schema to validate it against
// without the core packages needing to guess from field shape.
type contractEnvelope struct {
	Kind string `json:"kind"`
}

// runValidateContractCmd implements `clawctl validate-contract <file>
// [--json]`: it reads file, dispatches on its "kind" field to the
// matching pkg/validate schema validator, and reports the result.
//
// Exit codes: 0 valid, 1 invalid (schema error or unreadable/malformed
// input).
func runValidateContractCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("validate-contract", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var jsonOutput bool
	cmd.BoolVar(&jsonOutput, "json", false, "Output result as JSON")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	rest := cmd.Args()
	if len(rest) != 1 {
		fmt.Fprintln(stderr, "Usage: clawctl validate-contract <file> [--json]")
		return 2
	}
	path := rest[0]

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: cannot read %s: %v\n", path, err)
		return 1
	}

	var env contractEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		fmt.Fprintf(stderr, "Error: malformed JSON in %s: %v\n", path, err)
		return 1
	}

	verr := validateByKind(env.Kind, data)
	return reportValidation(stdout, jsonOutput, path, verr)
}

func validateByKind(kind string, data []byte) *clawerr.Error {
	switch kind {
	case "dod":
		var v artifact.DefinitionOfDone
		if err := json.Unmarshal(data, &v); err != nil {
			return clawerr.New(clawerr.CodeDoDSchemaInvalid, "malformed dod: "+err.Error())
		}
		return validate.ValidateDoD(&v)
	case "lock":
		var v artifact.DecisionLock
		if err := json.Unmarshal(data, &v); err != nil {
			return clawerr.New(clawerr.CodeLockSchemaInvalid, "malformed lock: "+err.Error())
		}
		return validate.ValidateLock(&v)
	case "plan":
		var v artifact.ExecutionPlan
		if err := json.Unmarshal(data, &v); err != nil {
			return clawerr.New(clawerr.CodePlanSchemaInvalid, "malformed plan: "+err.Error())
		}
		return validate.ValidatePlan(&v)
	case "evidence":
		var v artifact.RunnerEvidence
		if err := json.Unmarshal(data, &v); err != nil {
			return clawerr.New(clawerr.CodeEvidenceSchemaInvalid, "malformed evidence: "+err.Error())
		}
		return validate.ValidateEvidence(&v)
	case "identity":
		var v artifact.RunnerIdentity
		if err := json.Unmarshal(data, &v); err != nil {
			return clawerr.New(clawerr.CodeIdentitySchemaInvalid, "malformed identity: "+err.Error())
		}
		return validate.ValidateIdentity(&v)
	case "attestation":
		var v artifact.RunnerAttestation
		if err := json.Unmarshal(data, &v); err != nil {
			return clawerr.New(clawerr.CodeAttestationSchemaInvalid, "malformed attestation: "+err.Error())
		}
		return validate.ValidateAttestation(&v)
	case "anchor":
		var v artifact.SessionAnchor
		if err := json.Unmarshal(data, &v); err != nil {
			return clawerr.New(clawerr.CodeAnchorSchemaInvalid, "malformed anchor: "+err.Error())
		}
		return validate.ValidateAnchor(&v)
	case "signature":
		var v artifact.Signature
		if err := json.Unmarshal(data, &v); err != nil {
			return clawerr.New(clawerr.CodeSignatureSchemaInvalid, "malformed signature: "+err.Error())
		}
		return validate.ValidateSignature(&v)
	case "bundle":
		var v artifact.ApprovalBundle
		if err := json.Unmarshal(data, &v); err != nil {
			return clawerr.New(clawerr.CodeBundleSchemaInvalid, "malformed bundle: "+err.Error())
		}
		return validate.ValidateBundle(&v)
	case "envelope":
		var v artifact.StepEnvelope
		if err := json.Unmarshal(data, &v); err != nil {
			return clawerr.New(clawerr.CodeEnvelopeSchemaInvalid, "malformed envelope: "+err.Error())
		}
		return validate.ValidateEnvelope(&v)
	case "patch":
		var v artifact.PatchArtifact
		if err := json.Unmarshal(data, &v); err != nil {
			return clawerr.New(clawerr.CodePatchSchemaInvalid, "malformed patch: "+err.Error())
		}
		return validate.ValidatePatch(&v)
	case "policy":
		var v artifact.Policy
		if err := json.Unmarshal(data, &v); err != nil {
			return clawerr.New(clawerr.CodePolicySchemaInvalid, "malformed policy: "+err.Error())
		}
		return validate.ValidatePolicy(&v)
	default:
		return clawerr.New(clawerr.CodeDoDSchemaInvalid, "unknown contract kind: "+kind)
	}
}

func reportValidation(stdout io.Writer, jsonOutput bool, path string, verr *clawerr.Error) int {
	if jsonOutput {
		result := map[string]interface{}{"file": path, "valid": verr == nil}
		if verr != nil {
			result["code"] = verr.Code
			result["message"] = verr.Message
			if len(verr.Details) > 0 {
				result["details"] = verr.Details
			}
		}
		data, _ := json.MarshalIndent(result, "", "  ")
		fmt.Fprintln(stdout, string(data))
	} else if verr == nil {
		fmt.Fprintf(stdout, "valid: %s\n", path)
	} else {
		fmt.Fprintf(stdout, "invalid: %s: %s\n", path, verr.Error())
	}

	if verr != nil {
		return 1
	}
	return 0
}
