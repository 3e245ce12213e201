// Package artifactfs persists clawforge's per-run artifact directory
// layout (§6): one directory per run containing one file per artifact
// kind, canonical JSON on write, plain (whitespace-permissive) JSON
// decoding on read, with hashing of loaded values going through
// pkg/canonicalize. Writes use
// the teacher's write-temp-then-rename idiom (core/pkg/capabilities
// BlobStore.Store) so a crash mid-write never leaves a half-written
// artifact file in place of the previous good one.
package artifactfs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/canonicalize"
)

const (
	fileDoD           = "dod.json"
	fileLock          = "decision-lock.json"
	filePlan          = "execution-plan.json"
	fileRunnerEvidence = "runner-evidence.json"
	fileAnchor        = "anchor.json"
	fileApprovalBundle = "approval-bundle.json"
	dirReviewerReports = "reviewer-reports"
	dirArtifacts       = "artifacts"
)

// RunDir returns the directory holding runID's artifacts under root.
func RunDir(root, runID string) string {
	return filepath.Join(root, runID)
}

// EnsureRunDir creates runID's artifact directory (and its
// reviewer-reports and artifacts subdirectories) if it does not
// already exist.
func EnsureRunDir(root, runID string) (string, error) {
	dir := RunDir(root, runID)
	if err := os.MkdirAll(filepath.Join(dir, dirReviewerReports), 0o755); err != nil {
		return "", fmt.Errorf("create run directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(dir, dirArtifacts), 0o755); err != nil {
		return "", fmt.Errorf("create run artifacts directory: %w", err)
	}
	return dir, nil
}

// writeCanonical canonicalizes v and writes it to path via a
// temp-file-then-rename, so a reader never observes a partial file.
func writeCanonical(path string, v interface{}) error {
	bytes, err := canonicalize.Canonicalize(v)
	if err != nil {
		return fmt.Errorf("canonicalize artifact: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, bytes, 0o644); err != nil {
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("commit artifact: %w", err)
	}
	return nil
}

// readReCanonicalized reads path and unmarshals it into out. It does
// not canonicalize out itself; whitespace or key-order differences in
// the file on disk do not reach a hash because hashing goes through
// canonicalize.SHA256HexOf on the loaded value.
func readReCanonicalized(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse artifact %s: %w", filepath.Base(path), err)
	}
	return nil
}

// WriteDoD persists a run's Definition of Done.
func WriteDoD(root, runID string, v interface{}) error {
	return writeCanonical(filepath.Join(RunDir(root, runID), fileDoD), v)
}

// ReadDoD loads a run's Definition of Done into out.
func ReadDoD(root, runID string, out interface{}) error {
	return readReCanonicalized(filepath.Join(RunDir(root, runID), fileDoD), out)
}

// WriteDecisionLock persists a run's decision lock.
func WriteDecisionLock(root, runID string, v interface{}) error {
	return writeCanonical(filepath.Join(RunDir(root, runID), fileLock), v)
}

// ReadDecisionLock loads a run's decision lock into out.
func ReadDecisionLock(root, runID string, out interface{}) error {
	return readReCanonicalized(filepath.Join(RunDir(root, runID), fileLock), out)
}

// WriteExecutionPlan persists a run's execution plan.
func WriteExecutionPlan(root, runID string, v interface{}) error {
	return writeCanonical(filepath.Join(RunDir(root, runID), filePlan), v)
}

// ReadExecutionPlan loads a run's execution plan into out.
func ReadExecutionPlan(root, runID string, out interface{}) error {
	return readReCanonicalized(filepath.Join(RunDir(root, runID), filePlan), out)
}

// WriteAnchor persists a run's session anchor.
func WriteAnchor(root, runID string, v interface{}) error {
	return writeCanonical(filepath.Join(RunDir(root, runID), fileAnchor), v)
}

// ReadAnchor loads a run's session anchor into out.
func ReadAnchor(root, runID string, out interface{}) error {
	return readReCanonicalized(filepath.Join(RunDir(root, runID), fileAnchor), out)
}

// WriteApprovalBundle persists a run's approval bundle.
func WriteApprovalBundle(root, runID string, v interface{}) error {
	return writeCanonical(filepath.Join(RunDir(root, runID), fileApprovalBundle), v)
}

// ReadApprovalBundle loads a run's approval bundle into out.
func ReadApprovalBundle(root, runID string, out interface{}) error {
	return readReCanonicalized(filepath.Join(RunDir(root, runID), fileApprovalBundle), out)
}

// AppendRunnerEvidence appends one evidence item to runID's
// runner-evidence.json array, rewriting the whole array canonically
// (the array is expected to stay small: one entry per plan step).
func AppendRunnerEvidence(root, runID string, items []json.RawMessage, next interface{}) error {
	nextBytes, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("marshal evidence item: %w", err)
	}
	all := append(append([]json.RawMessage(nil), items...), nextBytes)
	return writeCanonical(filepath.Join(RunDir(root, runID), fileRunnerEvidence), all)
}

// ReadRunnerEvidence loads a run's runner-evidence.json array into out
// (a pointer to a slice).
func ReadRunnerEvidence(root, runID string, out interface{}) error {
	path := filepath.Join(RunDir(root, runID), fileRunnerEvidence)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return readReCanonicalized(path, out)
}

// WriteReviewerReport persists one role's reviewer report for a step.
func WriteReviewerReport(root, runID, stepID, role string, v interface{}) error {
	path := filepath.Join(RunDir(root, runID), dirReviewerReports, stepID, role+".json")
	return writeCanonical(path, v)
}

// ReadReviewerReport loads one role's reviewer report for a step.
func ReadReviewerReport(root, runID, stepID, role string, out interface{}) error {
	path := filepath.Join(RunDir(root, runID), dirReviewerReports, stepID, role+".json")
	return readReCanonicalized(path, out)
}

// PutArtifact copies the file at srcPath into runID's artifacts/
// subdirectory under label (or the source's base name if label is
// empty), returning the stored path.
func PutArtifact(root, runID, srcPath, label string) (string, error) {
	if label == "" {
		label = filepath.Base(srcPath)
	}
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return "", fmt.Errorf("read source artifact: %w", err)
	}
	dest := filepath.Join(RunDir(root, runID), dirArtifacts, label)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return "", fmt.Errorf("create artifacts directory: %w", err)
	}
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		return "", fmt.Errorf("commit artifact: %w", err)
	}
	return dest, nil
}

// ListArtifactFiles returns every file path under runID's artifacts/
// subdirectory, sorted for deterministic export ordering.
func ListArtifactFiles(root, runID string) ([]string, error) {
	dir := filepath.Join(RunDir(root, runID), dirArtifacts)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// ArtifactFilePaths returns the fixed set of top-level artifact file
// paths for runID that exist on disk, for use by the export
// collaborator.
func ArtifactFilePaths(root, runID string) []string {
	dir := RunDir(root, runID)
	candidates := []string{fileDoD, fileLock, filePlan, fileRunnerEvidence, fileAnchor, fileApprovalBundle}
	var out []string
	for _, c := range candidates {
		p := filepath.Join(dir, c)
		if _, err := os.Stat(p); err == nil {
			out = append(out, p)
		}
	}
	return out
}
