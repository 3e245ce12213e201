// Package auditexport implements the `export-evidence` collaborator
// (§6, §12): a checksummed ZIP containing a run's audit event chain,
// its artifact files, and a manifest, grounded on the teacher's
// Exporter.GeneratePack (core/pkg/audit/export.go) — the same
// events.json + manifest.json + README.txt zip shape, repurposed from
// a tenant/time-range audit query into a run-scoped export.
package auditexport

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifactfs"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/store"
)

// ErrEmptyRunID is returned when Request.RunID is empty.
var ErrEmptyRunID = errors.New("auditexport: runId must not be empty")

// Request describes one export-evidence invocation.
type Request struct {
	RunID           string
	ArtifactRoot    string
	MaxIncludeBytes int64 // 0 means unlimited
	NoArtifacts     bool
}

// Manifest summarizes the pack's contents alongside its entries.
type Manifest struct {
	RunID        string    `json:"runId"`
	GeneratedAt  time.Time `json:"generatedAt"`
	EventCount   int       `json:"eventCount"`
	ChainHead    string    `json:"chainHead,omitempty"`
	ArtifactsIncluded []string `json:"artifactsIncluded,omitempty"`
	ArtifactsSkipped  []string `json:"artifactsSkipped,omitempty"`
}

// GeneratePack builds a zip archive for req, returning the archive
// bytes and its SHA-256 checksum. Events come from auditStore; file
// artifacts come from req.ArtifactRoot via pkg/artifactfs, unless
// req.NoArtifacts is set.
func GeneratePack(ctx context.Context, auditStore store.AuditStore, req Request) ([]byte, string, error) {
	if req.RunID == "" {
		return nil, "", ErrEmptyRunID
	}

	events, err := auditStore.List(ctx, req.RunID)
	if err != nil {
		return nil, "", fmt.Errorf("list events: %w", err)
	}

	eventsJSON, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("marshal events: %w", err)
	}

	var chainHead string
	if len(events) > 0 {
		chainHead = events[len(events)-1].Hash
	}

	manifest := Manifest{
		RunID:       req.RunID,
		GeneratedAt: time.Now().UTC(),
		EventCount:  len(events),
		ChainHead:   chainHead,
	}

	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	if err := writeZipFile(w, "events.json", eventsJSON); err != nil {
		return nil, "", err
	}

	if !req.NoArtifacts && req.ArtifactRoot != "" {
		paths := artifactfs.ArtifactFilePaths(req.ArtifactRoot, req.RunID)
		extras, err := artifactfs.ListArtifactFiles(req.ArtifactRoot, req.RunID)
		if err != nil {
			return nil, "", fmt.Errorf("list artifact files: %w", err)
		}
		paths = append(paths, extras...)

		for _, p := range paths {
			info, err := os.Stat(p)
			if err != nil {
				continue
			}
			rel, err := filepath.Rel(artifactfs.RunDir(req.ArtifactRoot, req.RunID), p)
			if err != nil {
				rel = filepath.Base(p)
			}
			if req.MaxIncludeBytes > 0 && info.Size() > req.MaxIncludeBytes {
				manifest.ArtifactsSkipped = append(manifest.ArtifactsSkipped, rel)
				continue
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return nil, "", fmt.Errorf("read artifact %s: %w", rel, err)
			}
			if err := writeZipFile(w, filepath.Join("run", rel), data); err != nil {
				return nil, "", err
			}
			manifest.ArtifactsIncluded = append(manifest.ArtifactsIncluded, rel)
		}
	}

	manifestJSON, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("marshal manifest: %w", err)
	}
	if err := writeZipFile(w, "manifest.json", manifestJSON); err != nil {
		return nil, "", err
	}

	readme := fmt.Sprintf("Evidence pack for run %s\nGenerated at %s\n", req.RunID, manifest.GeneratedAt.Format(time.RFC3339))
	if err := writeZipFile(w, "README.txt", []byte(readme)); err != nil {
		return nil, "", err
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("finalize zip: %w", err)
	}

	zipBytes := buf.Bytes()
	hash := sha256.Sum256(zipBytes)
	return zipBytes, hex.EncodeToString(hash[:]), nil
}

func writeZipFile(w *zip.Writer, name string, data []byte) error {
	f, err := w.Create(name)
	if err != nil {
		return fmt.Errorf("create zip entry %s: %w", name, err)
	}
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write zip entry %s: %w", name, err)
	}
	return nil
}
