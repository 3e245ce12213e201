package auditexport

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/artifactfs"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/store"
)

func readZipFile(t *testing.T, zipBytes []byte, name string) []byte {
	t.Helper()
	r, err := zip.NewReader(bytes.NewReader(zipBytes), int64(len(zipBytes)))
	require.NoError(t, err)
	for _, f := range r.File {
		if f.Name == name {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			data, err := io.ReadAll(rc)
			require.NoError(t, err)
			return data
		}
	}
	t.Fatalf("zip entry %q not found", name)
	return nil
}

func TestGeneratePack_EmptyRunID(t *testing.T) {
	_, _, err := GeneratePack(context.Background(), nil, Request{})
	assert.ErrorIs(t, err, ErrEmptyRunID)
}

func TestGeneratePack_ChecksumMatchesContent(t *testing.T) {
	s, err := store.OpenSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	_, err = s.Append(ctx, store.NewEventInput{RunID: "run-1", Type: "new-run", Actor: "alice"})
	require.NoError(t, err)

	zipBytes, checksum, err := GeneratePack(ctx, s, Request{RunID: "run-1", NoArtifacts: true})
	require.NoError(t, err)

	sum := sha256.Sum256(zipBytes)
	assert.Equal(t, hex.EncodeToString(sum[:]), checksum)
}

func TestGeneratePack_IncludesEventsAndManifest(t *testing.T) {
	s, err := store.OpenSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	_, err = s.Append(ctx, store.NewEventInput{RunID: "run-1", Type: "new-run"})
	require.NoError(t, err)
	_, err = s.Append(ctx, store.NewEventInput{RunID: "run-1", Type: "append-event"})
	require.NoError(t, err)

	zipBytes, _, err := GeneratePack(ctx, s, Request{RunID: "run-1", NoArtifacts: true})
	require.NoError(t, err)

	events := readZipFile(t, zipBytes, "events.json")
	assert.Contains(t, string(events), "new-run")
	assert.Contains(t, string(events), "append-event")

	manifest := readZipFile(t, zipBytes, "manifest.json")
	assert.Contains(t, string(manifest), `"eventCount": 2`)
}

func TestGeneratePack_IncludesArtifactFiles(t *testing.T) {
	s, err := store.OpenSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	_, err = s.Append(ctx, store.NewEventInput{RunID: "run-1", Type: "new-run"})
	require.NoError(t, err)

	root := t.TempDir()
	_, err = artifactfs.EnsureRunDir(root, "run-1")
	require.NoError(t, err)
	require.NoError(t, artifactfs.WriteDoD(root, "run-1", map[string]string{"dodId": "dod-1"}))

	src := filepath.Join(t.TempDir(), "log.txt")
	require.NoError(t, os.WriteFile(src, []byte("build output"), 0o644))
	_, err = artifactfs.PutArtifact(root, "run-1", src, "log.txt")
	require.NoError(t, err)

	zipBytes, _, err := GeneratePack(ctx, s, Request{RunID: "run-1", ArtifactRoot: root})
	require.NoError(t, err)

	dodEntry := readZipFile(t, zipBytes, "run/dod.json")
	assert.Contains(t, string(dodEntry), "dod-1")

	logEntry := readZipFile(t, zipBytes, "run/artifacts/log.txt")
	assert.Equal(t, "build output", string(logEntry))
}

func TestGeneratePack_SkipsOversizedArtifacts(t *testing.T) {
	s, err := store.OpenSQLiteStore(":memory:")
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	_, err = s.Append(ctx, store.NewEventInput{RunID: "run-1", Type: "new-run"})
	require.NoError(t, err)

	root := t.TempDir()
	_, err = artifactfs.EnsureRunDir(root, "run-1")
	require.NoError(t, err)
	require.NoError(t, artifactfs.WriteDoD(root, "run-1", map[string]string{"dodId": "dod-1-with-a-longer-value-to-exceed-the-byte-limit"}))

	zipBytes, _, err := GeneratePack(ctx, s, Request{RunID: "run-1", ArtifactRoot: root, MaxIncludeBytes: 5})
	require.NoError(t, err)

	manifest := readZipFile(t, zipBytes, "manifest.json")
	assert.Contains(t, string(manifest), "dod.json")
	assert.Contains(t, string(manifest), "artifactsSkipped")
}
