package main

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/auditexport"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/config"
)

const defaultMaxIncludeBytes = 25 * 1024 * 1024

// runExportEvidenceCmd implements `clawctl export-evidence --run --out
// [--max-include-bytes] [--no-artifacts]`: it builds a checksummed
// evidence zip for a run and writes it to --out.
//
// Exit codes: 0 ok, 1 on missing flags, store error, or write failure.
func runExportEvidenceCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("export-evidence", flag.ContinueOnError)
	cmd.SetOutput(stderr)
	var runID, out string
	var maxIncludeBytes int64
	var noArtifacts bool
	cmd.StringVar(&runID, "run", "", "Run ID (REQUIRED)")
	cmd.StringVar(&out, "out", "", "Output zip path (REQUIRED)")
	cmd.Int64Var(&maxIncludeBytes, "max-include-bytes", defaultMaxIncludeBytes, "Skip artifact files larger than this")
	cmd.BoolVar(&noArtifacts, "no-artifacts", false, "Exclude run artifact files from the export")
	if err := cmd.Parse(args); err != nil {
		return 2
	}

	if runID == "" || out == "" {
		fmt.Fprintln(stderr, "Error: --run and --out are required")
		return 1
	}

	cfg := config.Load()
	s, err := openAuditStore(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer s.Close()

	data, checksum, err := auditexport.GeneratePack(context.Background(), s, auditexport.Request{
		RunID:           runID,
		ArtifactRoot:    cfg.ArtifactRoot,
		MaxIncludeBytes: maxIncludeBytes,
		NoArtifacts:     noArtifacts,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		fmt.Fprintf(stderr, "Error: write %s: %v\n", out, err)
		return 1
	}

	localChecksum := sha256.Sum256(data)
	if hex.EncodeToString(localChecksum[:]) != checksum {
		fmt.Fprintln(stderr, "Error: internal checksum mismatch while writing export")
		return 1
	}

	fmt.Fprintf(stdout, "exported %s\n", out)
	fmt.Fprintf(stdout, "sha256:  %s\n", checksum)
	return 0
}
