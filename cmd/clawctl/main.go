// Command clawctl is clawforge's host-side CLI collaborator (§6): it
// owns all I/O (reading artifact files, talking to the audit store,
// writing exported packs) and calls into the pure core packages, which
// take and return fully-materialized values. Its dispatch shape —
// flag.NewFlagSet per subcommand, a testable Run(args, stdout, stderr)
// entrypoint, and an ANSI-colored usage banner — follows the teacher's
// cmd/helm/main.go.
package main

import (
	"fmt"
	"io"
	"os"
)

func main() {
	os.Exit(Run(os.Args, os.Stdout, os.Stderr))
}

// Run is clawctl's single dispatch point, kept separate from main() so
// tests can invoke it directly against buffers instead of the real
// process stdout/stderr/exit status.
func Run(args []string, stdout, stderr io.Writer) int {
	if len(args) < 2 {
		printUsage(stdout)
		return 2
	}

	switch args[1] {
	case "init":
		return runInitCmd(args[2:], stdout, stderr)
	case "config":
		return runConfigCmd(args[2:], stdout, stderr)
	case "validate-contract":
		return runValidateContractCmd(args[2:], stdout, stderr)
	case "new-run":
		return runNewRunCmd(args[2:], stdout, stderr)
	case "append-event":
		return runAppendEventCmd(args[2:], stdout, stderr)
	case "list-events":
		return runListEventsCmd(args[2:], stdout, stderr)
	case "verify-run":
		return runVerifyRunCmd(args[2:], stdout, stderr)
	case "put-artifact":
		return runPutArtifactCmd(args[2:], stdout, stderr)
	case "review-step":
		return runReviewStepCmd(args[2:], stdout, stderr)
	case "export-evidence":
		return runExportEvidenceCmd(args[2:], stdout, stderr)
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", args[1])
		printUsage(stderr)
		return 2
	}
}

const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorBlue   = "\033[34m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[37m"
)

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%sclawctl%s\n", colorBold+colorBlue, colorReset)
	fmt.Fprintf(w, "%sSession governance artifacts, validated and chained.%s\n", colorGray, colorReset)
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "%sUSAGE:%s\n", colorBold, colorReset)
	fmt.Fprintln(w, "  clawctl <command> [flags]")
	fmt.Fprintln(w, "")

	printSection(w, "HOST")
	printCommand(w, "init", "Initialize ~/.clawforge (db, artifacts, profile)")
	printCommand(w, "config show", "Show resolved configuration (--json)")

	printSection(w, "CONTRACTS")
	printCommand(w, "validate-contract", "Validate one artifact file against its schema (<file> [--json])")

	printSection(w, "RUNS")
	printCommand(w, "new-run", "Start a new run's audit event chain")
	printCommand(w, "append-event", "Append an event to a run's audit chain")
	printCommand(w, "list-events", "List a run's audit events (--json)")
	printCommand(w, "verify-run", "Verify a run's audit chain integrity (--json)")

	printSection(w, "ARTIFACTS")
	printCommand(w, "put-artifact", "Store a file under a run's artifact directory")
	printCommand(w, "export-evidence", "Export a run's events and artifacts as a checksummed zip")

	printSection(w, "REVIEW")
	printCommand(w, "review-step", "Run C12's reviewer roles over a step's envelope/patch/plan")

	printSection(w, "MISC")
	printCommand(w, "help", "Show this help")
	fmt.Fprintln(w, "")
}

func printSection(w io.Writer, title string) {
	fmt.Fprintf(w, "%s%s:%s\n", colorBold+colorCyan, title, colorReset)
}

func printCommand(w io.Writer, name, desc string) {
	fmt.Fprintf(w, "  %s%-18s%s %s\n", colorGreen, name, colorReset, desc)
}
