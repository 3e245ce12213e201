// Package store implements clawforge's audit event chain (§6): a
// second, host-level append-only hash chain, independent of the
// artifact evidence chain the core validates, recording every clawctl
// invocation against a run. It follows the same append-only,
// hash-chained shape as the teacher's AuditStore, repurposed from
// free-form audit entries into the fixed {seq, eventId, timestamp,
// prevHash, hash} event format.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/canonicalize"
)

// Event is one entry in a run's audit chain.
type Event struct {
	Seq       int             `json:"seq"`
	EventID   string          `json:"eventId"`
	RunID     string          `json:"runId"`
	Timestamp time.Time       `json:"timestamp"`
	Type      string          `json:"type"`
	Actor     string          `json:"actor,omitempty"`
	Host      string          `json:"host,omitempty"`
	Correlation string        `json:"correlation,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	PrevHash  *string         `json:"prevHash"`
	Hash      string          `json:"hash"`
}

// hashableEvent is Event minus {hash, prevHash}, the input to the
// event hash per §6: "Event hash = SHA256Hex(Canonicalize(event minus
// {hash, prevHash}))".
type hashableEvent struct {
	Seq         int             `json:"seq"`
	EventID     string          `json:"eventId"`
	RunID       string          `json:"runId"`
	Timestamp   time.Time       `json:"timestamp"`
	Type        string          `json:"type"`
	Actor       string          `json:"actor,omitempty"`
	Host        string          `json:"host,omitempty"`
	Correlation string          `json:"correlation,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// ComputeEventHash computes the event hash of e, ignoring whatever is
// currently stored in e.Hash and e.PrevHash.
func ComputeEventHash(e Event) (string, error) {
	return canonicalize.SHA256HexOf(hashableEvent{
		Seq:         e.Seq,
		EventID:     e.EventID,
		RunID:       e.RunID,
		Timestamp:   e.Timestamp,
		Type:        e.Type,
		Actor:       e.Actor,
		Host:        e.Host,
		Correlation: e.Correlation,
		Payload:     e.Payload,
	})
}

// NewEventInput is the caller-supplied content of a new event; Seq,
// EventID, Timestamp, PrevHash, and Hash are computed by the store.
type NewEventInput struct {
	RunID       string
	Type        string
	Actor       string
	Host        string
	Correlation string
	Payload     json.RawMessage
}

// AuditStore is the append-only audit event chain, implemented by a
// sqlite-backed store (default) and a Postgres-backed store (selected
// via CLAWFORGE_DB_DRIVER=postgres), both satisfying this interface so
// the CLI collaborator is backend-agnostic.
type AuditStore interface {
	Append(ctx context.Context, in NewEventInput) (*Event, error)
	List(ctx context.Context, runID string) ([]Event, error)
	Close() error
}

// FailureKind is one of the §6 closed taxonomy of chain-verification
// failures.
type FailureKind string

const (
	FailureHashMismatch             FailureKind = "hash_mismatch"
	FailurePrevHashMismatch         FailureKind = "prevHash_mismatch"
	FailureFirstEventPrevHashNotNil FailureKind = "first_event_prevHash_not_null"
	FailureSeqGap                   FailureKind = "seq_gap"
)

// ChainFailure describes one way the chain failed verification.
type ChainFailure struct {
	Kind  FailureKind `json:"kind"`
	Seq   int         `json:"seq"`
	Detail string     `json:"detail"`
}

func (f ChainFailure) Error() string {
	return fmt.Sprintf("%s at seq %d: %s", f.Kind, f.Seq, f.Detail)
}

// VerifyChain verifies the §6 invariants over events, which must
// already be ordered by seq ascending: the first event's prevHash is
// nil, seq is a gapless 1-based sequence, each event's stored hash
// matches its recomputed hash, and each event's prevHash matches the
// previous event's stored hash. All failures are collected and
// returned rather than stopping at the first one, so a caller running
// `verify-run` sees the complete picture of a broken chain.
func VerifyChain(events []Event) []ChainFailure {
	var failures []ChainFailure

	for i, e := range events {
		wantSeq := i + 1
		if e.Seq != wantSeq {
			failures = append(failures, ChainFailure{
				Kind: FailureSeqGap, Seq: e.Seq,
				Detail: fmt.Sprintf("expected seq %d, found %d", wantSeq, e.Seq),
			})
		}

		computed, err := ComputeEventHash(e)
		if err != nil {
			failures = append(failures, ChainFailure{Kind: FailureHashMismatch, Seq: e.Seq, Detail: err.Error()})
		} else if computed != e.Hash {
			failures = append(failures, ChainFailure{
				Kind: FailureHashMismatch, Seq: e.Seq,
				Detail: fmt.Sprintf("computed %s, stored %s", computed, e.Hash),
			})
		}

		if i == 0 {
			if e.PrevHash != nil {
				failures = append(failures, ChainFailure{
					Kind: FailureFirstEventPrevHashNotNil, Seq: e.Seq,
					Detail: "first event must have a nil prevHash",
				})
			}
			continue
		}

		prev := events[i-1]
		if e.PrevHash == nil || *e.PrevHash != prev.Hash {
			failures = append(failures, ChainFailure{
				Kind: FailurePrevHashMismatch, Seq: e.Seq,
				Detail: fmt.Sprintf("prevHash does not match preceding event's hash %s", prev.Hash),
			})
		}
	}

	return failures
}

// newEventID generates a fresh event identifier.
func newEventID() string {
	return uuid.New().String()
}
