package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore is the default AuditStore backend, grounded on the
// teacher's SQLiteReceiptStore: a single migrated table, with the
// per-run sequence serialized by an in-process mutex the same way the
// teacher's in-memory AuditStore serializes its chain head.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenSQLiteStore opens (creating if necessary) a sqlite-backed audit
// store at path and migrates its schema.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite store: %w", err)
	}
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewSQLiteStoreFromDB wraps an already-open *sql.DB, migrating its
// schema. Used by tests to exercise SQLiteStore against an in-memory
// database.
func NewSQLiteStoreFromDB(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_events (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		event_id TEXT NOT NULL,
		timestamp DATETIME NOT NULL,
		type TEXT NOT NULL,
		actor TEXT,
		host TEXT,
		correlation TEXT,
		payload TEXT,
		prev_hash TEXT,
		hash TEXT NOT NULL,
		PRIMARY KEY (run_id, seq)
	);`
	_, err := s.db.Exec(query)
	return err
}

// Append appends a new event to in.RunID's chain: it computes the next
// seq and the prevHash under the store's mutex so two concurrent
// Append calls for the same run can never race on the chain head.
func (s *SQLiteStore) Append(ctx context.Context, in NewEventInput) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var maxSeq sql.NullInt64
	var lastHash sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT seq, hash FROM audit_events WHERE run_id = ? ORDER BY seq DESC LIMIT 1`, in.RunID,
	).Scan(&maxSeq, &lastHash)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("query chain head: %w", err)
	}

	var prevHash *string
	seq := 1
	if maxSeq.Valid {
		seq = int(maxSeq.Int64) + 1
		h := lastHash.String
		prevHash = &h
	}

	event := Event{
		Seq:         seq,
		EventID:     newEventID(),
		RunID:       in.RunID,
		Timestamp:   time.Now().UTC(),
		Type:        in.Type,
		Actor:       in.Actor,
		Host:        in.Host,
		Correlation: in.Correlation,
		Payload:     in.Payload,
		PrevHash:    prevHash,
	}
	hash, err := ComputeEventHash(event)
	if err != nil {
		return nil, fmt.Errorf("compute event hash: %w", err)
	}
	event.Hash = hash

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_events (run_id, seq, event_id, timestamp, type, actor, host, correlation, payload, prev_hash, hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.RunID, event.Seq, event.EventID, event.Timestamp.Format(time.RFC3339Nano), event.Type,
		event.Actor, event.Host, event.Correlation, string(event.Payload), prevHashValue(event.PrevHash), event.Hash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	return &event, nil
}

// List returns every event for runID, ordered by seq ascending.
func (s *SQLiteStore) List(ctx context.Context, runID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, event_id, timestamp, type, actor, host, correlation, payload, prev_hash, hash
		 FROM audit_events WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e          Event
			timestamp  string
			actor      sql.NullString
			host       sql.NullString
			corr       sql.NullString
			payload    sql.NullString
			prevHash   sql.NullString
		)
		if err := rows.Scan(&e.Seq, &e.EventID, &timestamp, &e.Type, &actor, &host, &corr, &payload, &prevHash, &e.Hash); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.RunID = runID
		e.Timestamp = parseTimestamp(timestamp)
		e.Actor = actor.String
		e.Host = host.String
		e.Correlation = corr.String
		if payload.Valid && payload.String != "" {
			e.Payload = []byte(payload.String)
		}
		if prevHash.Valid {
			h := prevHash.String
			e.PrevHash = &h
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Close closes the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func prevHashValue(p *string) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

func parseTimestamp(value string) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return time.Time{}
}
