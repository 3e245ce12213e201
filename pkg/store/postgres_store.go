package store

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

// PostgresStore is the alternate AuditStore backend selected via
// CLAWFORGE_DB_DRIVER=postgres, the same table shape and Append/List
// contract as SQLiteStore but driven by lib/pq's $N placeholder
// dialect instead of sqlite's `?`.
type PostgresStore struct {
	db *sql.DB
	mu sync.Mutex
}

// OpenPostgresStore opens a lib/pq connection to connStr and migrates
// the audit_events table.
func OpenPostgresStore(connStr string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("open postgres store: %w", err)
	}
	s := &PostgresStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// NewPostgresStoreFromDB wraps an already-open *sql.DB (e.g. a
// go-sqlmock DB in tests), migrating its schema.
func NewPostgresStoreFromDB(db *sql.DB) (*PostgresStore, error) {
	s := &PostgresStore{db: db}
	if err := s.migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS audit_events (
		run_id TEXT NOT NULL,
		seq INTEGER NOT NULL,
		event_id TEXT NOT NULL,
		timestamp TIMESTAMPTZ NOT NULL,
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

// Append has the same chain-head-under-mutex contract as
// SQLiteStore.Append, reimplemented against $N placeholders.
func (s *PostgresStore) Append(ctx context.Context, in NewEventInput) (*Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var maxSeq sql.NullInt64
	var lastHash sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT seq, hash FROM audit_events WHERE run_id = $1 ORDER BY seq DESC LIMIT 1`, in.RunID,
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
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		event.RunID, event.Seq, event.EventID, event.Timestamp, event.Type,
		event.Actor, event.Host, event.Correlation, string(event.Payload), prevHashValue(event.PrevHash), event.Hash,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	return &event, nil
}

// List returns every event for runID, ordered by seq ascending.
func (s *PostgresStore) List(ctx context.Context, runID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, event_id, timestamp, type, actor, host, correlation, payload, prev_hash, hash
		 FROM audit_events WHERE run_id = $1 ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e        Event
			actor    sql.NullString
			host     sql.NullString
			corr     sql.NullString
			payload  sql.NullString
			prevHash sql.NullString
		)
		if err := rows.Scan(&e.Seq, &e.EventID, &e.Timestamp, &e.Type, &actor, &host, &corr, &payload, &prevHash, &e.Hash); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		e.RunID = runID
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
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
