// Package journal provides SQLite-backed durable storage for sync
// transitions.
//
// The journal is an append-only record of every command the sync engine
// issued: which side triggered it, what was written to the other side, and
// whether the endpoint accepted it. The trace CLI command reads it back.
//
// Ordering uses a seq INTEGER logical counter seeded from the existing
// maximum at open, never wall-clock timestamps, so a reopened journal
// continues the same total order.
//
// Database configuration:
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL: balance durability/performance
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - single connection: SQLite supports one writer at a time
package journal

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Sync directions as stored in the journal.
const (
	DirectionOBSToTM = "obs_to_tm"
	DirectionTMToOBS = "tm_to_obs"
)

// Transition outcomes as stored in the journal.
const (
	OutcomeOK           = "ok"
	OutcomeCommandError = "command_error"
)

// Transition is one journaled sync decision that resulted in a command.
type Transition struct {
	Token     string    // sync token (UUIDv7 in production)
	Seq       int64     // logical order, assigned by Record
	Direction string    // DirectionOBSToTM or DirectionTMToOBS
	Trigger   string    // observed state that triggered the sync
	Target    string    // state issued to the opposite side
	Outcome   string    // OutcomeOK or OutcomeCommandError
	Error     string    // endpoint error text when Outcome != OutcomeOK
	CreatedAt time.Time // informational; never used for ordering
}

// Journal is a SQLite-backed transition log.
type Journal struct {
	db  *sql.DB
	seq atomic.Int64
}

// Open creates or opens a journal database at the given path, applying
// pragmas and the schema. The seq counter resumes from the stored maximum.
func Open(path string) (*Journal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: connect: %w", err)
	}

	// Single writer avoids SQLITE_BUSY under concurrent handler goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("journal: %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: apply schema: %w", err)
	}

	j := &Journal{db: db}

	var maxSeq sql.NullInt64
	if err := db.QueryRow("SELECT MAX(seq) FROM transitions").Scan(&maxSeq); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: read max seq: %w", err)
	}
	if maxSeq.Valid {
		j.seq.Store(maxSeq.Int64)
	}

	return j, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record appends a transition, assigning its seq and created_at.
// Returns the assigned seq.
func (j *Journal) Record(ctx context.Context, t Transition) (int64, error) {
	seq := j.seq.Add(1)
	createdAt := time.Now().UTC().Format(time.RFC3339Nano)

	_, err := j.db.ExecContext(ctx, `
		INSERT INTO transitions
		(token, seq, direction, trigger_state, target_state, outcome, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.Token,
		seq,
		t.Direction,
		t.Trigger,
		t.Target,
		t.Outcome,
		t.Error,
		createdAt,
	)
	if err != nil {
		return 0, fmt.Errorf("journal: record transition %s: %w", t.Token, err)
	}

	return seq, nil
}

// List returns all transitions in seq order.
func (j *Journal) List(ctx context.Context) ([]Transition, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT token, seq, direction, trigger_state, target_state, outcome, error, created_at
		FROM transitions
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("journal: list transitions: %w", err)
	}
	defer rows.Close()

	var out []Transition
	for rows.Next() {
		var t Transition
		var createdAt string
		if err := rows.Scan(&t.Token, &t.Seq, &t.Direction, &t.Trigger, &t.Target, &t.Outcome, &t.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("journal: scan transition: %w", err)
		}
		ts, err := time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("journal: parse created_at %q: %w", createdAt, err)
		}
		t.CreatedAt = ts
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: list transitions: %w", err)
	}

	return out, nil
}

// Len returns the number of journaled transitions.
func (j *Journal) Len(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM transitions").Scan(&n); err != nil {
		return 0, fmt.Errorf("journal: count transitions: %w", err)
	}
	return n, nil
}
