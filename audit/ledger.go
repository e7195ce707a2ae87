// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package audit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/MKhiriev/go-pass-store/audit/migrations"
)

// Ledger is the SQLite-backed [Recorder]. It appends events to a single
// `events` table; the journal file lives wherever the caller points it,
// typically outside the password store so the tree walk never sees it.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if necessary) the journal database at path and
// applies pending schema migrations.
func Open(ctx context.Context, path string) (*Ledger, error) {
	if err := createDBFileIfNotExists(path); err != nil {
		return nil, fmt.Errorf("create journal file: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal: %w", err)
	}

	if err := migrations.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Ledger{db: db}, nil
}

// NewLedger wraps an already-open database without running migrations.
// Intended for tests that supply their own connection.
func NewLedger(db *sql.DB) *Ledger {
	return &Ledger{db: db}
}

// Record implements [Recorder].
func (l *Ledger) Record(ctx context.Context, e Event) error {
	query, args, err := buildInsertEventQuery(e)
	if err != nil {
		return fmt.Errorf("build insert query: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	return nil
}

// Filter narrows a [Ledger.List] read. Zero-value fields match everything.
type Filter struct {
	// Path restricts the result to events addressing this exact logical
	// path.
	Path string

	// Op restricts the result to one operation name (an Op* constant).
	Op string

	// Limit caps the number of returned events; 0 means no cap.
	Limit uint64
}

// List reads the journal back in insertion order.
func (l *Ledger) List(ctx context.Context, f Filter) ([]Event, error) {
	query, args, err := buildSelectEventsQuery(f)
	if err != nil {
		return nil, fmt.Errorf("build select query: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.At, &e.Op, &e.Path, &e.HandleID, &e.Err); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	return events, nil
}

// Close implements [Recorder].
func (l *Ledger) Close() error {
	return l.db.Close()
}

func createDBFileIfNotExists(dbFile string) error {
	if _, err := os.Stat(dbFile); errors.Is(err, os.ErrNotExist) {
		if dir := filepath.Dir(dbFile); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		f, err := os.OpenFile(dbFile, os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return err
		}
		return f.Close()
	}

	return nil
}
