// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package audit

import (
	sq "github.com/Masterminds/squirrel"
)

const eventsTable = "events"

// buildInsertEventQuery renders the INSERT for one event. SQLite uses the
// default "?" placeholder format.
func buildInsertEventQuery(e Event) (string, []any, error) {
	return sq.Insert(eventsTable).
		Columns("id", "at", "op", "path", "handle_id", "err").
		Values(e.ID, e.At, e.Op, e.Path, e.HandleID, e.Err).
		ToSql()
}

// buildSelectEventsQuery renders the SELECT for reading the journal back.
// Zero-value filter fields do not constrain the result; events come out in
// insertion order (at, then id: UUIDv7 IDs sort by time within equal
// timestamps).
func buildSelectEventsQuery(f Filter) (string, []any, error) {
	q := sq.Select("id", "at", "op", "path", "handle_id", "err").
		From(eventsTable).
		OrderBy("at ASC", "id ASC")

	if f.Path != "" {
		q = q.Where(sq.Eq{"path": f.Path})
	}
	if f.Op != "" {
		q = q.Where(sq.Eq{"op": f.Op})
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	return q.ToSql()
}
