// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package audit

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_buildInsertEventQuery(t *testing.T) {
	e := Event{
		ID:       "0191e240-0000-7000-8000-000000000001",
		At:       time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
		Op:       OpSync,
		Path:     "folder/subsecret-a",
		HandleID: "handle-1",
		Err:      "",
	}

	query, args, err := buildInsertEventQuery(e)
	require.NoError(t, err)

	q := strings.ToLower(query)
	require.Contains(t, q, "insert into events")
	for _, col := range []string{"id", "at", "op", "path", "handle_id", "err"} {
		require.Contains(t, q, col)
	}

	// placeholder format should be ? (SQLite)
	assert.Contains(t, query, "?")
	assert.NotContains(t, query, "$1")

	require.Len(t, args, 6)
	assert.Equal(t, e.ID, args[0])
	assert.Equal(t, e.At, args[1])
	assert.Equal(t, e.Op, args[2])
	assert.Equal(t, e.Path, args[3])
	assert.Equal(t, e.HandleID, args[4])
	assert.Equal(t, e.Err, args[5])
}

func Test_buildSelectEventsQuery(t *testing.T) {
	tests := []struct {
		name       string
		filter     Filter
		checkQuery func(t *testing.T, query string, args []any)
	}{
		{
			name:   "no filter selects everything",
			filter: Filter{},
			checkQuery: func(t *testing.T, query string, args []any) {
				q := strings.ToLower(query)
				assert.NotContains(t, q, "where")
				assert.NotContains(t, q, "limit")
				assert.Empty(t, args)
			},
		},
		{
			name:   "path filter",
			filter: Filter{Path: "folder/subsecret-a"},
			checkQuery: func(t *testing.T, query string, args []any) {
				q := strings.ToLower(query)
				assert.Contains(t, q, "where")
				assert.Contains(t, q, "path = ?")
				assert.Equal(t, []any{"folder/subsecret-a"}, args)
			},
		},
		{
			name:   "op filter",
			filter: Filter{Op: OpOpenWrite},
			checkQuery: func(t *testing.T, query string, args []any) {
				q := strings.ToLower(query)
				assert.Contains(t, q, "op = ?")
				assert.Equal(t, []any{OpOpenWrite}, args)
			},
		},
		{
			name:   "combined filter with limit",
			filter: Filter{Path: "secret-a", Op: OpSync, Limit: 10},
			checkQuery: func(t *testing.T, query string, args []any) {
				q := strings.ToLower(query)
				assert.Contains(t, q, "path = ?")
				assert.Contains(t, q, "op = ?")
				assert.Contains(t, q, "limit 10")
				assert.Equal(t, []any{"secret-a", OpSync}, args)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := buildSelectEventsQuery(tt.filter)
			require.NoError(t, err)

			q := strings.ToLower(query)
			require.Contains(t, q, "select")
			require.Contains(t, q, "from events")
			require.Contains(t, q, "order by at asc, id asc")

			tt.checkQuery(t, query, args)
		})
	}
}
