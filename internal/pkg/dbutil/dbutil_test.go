package dbutil

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalizeRebindsAndSwapsLimit(t *testing.T) {
	query, args := Finalize("SELECT id FROM reminders WHERE state = ? LIMIT ?,?", []interface{}{"pending", 0, 50})
	require.Equal(t, "SELECT id FROM reminders WHERE state = $1 LIMIT $2 OFFSET $3", query)
	require.Equal(t, []interface{}{"pending", 50, 0}, args)
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.False(t, IsConflict(&pq.Error{Code: "23503"}))
	require.False(t, IsConflict(nil))
}
