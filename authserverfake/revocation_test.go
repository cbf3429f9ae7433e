package authserverfake

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRevocationList(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	l := newRevocationList()

	l.revoke("a", now.Add(time.Minute), now)
	require.True(t, l.contains("a"))
	require.False(t, l.contains("b"))

	l.revoke("b", now.Add(5*time.Minute), now.Add(2*time.Minute))
	require.False(t, l.contains("a"), "expired entries are pruned")
	require.True(t, l.contains("b"))
	require.Equal(t, 1, l.len())
}
