package registry

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "registry.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Record(ctx, "/tmp/a.json", "primary", "0xabc", "mainnet")
	require.NoError(t, err)

	e, ok, err := s.Get(ctx, "/tmp/a.json")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "primary", e.Alias)
	assert.Equal(t, "0xabc", e.Address)
	assert.Equal(t, "mainnet", e.Network)
	assert.Equal(t, 0, e.FailedAttempts)

	_, ok, err = s.Get(ctx, "/tmp/missing.json")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRecordUpsert(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Record(ctx, "/tmp/a.json", "old", "0xabc", "mainnet")
	require.NoError(t, err)
	_, err = s.RecordFailedUnlock(ctx, "/tmp/a.json")
	require.NoError(t, err)

	// re-saving the same path refreshes metadata and clears the counter
	_, err = s.Record(ctx, "/tmp/a.json", "new", "0xdef", "sepolia")
	require.NoError(t, err)

	e, ok, err := s.Get(ctx, "/tmp/a.json")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "new", e.Alias)
	assert.Equal(t, "0xdef", e.Address)
	assert.Equal(t, 0, e.FailedAttempts)
}

func TestList(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Record(ctx, "/tmp/a.json", "", "0xa", "mainnet")
	require.NoError(t, err)
	_, err = s.Record(ctx, "/tmp/b.json", "", "0xb", "mainnet")
	require.NoError(t, err)

	entries, err := s.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestFailedUnlockCounter(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	// counting starts even for paths never recorded, so lockout always applies
	for want := 1; want <= 3; want++ {
		got, err := s.RecordFailedUnlock(ctx, "/tmp/unseen.json")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	require.NoError(t, s.ResetUnlockAttempts(ctx, "/tmp/unseen.json"))
	got, err := s.RecordFailedUnlock(ctx, "/tmp/unseen.json")
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestRemove(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	_, err := s.Record(ctx, "/tmp/a.json", "", "0xa", "mainnet")
	require.NoError(t, err)
	require.NoError(t, s.Remove(ctx, "/tmp/a.json"))

	_, ok, err := s.Get(ctx, "/tmp/a.json")
	require.NoError(t, err)
	assert.False(t, ok)
}
