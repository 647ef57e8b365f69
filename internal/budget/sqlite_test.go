package budget

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "ledger.db")
	st, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	return st
}

func TestSQLiteStoreLoadAbsent(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, ok, err := st.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteStoreSaveLoadRoundtrip(t *testing.T) {
	st := newTestSQLiteStore(t)

	want := Record{TotalRequests: 42, ManualRefreshRequests: 7, LastResetDate: "2026-08-30"}
	require.NoError(t, st.Save(want))

	got, ok, err := st.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestSQLiteStoreSaveOverwrites(t *testing.T) {
	st := newTestSQLiteStore(t)

	require.NoError(t, st.Save(Record{TotalRequests: 1, LastResetDate: "2026-08-29"}))
	require.NoError(t, st.Save(Record{TotalRequests: 2, ManualRefreshRequests: 1, LastResetDate: "2026-08-30"}))

	got, ok, err := st.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, got.TotalRequests)
	assert.Equal(t, 1, got.ManualRefreshRequests)
}

func TestSQLiteStoreCorruptRowReadsAsAbsent(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.db.Exec(
		`INSERT INTO request_ledger (id, total_requests, manual_requests, last_reset_date) VALUES (1, -5, 2, 'garbage')`,
	)
	require.NoError(t, err)

	_, ok, err := st.Load()
	require.NoError(t, err)
	assert.False(t, ok, "corrupt record must read as absent, not as an error")
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "ledger.db")

	first, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, first.Save(Record{TotalRequests: 9, ManualRefreshRequests: 3, LastResetDate: "2026-08-30"}))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(dbPath)
	require.NoError(t, err)
	defer second.Close()

	got, ok, err := second.Load()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 9, got.TotalRequests)
}
