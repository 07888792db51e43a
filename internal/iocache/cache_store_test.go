package iocache

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/fragmeter/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteCacheStore(t *testing.T) *CacheStoreImpl {
	t.Helper()
	store, err := NewCacheStore(activityTable, schema.SQLiteBackend, filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCacheStoreRoundTrip(t *testing.T) {
	store := newSQLiteCacheStore(t)

	_, _, _, err := store.Get("missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, store.Set("alice", []byte(`[{"id":"1"}]`), 1, 1000))
	value, version, ts, err := store.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, `[{"id":"1"}]`, string(value))
	assert.Equal(t, 1, version)
	assert.Equal(t, int64(1000), ts)

	// Set replaces the existing entry
	require.NoError(t, store.Set("alice", []byte(`[]`), 2, 2000))
	value, version, ts, err = store.Get("alice")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(value))
	assert.Equal(t, 2, version)
	assert.Equal(t, int64(2000), ts)
}

func TestCacheStoreStatus(t *testing.T) {
	store := newSQLiteCacheStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Equal(t, "sqlite", status.Backend)
	assert.Zero(t, status.TotalEntries)

	require.NoError(t, store.Set("a", []byte("x"), 1, 1000))
	require.NoError(t, store.Set("b", []byte("y"), 1, 3000))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, status.TotalEntries)
	assert.True(t, status.LastEntryTime.Equal(time.Unix(3000, 0)))
	assert.True(t, status.OldestEntryTime.Equal(time.Unix(1000, 0)))
	assert.Positive(t, status.TableSizeBytes)
}

func TestCacheStoreNoneBackend(t *testing.T) {
	store, err := NewCacheStore(activityTable, schema.NoneBackend, "")
	require.NoError(t, err)

	require.NoError(t, store.Set("k", []byte("v"), 1, 1))
	_, _, _, err = store.Get("k")
	assert.ErrorIs(t, err, sql.ErrNoRows)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)
	assert.NoError(t, store.Close())
}

func TestNewCacheStoreErrors(t *testing.T) {
	_, err := NewCacheStore("bad-name;", schema.SQLiteBackend, "")
	assert.Error(t, err)

	_, err = NewCacheStore(activityTable, schema.DatabaseBackend("oracle"), "")
	assert.Error(t, err)

	_, err = NewCacheStore(activityTable, schema.SQLiteBackend, filepath.Join(t.TempDir(), "missing", "dir", "cache.db"))
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	query := "SELECT a FROM t WHERE b = ? AND c = ?"
	assert.Equal(t, query, rebind(query, schema.SQLiteBackend))
	assert.Equal(t, query, rebind(query, schema.MySQLBackend))
	assert.Equal(t, "SELECT a FROM t WHERE b = $1 AND c = $2", rebind(query, schema.PostgreSQLBackend))
}

func TestQuoteTableName(t *testing.T) {
	assert.Equal(t, "`runs`", quoteTableName("runs", schema.MySQLBackend))
	assert.Equal(t, `"runs"`, quoteTableName("runs", schema.PostgreSQLBackend))
	assert.Equal(t, `"runs"`, quoteTableName("runs", schema.SQLiteBackend))
}

func TestTimeScanner(t *testing.T) {
	want := time.Date(2024, time.June, 5, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name  string
		src   any
		valid bool
	}{
		{name: "nil", src: nil},
		{name: "native", src: want, valid: true},
		{name: "rfc3339", src: "2024-06-05T12:30:00Z", valid: true},
		{name: "mysql bytes", src: []byte("2024-06-05 12:30:00"), valid: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var ts timeScanner
			require.NoError(t, ts.Scan(tt.src))
			assert.Equal(t, tt.valid, ts.Valid)
			if tt.valid {
				assert.True(t, want.Equal(ts.Time))
			}
		})
	}

	var ts timeScanner
	assert.Error(t, ts.Scan(42))
	assert.Error(t, ts.Scan("yesterday"))
}
