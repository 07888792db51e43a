package source

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/fragmeter/internal/iocache"
	"github.com/huangsam/fragmeter/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var cacheNow = time.Date(2024, time.June, 5, 12, 0, 0, 0, time.UTC)

func cachedItems() []schema.ActivityItem {
	return []schema.ActivityItem{{Type: "teams_meeting", Timestamp: day.Add(9 * time.Hour), Source: schema.TeamsSource}}
}

func newTestCachedSource(next *MockActivitySource, store *iocache.MockCacheStore) *CachedSource {
	src := NewCachedSource(next, store, time.Hour)
	src.Now = func() time.Time { return cacheNow }
	return src
}

func TestCachedSourceHit(t *testing.T) {
	next := &MockActivitySource{}
	store := &iocache.MockCacheStore{}
	data, err := json.Marshal(cachedItems())
	require.NoError(t, err)

	key := generateCacheKey("alice", day, day.AddDate(0, 0, 1))
	store.On("Get", key).Return(data, currentCacheVersion, cacheNow.Add(-time.Minute).Unix(), nil)

	items, err := newTestCachedSource(next, store).FetchActivities(context.Background(), "alice", day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "teams_meeting", items[0].Type)

	next.AssertNotCalled(t, "FetchActivities", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	store.AssertExpectations(t)
}

func TestCachedSourceEmptyWindowHit(t *testing.T) {
	for _, payload := range []string{"null", "[]"} {
		t.Run(payload, func(t *testing.T) {
			next := &MockActivitySource{}
			store := &iocache.MockCacheStore{}
			end := day.AddDate(0, 0, 1)

			store.On("Get", generateCacheKey("alice", day, end)).Return([]byte(payload), currentCacheVersion, cacheNow.Unix(), nil)

			items, err := newTestCachedSource(next, store).FetchActivities(context.Background(), "alice", day, end)
			require.NoError(t, err)
			assert.NotNil(t, items)
			assert.Empty(t, items)

			next.AssertNotCalled(t, "FetchActivities", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCachedSourceMiss(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		version int
		ts      int64
		err     error
	}{
		{name: "no entry", err: sql.ErrNoRows},
		{name: "old version", data: []byte("[]"), version: currentCacheVersion + 1, ts: cacheNow.Unix()},
		{name: "stale entry", data: []byte("[]"), version: currentCacheVersion, ts: cacheNow.Add(-2 * time.Hour).Unix()},
		{name: "corrupt entry", data: []byte("{"), version: currentCacheVersion, ts: cacheNow.Unix()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &MockActivitySource{}
			store := &iocache.MockCacheStore{}
			end := day.AddDate(0, 0, 1)

			store.On("Get", mock.Anything).Return(tt.data, tt.version, tt.ts, tt.err)
			store.On("Set", mock.Anything, mock.Anything, currentCacheVersion, cacheNow.Unix()).Return(nil)
			next.On("FetchActivities", mock.Anything, "alice", day, end).Return(cachedItems(), nil)

			items, err := newTestCachedSource(next, store).FetchActivities(context.Background(), "alice", day, end)
			require.NoError(t, err)
			assert.Len(t, items, 1)

			next.AssertExpectations(t)
			store.AssertExpectations(t)
		})
	}
}

func TestCachedSourceErrorsAreNotCached(t *testing.T) {
	next := &MockActivitySource{}
	store := &iocache.MockCacheStore{}
	end := day.AddDate(0, 0, 1)

	store.On("Get", mock.Anything).Return(nil, 0, int64(0), sql.ErrNoRows)
	next.On("FetchActivities", mock.Anything, "alice", day, end).Return(nil, errors.New("offline"))

	_, err := newTestCachedSource(next, store).FetchActivities(context.Background(), "alice", day, end)
	assert.ErrorContains(t, err, "offline")
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedSourceWriteFailure(t *testing.T) {
	next := &MockActivitySource{}
	store := &iocache.MockCacheStore{}
	end := day.AddDate(0, 0, 1)

	store.On("Get", mock.Anything).Return(nil, 0, int64(0), sql.ErrNoRows)
	store.On("Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))
	next.On("FetchActivities", mock.Anything, "alice", day, end).Return(cachedItems(), nil)

	items, err := newTestCachedSource(next, store).FetchActivities(context.Background(), "alice", day, end)
	require.NoError(t, err, "a failed cache write still returns the fetched items")
	assert.Len(t, items, 1)
}

func TestGenerateCacheKey(t *testing.T) {
	end := day.AddDate(0, 0, 1)
	key := generateCacheKey("alice", day, end)
	assert.Len(t, key, 64)
	assert.Equal(t, key, generateCacheKey("alice", day, end))
	assert.NotEqual(t, key, generateCacheKey("bob", day, end))
	assert.NotEqual(t, key, generateCacheKey("alice", day, end.Add(time.Second)))
}
