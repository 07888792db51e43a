package core

import (
	"context"

	"github.com/huangsam/fragmeter/internal/contract"
)

// Context keys for run tracking
type contextKey string

const (
	runIDKey        contextKey = "runID"
	historyStoreKey contextKey = "historyStore"
)

// withRunID sets the history run that daily scores are recorded under
func withRunID(ctx context.Context, runID int64) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// getRunID returns the history run from context, if any
func getRunID(ctx context.Context) (int64, bool) {
	runID, ok := ctx.Value(runIDKey).(int64)
	return runID, ok && runID > 0
}

// withHistoryStore sets the store used to record daily scores
func withHistoryStore(ctx context.Context, store contract.HistoryStore) context.Context {
	return context.WithValue(ctx, historyStoreKey, store)
}

// historyStoreFromContext returns the history store from context, or nil
func historyStoreFromContext(ctx context.Context) contract.HistoryStore {
	store, _ := ctx.Value(historyStoreKey).(contract.HistoryStore)
	return store
}
