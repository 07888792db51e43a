package source

import (
	"context"
	"time"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
	"github.com/stretchr/testify/mock"
)

// MockActivitySource is a mock implementation of ActivitySource for testing.
type MockActivitySource struct {
	mock.Mock
}

var (
	_ contract.ActivitySource = &MockActivitySource{} // Compile-time check
	_ contract.UserLister     = &MockActivitySource{} // Compile-time check
)

// FetchActivities implements the ActivitySource interface.
func (m *MockActivitySource) FetchActivities(ctx context.Context, userID string, start, end time.Time) ([]schema.ActivityItem, error) {
	ret := m.Called(ctx, userID, start, end)
	items, _ := ret.Get(0).([]schema.ActivityItem)
	return items, ret.Error(1)
}

// Users implements the UserLister interface.
func (m *MockActivitySource) Users(ctx context.Context) ([]string, error) {
	ret := m.Called(ctx)
	users, _ := ret.Get(0).([]string)
	return users, ret.Error(1)
}
