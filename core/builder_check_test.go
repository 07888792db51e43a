package core

import (
	"context"
	"errors"
	"testing"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRunCheck(t *testing.T) {
	tests := []struct {
		name       string
		threshold  float64
		passed     bool
		violations []string
	}{
		{name: "high gate passes", threshold: 3.5, passed: true},
		{name: "gate at the score is violated", threshold: 3.0, violations: []string{"bob"}},
		{name: "low gate catches both", threshold: 1.0, violations: []string{"alice", "bob"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Users = []string{"alice", "bob"}
			cfg.CheckThreshold = tt.threshold
			src := &source.MockActivitySource{}
			src.On("FetchActivities", mock.Anything, "alice", mock.Anything, mock.Anything).Return(meetings(day(5), 3), nil)
			src.On("FetchActivities", mock.Anything, "bob", mock.Anything, mock.Anything).Return(switchyDay(day(5)), nil)

			result, err := RunCheck(context.Background(), cfg, src, NewScorer(cfg))
			require.NoError(t, err)

			assert.Equal(t, tt.passed, result.Passed)
			assert.Len(t, result.Results, 2)
			var violators []string
			for _, v := range result.Violations {
				violators = append(violators, v.UserID)
			}
			assert.Equal(t, tt.violations, violators)
		})
	}
}

func TestRunCheckFailuresFailTheGate(t *testing.T) {
	cfg := testConfig()
	cfg.Users = []string{"alice"}
	src := &source.MockActivitySource{}
	src.On("FetchActivities", mock.Anything, "alice", mock.Anything, mock.Anything).Return(nil, errors.New("offline"))

	result, err := RunCheck(context.Background(), cfg, src, NewScorer(cfg))
	require.NoError(t, err)
	assert.False(t, result.Passed)
	assert.Empty(t, result.Violations)
	assert.Len(t, result.Failures, 1)
}

func TestRunCheckListsUsers(t *testing.T) {
	cfg := testConfig()
	src := &source.MockActivitySource{}
	src.On("Users", mock.Anything).Return([]string{"alice"}, nil)
	src.On("FetchActivities", mock.Anything, "alice", mock.Anything, mock.Anything).Return(meetings(day(5), 1), nil)

	result, err := RunCheck(context.Background(), cfg, src, NewScorer(cfg))
	require.NoError(t, err)
	assert.True(t, result.Passed)
	require.Len(t, result.Results, 1)
	assert.Equal(t, "alice", result.Results[0].UserID)
}

func TestRunCheckNoUsers(t *testing.T) {
	cfg := testConfig()
	src := &source.MockActivitySource{}
	src.On("Users", mock.Anything).Return([]string{}, nil)

	result, err := RunCheck(context.Background(), cfg, src, NewScorer(cfg))
	require.NoError(t, err)
	assert.True(t, result.Passed)
	assert.Empty(t, result.Results)
	src.AssertNotCalled(t, "FetchActivities", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckResultBuilderValidation(t *testing.T) {
	cfg := testConfig()
	cfg.CheckThreshold = 7
	_, err := NewCheckResultBuilder(context.Background(), cfg, &source.MockActivitySource{}, NewScorer(cfg)).ValidatePrerequisites()
	assert.True(t, contract.IsInvalidInput(err))

	cfg = testConfig()
	src := &source.MockActivitySource{}
	src.On("Users", mock.Anything).Return(nil, errors.New("no directory"))
	_, err = NewCheckResultBuilder(context.Background(), cfg, src, NewScorer(cfg)).ValidatePrerequisites()
	assert.EqualError(t, err, "no directory")
}
