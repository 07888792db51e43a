package core

import (
	"context"
	"errors"
	"testing"

	"github.com/huangsam/fragmeter/internal/contract"
	"github.com/huangsam/fragmeter/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBuildTeamTrend(t *testing.T) {
	cfg := testConfig()
	src := staircaseSource()
	for d := 1; d <= 5; d++ {
		src.On("FetchActivities", mock.Anything, "carol", startsAt(day(d)), mock.Anything).Return(meetings(day(d), 1), nil)
	}
	src.On("FetchActivities", mock.Anything, "bob", mock.Anything, mock.Anything).Return(nil, errors.New("offline"))

	team, err := BuildTeamTrend(context.Background(), cfg, src, NewScorer(cfg), []string{"carol", "bob", "alice"})
	require.NoError(t, err)

	require.Len(t, team.Members, 2)
	assert.Equal(t, "alice", team.Members[0].UserID)
	assert.Equal(t, "carol", team.Members[1].UserID)

	require.Len(t, team.Failures, 1)
	assert.Equal(t, "bob", team.Failures[0].UserID)
	assert.Equal(t, "no day could be scored", team.Failures[0].Error)
	assert.Equal(t, "1 of 3 users could not be scored: bob: no day could be scored", team.Warning)

	require.Len(t, team.Daily, 5)
	assert.Equal(t, "2024-06-01", team.Daily[0].Date.String())
	assert.Equal(t, schema.Score(0.4), team.Daily[0].Average)
	assert.Equal(t, 2, team.Daily[0].MemberCount)
	assert.Equal(t, "2024-06-03", team.Daily[2].Date.String())
	assert.Equal(t, 1, team.Daily[2].MemberCount, "only members with the day count toward it")
	assert.Equal(t, schema.Score(1.2), team.Daily[4].Average)

	require.NotNil(t, team.Average)
	assert.Equal(t, schema.Score(0.8), *team.Average)
}

func TestBuildTeamTrendInvalidMember(t *testing.T) {
	cfg := testConfig()
	src := staircaseSource()

	team, err := BuildTeamTrend(context.Background(), cfg, src, NewScorer(cfg), []string{"alice", "../etc"})
	require.NoError(t, err)
	require.Len(t, team.Members, 1)
	require.Len(t, team.Failures, 1)
	assert.Equal(t, "../etc", team.Failures[0].UserID)
}

func TestBuildTeamTrendErrors(t *testing.T) {
	cfg := testConfig()
	_, err := BuildTeamTrend(context.Background(), cfg, staircaseSource(), NewScorer(cfg), nil)
	assert.True(t, contract.IsInvalidInput(err))

	cfg.StartDate = date(6)
	cfg.EndDate = date(6)
	_, err = BuildTeamTrend(context.Background(), cfg, staircaseSource(), NewScorer(cfg), []string{"alice"})
	assert.True(t, contract.IsInvalidInput(err))
}
