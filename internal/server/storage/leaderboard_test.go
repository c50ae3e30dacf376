package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLeaderboardManager(t *testing.T) *LeaderboardManager {
	t.Helper()
	client, _ := newTestRedisClient(t)
	lm := NewLeaderboardManager(client)
	lm.now = func() time.Time { return time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC) }
	return lm
}

func TestLeaderboard_RecordGameResult_NewPlayer(t *testing.T) {
	t.Parallel()

	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	require.NoError(t, lm.RecordGameResult(ctx, "p1", "Player1", true))

	stats, err := lm.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Equal(t, "p1", stats.PlayerID)
	assert.Equal(t, 1, stats.Matches)
	assert.Equal(t, 1, stats.Wins)
	assert.Equal(t, WinMatch, stats.Score)
	assert.Equal(t, 1, stats.CurrentStreak)
}

func TestLeaderboard_RecordGameResult_ScoreFloor(t *testing.T) {
	t.Parallel()

	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	require.NoError(t, lm.RecordGameResult(ctx, "p1", "Player1", false))

	stats, err := lm.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Score)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, -1, stats.CurrentStreak)
}

func TestLeaderboard_StreakBonus(t *testing.T) {
	t.Parallel()

	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	for range 3 {
		require.NoError(t, lm.RecordGameResult(ctx, "p1", "Player1", true))
	}

	stats, err := lm.GetPlayerStats(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, stats.CurrentStreak)
	assert.Equal(t, 3, stats.MaxWinStreak)
	assert.Equal(t, 3*WinMatch+StreakBonus3, stats.Score)
}

func TestCalculateStreakBonus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		streak int
		want   int
	}{
		{-2, 0}, {1, 0}, {3, StreakBonus3}, {5, StreakBonus5}, {12, StreakBonus10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, calculateStreakBonus(tt.streak), "streak %d", tt.streak)
	}
}

func TestLeaderboard_RecordMatchAndRank(t *testing.T) {
	t.Parallel()

	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	require.NoError(t, lm.RecordMatch(ctx, []MatchPlayer{
		{ID: "a", Name: "Alice", Winner: true},
		{ID: "b", Name: "Bob"},
	}))
	require.NoError(t, lm.RecordMatch(ctx, []MatchPlayer{
		{ID: "a", Name: "Alice"},
		{ID: "b", Name: "Bob", Winner: true},
		{ID: "c", Name: "Carol"},
	}))
	require.NoError(t, lm.RecordMatch(ctx, []MatchPlayer{
		{ID: "b", Name: "Bob", Winner: true},
		{ID: "c", Name: "Carol"},
	}))

	for _, kind := range []string{BoardTotal, BoardDaily, BoardWeekly} {
		entries, err := lm.GetLeaderboard(ctx, kind, 0, 10)
		require.NoError(t, err)
		require.Len(t, entries, 3, kind)
		assert.Equal(t, "b", entries[0].PlayerID)
		assert.Equal(t, 1, entries[0].Rank)
		assert.Equal(t, 2, entries[0].Wins)
		assert.Equal(t, 3, entries[0].Matches)
		assert.InDelta(t, 66.67, entries[0].WinRate, 0.01)
	}

	rank, err := lm.GetPlayerRank(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rank)

	rank, err = lm.GetPlayerRank(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), rank)

	entries, err := lm.GetLeaderboard(ctx, BoardTotal, 1, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Rank)
}

// 统计按会话 ID 记录，同名的不同会话互不影响
func TestLeaderboard_StatsKeyedBySessionID(t *testing.T) {
	t.Parallel()

	lm := newTestLeaderboardManager(t)
	ctx := context.Background()

	require.NoError(t, lm.RecordMatch(ctx, []MatchPlayer{{ID: "conn-1", Name: "Alice", Winner: true}}))
	require.NoError(t, lm.RecordMatch(ctx, []MatchPlayer{{ID: "conn-2", Name: "Alice", Winner: true}}))

	for _, id := range []string{"conn-1", "conn-2"} {
		stats, err := lm.GetPlayerStats(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, stats)
		assert.Equal(t, 1, stats.Matches, id)
		assert.Equal(t, 1, stats.CurrentStreak, id)
	}

	entries, err := lm.GetLeaderboard(ctx, BoardTotal, 0, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
