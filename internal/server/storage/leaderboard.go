package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key
	playerStatsKey    = "player:stats:"
	leaderboardKey    = "leaderboard:score"
	dailyLeaderboard  = "leaderboard:daily:"
	weeklyLeaderboard = "leaderboard:weekly:"
)

// 排行榜类型
const (
	BoardTotal  = "total"
	BoardDaily  = "daily"
	BoardWeekly = "weekly"
)

// PlayerStats 玩家统计数据
type PlayerStats struct {
	PlayerID   string `json:"player_id"`
	PlayerName string `json:"player_name"`

	Matches int `json:"matches"` // 完整比赛场次
	Wins    int `json:"wins"`    // 成为最终赢家的场次
	Losses  int `json:"losses"`

	Score int `json:"score"`

	// 连胜/连败
	CurrentStreak int `json:"current_streak"` // 正数为连胜，负数为连败
	MaxWinStreak  int `json:"max_win_streak"`

	LastPlayedAt int64 `json:"last_played_at"`
	CreatedAt    int64 `json:"created_at"`
}

// 积分规则
const (
	WinMatch  = 20
	LoseMatch = -5

	// 连胜加成
	StreakBonus3  = 5
	StreakBonus5  = 10
	StreakBonus10 = 20
)

// LeaderboardEntry 排行榜条目
type LeaderboardEntry struct {
	Rank       int     `json:"rank"`
	PlayerID   string  `json:"player_id"`
	PlayerName string  `json:"player_name"`
	Score      int     `json:"score"`
	Wins       int     `json:"wins"`
	Matches    int     `json:"matches"`
	WinRate    float64 `json:"win_rate"`
}

// MatchPlayer 一场比赛的参与者
type MatchPlayer struct {
	ID     string
	Name   string
	Winner bool
}

// LeaderboardManager 排行榜管理器
type LeaderboardManager struct {
	redis *redis.Client
	now   func() time.Time
}

// NewLeaderboardManager 创建排行榜管理器
func NewLeaderboardManager(client *redis.Client) *LeaderboardManager {
	return &LeaderboardManager{redis: client, now: time.Now}
}

// GetPlayerStats 获取玩家统计，不存在时返回 nil
func (lm *LeaderboardManager) GetPlayerStats(ctx context.Context, playerID string) (*PlayerStats, error) {
	data, err := lm.redis.Get(ctx, playerStatsKey+playerID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var stats PlayerStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// SavePlayerStats 保存玩家统计
func (lm *LeaderboardManager) SavePlayerStats(ctx context.Context, stats *PlayerStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return err
	}
	return lm.redis.Set(ctx, playerStatsKey+stats.PlayerID, data, 0).Err()
}

func (lm *LeaderboardManager) getOrCreateStats(ctx context.Context, playerID, playerName string) (*PlayerStats, error) {
	stats, err := lm.GetPlayerStats(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if stats == nil {
		stats = &PlayerStats{
			PlayerID:   playerID,
			PlayerName: playerName,
			CreatedAt:  lm.now().Unix(),
		}
	}
	return stats, nil
}

// updateWinLossStats 更新胜负统计和连胜/连败，返回基础积分变化
func updateWinLossStats(stats *PlayerStats, isWinner bool) int {
	if isWinner {
		stats.Wins++
		stats.CurrentStreak = max(1, stats.CurrentStreak+1)
	} else {
		stats.Losses++
		stats.CurrentStreak = min(-1, stats.CurrentStreak-1)
	}
	if stats.CurrentStreak > stats.MaxWinStreak {
		stats.MaxWinStreak = stats.CurrentStreak
	}
	if isWinner {
		return WinMatch
	}
	return LoseMatch
}

// calculateStreakBonus 计算连胜加成
func calculateStreakBonus(streak int) int {
	switch {
	case streak >= 10:
		return StreakBonus10
	case streak >= 5:
		return StreakBonus5
	case streak >= 3:
		return StreakBonus3
	default:
		return 0
	}
}

// RecordGameResult 记录一名玩家的比赛结果
func (lm *LeaderboardManager) RecordGameResult(ctx context.Context, playerID, playerName string, isWinner bool) error {
	stats, err := lm.getOrCreateStats(ctx, playerID, playerName)
	if err != nil {
		return err
	}

	stats.PlayerName = playerName
	stats.Matches++
	stats.LastPlayedAt = lm.now().Unix()

	scoreChange := updateWinLossStats(stats, isWinner)
	scoreChange += calculateStreakBonus(stats.CurrentStreak)
	stats.Score = max(0, stats.Score+scoreChange)

	if err := lm.SavePlayerStats(ctx, stats); err != nil {
		return err
	}
	return lm.UpdateLeaderboard(ctx, stats)
}

// RecordMatch 记录一场比赛所有参与者的结果
// 统计以连接会话 ID 为键，没有账号体系，重新连接后从零开始
func (lm *LeaderboardManager) RecordMatch(ctx context.Context, players []MatchPlayer) error {
	var errs []error
	for _, p := range players {
		if err := lm.RecordGameResult(ctx, p.ID, p.Name, p.Winner); err != nil {
			errs = append(errs, fmt.Errorf("记录玩家 %s 失败: %w", p.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (lm *LeaderboardManager) boardKey(kind string) string {
	now := lm.now()
	switch kind {
	case BoardDaily:
		return dailyLeaderboard + now.Format("2006-01-02")
	case BoardWeekly:
		year, week := now.ISOWeek()
		return fmt.Sprintf("%s%d-W%02d", weeklyLeaderboard, year, week)
	default:
		return leaderboardKey
	}
}

// UpdateLeaderboard 更新总榜、日榜和周榜
func (lm *LeaderboardManager) UpdateLeaderboard(ctx context.Context, stats *PlayerStats) error {
	member := redis.Z{Score: float64(stats.Score), Member: stats.PlayerID}

	pipe := lm.redis.TxPipeline()
	pipe.ZAdd(ctx, lm.boardKey(BoardTotal), member)

	dailyKey := lm.boardKey(BoardDaily)
	pipe.ZAdd(ctx, dailyKey, member)
	pipe.Expire(ctx, dailyKey, 48*time.Hour)

	weeklyKey := lm.boardKey(BoardWeekly)
	pipe.ZAdd(ctx, weeklyKey, member)
	pipe.Expire(ctx, weeklyKey, 8*24*time.Hour)

	_, err := pipe.Exec(ctx)
	return err
}

// GetLeaderboard 获取排行榜（从高到低）
func (lm *LeaderboardManager) GetLeaderboard(ctx context.Context, kind string, offset, limit int) ([]LeaderboardEntry, error) {
	results, err := lm.redis.ZRevRangeWithScores(ctx, lm.boardKey(kind), int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]LeaderboardEntry, 0, len(results))
	for i, result := range results {
		playerID, ok := result.Member.(string)
		if !ok {
			continue
		}
		stats, err := lm.GetPlayerStats(ctx, playerID)
		if err != nil || stats == nil {
			continue
		}

		winRate := 0.0
		if stats.Matches > 0 {
			winRate = float64(stats.Wins) / float64(stats.Matches) * 100
		}
		entries = append(entries, LeaderboardEntry{
			Rank:       offset + i + 1,
			PlayerID:   playerID,
			PlayerName: stats.PlayerName,
			Score:      int(result.Score),
			Wins:       stats.Wins,
			Matches:    stats.Matches,
			WinRate:    winRate,
		})
	}
	return entries, nil
}

// GetPlayerRank 获取玩家总榜排名，未上榜返回 -1
func (lm *LeaderboardManager) GetPlayerRank(ctx context.Context, playerID string) (int64, error) {
	rank, err := lm.redis.ZRevRank(ctx, leaderboardKey, playerID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return -1, nil
		}
		return -1, err
	}
	return rank + 1, nil // Redis 排名从 0 开始
}
