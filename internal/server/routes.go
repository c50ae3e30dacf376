package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/palemoky/mystery-pairs/internal/logger"
	"github.com/palemoky/mystery-pairs/internal/protocol"
	"github.com/palemoky/mystery-pairs/internal/server/storage"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	apiTimeout              = 3 * time.Second
)

// routes 注册 HTTP 路由
func (s *Server) routes() *gin.Engine {
	if s.config.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.CustomRecovery(func(c *gin.Context, err any) {
		logger.Panic(err)
		c.AbortWithStatus(http.StatusInternalServerError)
	}), requestLogger())

	r.GET("/ws", s.handleWebSocket)
	r.GET("/health", s.handleHealth)

	api := r.Group("/api")
	{
		api.GET("/rooms", s.handleListRooms)
		api.GET("/rooms/:id", s.handleGetRoom)
		api.GET("/leaderboard", s.handleLeaderboard)
		api.GET("/players/:id/stats", s.handlePlayerStats)
		api.GET("/snapshots", s.handleListSnapshots)
		api.GET("/snapshots/:id", s.handleGetSnapshot)
	}
	return r
}

// requestLogger 用 zap 记录请求
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()
		logger.L().Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// handleHealth 健康检查接口
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"online":      s.GetOnlineCount(),
		"rooms":       s.roomManager.Count(),
		"activeRooms": s.roomManager.ActiveCount(),
		"maintenance": s.IsMaintenanceMode(),
	})
}

// handleListRooms 房间列表
func (s *Server) handleListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rooms": s.roomManager.List()})
}

// handleGetRoom 房间快照
func (s *Server) handleGetRoom(c *gin.Context) {
	snap, ok := s.roomManager.Snapshot(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, protocol.ErrorPayload{
			Code:    protocol.ErrCodeRoomNotFound,
			Message: protocol.ErrorMessages[protocol.ErrCodeRoomNotFound],
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": snap})
}

// handleLeaderboard 排行榜，type 为 total / daily / weekly
func (s *Server) handleLeaderboard(c *gin.Context) {
	kind := c.DefaultQuery("type", storage.BoardTotal)
	switch kind {
	case storage.BoardTotal, storage.BoardDaily, storage.BoardWeekly:
	default:
		c.JSON(http.StatusBadRequest, protocol.ErrorPayload{Code: protocol.ErrCodeInvalidMsg, Message: "未知的排行榜类型"})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLeaderboardLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLeaderboardLimit
	}
	limit = min(limit, maxLeaderboardLimit)

	ctx, cancel := context.WithTimeout(c.Request.Context(), apiTimeout)
	defer cancel()
	entries, err := s.leaderboard.GetLeaderboard(ctx, kind, 0, limit)
	if err != nil {
		logger.L().Warn("⚠️ 获取排行榜失败", zap.String("type", kind), zap.Error(err))
		c.JSON(http.StatusInternalServerError, protocol.ErrorPayload{
			Code:    protocol.ErrCodeUnknown,
			Message: "获取排行榜失败",
		})
		return
	}

	out := make([]protocol.LeaderboardEntry, len(entries))
	for i, e := range entries {
		out[i] = protocol.LeaderboardEntry{
			Rank:       e.Rank,
			PlayerName: e.PlayerName,
			Wins:       e.Wins,
			Matches:    e.Matches,
			WinRate:    e.WinRate,
		}
	}
	c.JSON(http.StatusOK, gin.H{"type": kind, "entries": out})
}

// handlePlayerStats 玩家统计与总榜排名
func (s *Server) handlePlayerStats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), apiTimeout)
	defer cancel()

	playerID := c.Param("id")
	stats, err := s.leaderboard.GetPlayerStats(ctx, playerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, protocol.ErrorPayload{Code: protocol.ErrCodeUnknown, Message: "获取统计失败"})
		return
	}
	if stats == nil {
		c.JSON(http.StatusNotFound, protocol.ErrorPayload{Code: protocol.ErrCodeUnknown, Message: "暂无该玩家的比赛记录"})
		return
	}

	rank, err := s.leaderboard.GetPlayerRank(ctx, playerID)
	if err != nil {
		logger.L().Warn("⚠️ 获取玩家排名失败", zap.String("player", playerID), zap.Error(err))
		rank = -1
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats, "rank": rank})
}

// handleListSnapshots 列出 Redis 中镜像的房间快照
func (s *Server) handleListSnapshots(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), apiTimeout)
	defer cancel()
	ids, err := s.store.GetAllRoomIDs(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, protocol.ErrorPayload{Code: protocol.ErrCodeUnknown, Message: err.Error()})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"roomIds": ids})
}

// handleGetSnapshot 读取 Redis 中镜像的房间快照
func (s *Server) handleGetSnapshot(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), apiTimeout)
	defer cancel()

	var raw json.RawMessage
	found, err := s.store.LoadRoom(ctx, c.Param("id"), &raw)
	if err != nil {
		c.JSON(http.StatusInternalServerError, protocol.ErrorPayload{Code: protocol.ErrCodeUnknown, Message: err.Error()})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, protocol.ErrorPayload{
			Code:    protocol.ErrCodeRoomNotFound,
			Message: protocol.ErrorMessages[protocol.ErrCodeRoomNotFound],
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"room": raw})
}
