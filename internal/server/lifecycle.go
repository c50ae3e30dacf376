package server

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/palemoky/mystery-pairs/internal/logger"
	"github.com/palemoky/mystery-pairs/internal/protocol"
	"github.com/palemoky/mystery-pairs/internal/protocol/codec"
)

const (
	shutdownCheckInterval = time.Second
	httpShutdownTimeout   = 10 * time.Second
	// 关闭后残留快照的过期时间
	orphanSnapshotTTL = 10 * time.Minute
)

// initCron 注册统计日志与空闲房间清理任务
func (s *Server) initCron() error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.config.Game.StatsSpec, s.monitorStats); err != nil {
		return fmt.Errorf("无效的统计任务表达式 %q: %w", s.config.Game.StatsSpec, err)
	}
	if _, err := s.cron.AddFunc(s.config.Game.SweepSpec, s.sweepIdleRooms); err != nil {
		return fmt.Errorf("无效的清理任务表达式 %q: %w", s.config.Game.SweepSpec, err)
	}
	return nil
}

// monitorStats 定期输出服务器状态
func (s *Server) monitorStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	logger.L().Info("📊 [监控]",
		zap.Int("online", s.GetOnlineCount()),
		zap.Int("rooms", s.roomManager.Count()),
		zap.Int("active_rooms", s.roomManager.ActiveCount()),
		zap.Int("goroutines", runtime.NumGoroutine()),
		zap.String("conns", fmt.Sprintf("%d/%d", len(s.semaphore), s.maxConnections)),
		zap.Float64("mem_mb", float64(m.Alloc)/1024/1024),
	)
}

// sweepIdleRooms 清理长时间无操作的房间并通知其中的玩家
func (s *Server) sweepIdleRooms() {
	removed := s.roomManager.SweepIdle(s.config.Game.RoomTimeoutDuration())
	for roomID, playerIDs := range removed {
		msg := codec.NewErrorMessageWithText(protocol.ErrCodeRoomNotFound, fmt.Sprintf("房间 %s 因长时间无操作已关闭", roomID))
		for _, id := range playerIDs {
			if c := s.GetClientByID(id); c != nil {
				c.SetRoom("")
				c.SendMessage(msg)
			}
		}
	}
	if n := s.rateLimiter.Cleanup(); n > 0 {
		logger.L().Debug("🧹 清理速率记录", zap.Int("count", n))
	}
}

// Broadcast 广播消息给所有客户端
func (s *Server) Broadcast(msg *protocol.Message) {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, client := range s.clients {
		client.SendMessage(msg)
	}
}

// EnterMaintenanceMode 进入维护模式：拒绝新连接和新房间
func (s *Server) EnterMaintenanceMode() {
	s.maintenanceMu.Lock()
	s.maintenanceMode = true
	s.maintenanceMu.Unlock()

	s.Broadcast(codec.MustNewMessage(protocol.MsgError, protocol.ErrorPayload{
		Code:    protocol.ErrCodeServerMaintenance,
		Message: "👷🏻‍♂️ 维护模式：停止新的房间创建",
	}))
	logger.L().Info("🔧 进入维护模式：停止新连接和房间创建")
}

// IsMaintenanceMode 检查是否在维护模式
func (s *Server) IsMaintenanceMode() bool {
	s.maintenanceMu.RLock()
	defer s.maintenanceMu.RUnlock()
	return s.maintenanceMode
}

// GracefulShutdown 进入维护模式，等待进行中的回合结束（最长 timeout）后关闭
func (s *Server) GracefulShutdown(timeout time.Duration) {
	s.EnterMaintenanceMode()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(shutdownCheckInterval)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		active := s.roomManager.ActiveCount()
		if active == 0 {
			logger.L().Info("✅ 所有进行中的回合已结束")
			break
		}
		logger.L().Info("⏳ 等待回合结束...", zap.Int("active_rooms", active))
		<-ticker.C
	}

	if active := s.roomManager.ActiveCount(); active > 0 {
		logger.L().Warn("⚠️ 超时，仍有回合进行中，强制关闭", zap.Int("active_rooms", active))
	}

	ctx, cancel := context.WithTimeout(context.Background(), httpShutdownTimeout)
	defer cancel()
	s.Shutdown(ctx)
}

// Shutdown 停止定时任务和 HTTP 服务，关闭所有连接与 Redis
func (s *Server) Shutdown(ctx context.Context) {
	s.shutdownOnce.Do(func() {
		<-s.cron.Stop().Done()

		if err := s.httpServer.Shutdown(ctx); err != nil {
			logger.L().Warn("HTTP 服务关闭出错", zap.Error(err))
		}

		s.clientsMu.RLock()
		for _, client := range s.clients {
			client.Close()
		}
		s.clientsMu.RUnlock()

		if err := s.roomManager.Close(ctx); err != nil {
			logger.L().Warn("⚠️ 房间快照未写完", zap.Error(err))
		}
		s.expireSnapshots(ctx)
		_ = s.redis.Close()
		logger.L().Info("🛑 服务器已关闭")
	})
}

// expireSnapshots 房间不会从快照恢复，缩短残留快照的过期时间
func (s *Server) expireSnapshots(ctx context.Context) {
	ids, err := s.store.GetAllRoomIDs(ctx)
	if err != nil {
		logger.L().Warn("⚠️ 读取房间快照失败", zap.Error(err))
		return
	}
	for _, id := range ids {
		if err := s.store.SetRoomExpiration(ctx, id, orphanSnapshotTTL); err != nil {
			logger.L().Warn("⚠️ 设置快照过期失败", zap.String("room", id), zap.Error(err))
		}
	}
}
