package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/palemoky/mystery-pairs/internal/logger"
	"github.com/palemoky/mystery-pairs/internal/protocol"
	"github.com/palemoky/mystery-pairs/internal/protocol/codec"
)

// handleWebSocket 处理 WebSocket 连接
func (s *Server) handleWebSocket(c *gin.Context) {
	clientIP := GetClientIP(c.Request)
	log := logger.L().With(zap.String("ip", clientIP))

	// 维护模式检查（最优先）
	if s.IsMaintenanceMode() {
		log.Info("🔧 维护模式，拒绝新连接")
		c.String(http.StatusServiceUnavailable, "Server is under maintenance, please try again later")
		return
	}

	// 连接数限制检查，名额在连接断开时释放
	select {
	case s.semaphore <- struct{}{}:
	default:
		log.Warn("🚫 达到最大连接数限制", zap.Int("max", s.maxConnections))
		c.String(http.StatusServiceUnavailable, "Server Full")
		return
	}
	registered := false
	defer func() {
		if !registered {
			<-s.semaphore
		}
	}()

	if !s.ipFilter.IsAllowed(clientIP) {
		log.Warn("🚫 IP 被过滤器拒绝")
		c.String(http.StatusForbidden, "Forbidden")
		return
	}

	if !s.originChecker.Check(c.Request) {
		log.Warn("🚫 来源验证失败", zap.String("origin", c.GetHeader("Origin")))
		c.String(http.StatusForbidden, "Origin not allowed")
		return
	}

	if !s.rateLimiter.Allow(clientIP) {
		log.Warn("🚫 请求过于频繁")
		c.String(http.StatusTooManyRequests, "Too Many Requests")
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("WebSocket 升级失败", zap.Error(err))
		return
	}

	client := NewClient(s, conn)
	client.IP = clientIP
	s.registerClient(client)
	registered = true

	// 会话 ID 即玩家 ID
	client.SendMessage(codec.MustNewMessage(protocol.MsgConnected, protocol.ConnectedPayload{
		PlayerID: client.ID,
	}))
	log.Info("✅ 玩家已连接", zap.String("player", client.ID))

	go client.WritePump()
	go client.ReadPump()
}
