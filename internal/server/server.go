package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/palemoky/mystery-pairs/internal/config"
	"github.com/palemoky/mystery-pairs/internal/game/room"
	"github.com/palemoky/mystery-pairs/internal/logger"
	"github.com/palemoky/mystery-pairs/internal/server/handler"
	"github.com/palemoky/mystery-pairs/internal/server/storage"
	"github.com/palemoky/mystery-pairs/internal/types"
)

// Server WebSocket + HTTP 服务器
type Server struct {
	config      *config.Config
	redis       *redis.Client
	store       *storage.RedisStore
	leaderboard *storage.LeaderboardManager
	roomManager *room.Manager
	handler     *handler.Handler
	clients     map[string]*Client
	clientsMu   sync.RWMutex

	engine     *gin.Engine
	httpServer *http.Server
	upgrader   websocket.Upgrader
	cron       *cron.Cron

	// 安全组件
	rateLimiter    *RateLimiter
	originChecker  *OriginChecker
	messageLimiter *MessageRateLimiter
	ipFilter       *IPFilter

	// 连接控制
	maxConnections int
	semaphore      chan struct{} // 信号量控制并发连接数

	// 维护模式
	maintenanceMode bool
	maintenanceMu   sync.RWMutex

	shutdownOnce sync.Once
}

// NewServer 创建服务器实例，Redis 不可用时返回错误
func NewServer(cfg *config.Config) (*Server, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis 连接失败: %w", err)
	}

	return newServer(cfg, rdb)
}

func newServer(cfg *config.Config, rdb *redis.Client) (*Server, error) {
	s := &Server{
		config:      cfg,
		redis:       rdb,
		store:       storage.NewRedisStore(rdb, cfg.Game.SnapshotTTLDuration()),
		leaderboard: storage.NewLeaderboardManager(rdb),
		clients:     make(map[string]*Client),
		rateLimiter: NewRateLimiter(
			cfg.Security.RateLimit.MaxPerSecond,
			cfg.Security.RateLimit.MaxPerMinute,
			cfg.Security.RateLimit.BanDurationTime(),
		),
		originChecker:  NewOriginChecker(cfg.Security.AllowedOrigins),
		messageLimiter: NewMessageRateLimiter(cfg.Security.MessageLimit.MaxPerSecond),
		ipFilter:       NewIPFilter(cfg.Security.AllowedIPs, cfg.Security.BlockedIPs),
		maxConnections: cfg.Server.MaxConnections,
		semaphore:      make(chan struct{}, cfg.Server.MaxConnections),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originChecker.Check,
	}

	s.roomManager = room.NewManager(s.store, cfg.Game.DefaultChips, nil)
	s.handler = handler.NewHandler(handler.HandlerDeps{
		Server:      s,
		RoomManager: s.roomManager,
		Leaderboard: s.leaderboard,
	})

	if err := s.initCron(); err != nil {
		return nil, err
	}
	s.engine = s.routes()
	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second, // 防止 Slowloris 攻击
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.L().Info("🔒 安全配置",
		zap.Int("conn_per_second", cfg.Security.RateLimit.MaxPerSecond),
		zap.Int("msg_per_second", cfg.Security.MessageLimit.MaxPerSecond),
		zap.Int("max_connections", cfg.Server.MaxConnections),
		zap.Strings("origins", cfg.Security.AllowedOrigins),
	)
	return s, nil
}

// Start 启动定时任务并监听端口，正常关闭时返回 nil
func (s *Server) Start() error {
	s.cron.Start()

	logger.L().Info("🚀 服务器启动",
		zap.String("ws", "ws://"+s.httpServer.Addr+"/ws"),
		zap.Int("cpu", runtime.NumCPU()),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler 返回 HTTP 路由
func (s *Server) Handler() http.Handler {
	return s.engine
}

// RoomManager 返回房间注册表
func (s *Server) RoomManager() *room.Manager {
	return s.roomManager
}

// registerClient 注册客户端
func (s *Server) registerClient(client *Client) {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	s.clients[client.ID] = client
}

// unregisterClient 注销客户端并释放连接名额
func (s *Server) unregisterClient(client *Client) {
	s.clientsMu.Lock()
	_, ok := s.clients[client.ID]
	delete(s.clients, client.ID)
	s.clientsMu.Unlock()

	if ok {
		<-s.semaphore
		logger.L().Info("❌ 玩家已断开", zap.String("player", client.ID), zap.String("ip", client.IP))
	}
}

// GetClientByID 按玩家 ID 查找连接
func (s *Server) GetClientByID(id string) types.ClientInterface {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	if c, ok := s.clients[id]; ok {
		return c
	}
	return nil
}

// GetOnlineCount 获取在线人数
func (s *Server) GetOnlineCount() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}
