package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// 默认值
const (
	defaultHost            = "0.0.0.0"
	defaultPort            = 1780
	defaultMode            = "debug"
	defaultMaxConnections  = 10000
	defaultRedisAddr       = "localhost:6379"
	defaultChips           = 8
	defaultRoomTimeout     = 30  // 分钟
	defaultSnapshotTTL     = 120 // 分钟
	defaultShutdownTimeout = 5   // 分钟
	defaultSweepSpec       = "@every 1m"
	defaultStatsSpec       = "@every 30s"
	defaultRatePerSecond   = 10
	defaultRatePerMinute   = 60
	defaultBanDuration     = 60 // 秒
	defaultMessagePerSec   = 20
)

// Config 服务端配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Game     GameConfig     `yaml:"game"`
	Security SecurityConfig `yaml:"security"`
	Log      LogConfig      `yaml:"log"`
}

// ServerConfig HTTP / WebSocket 服务器配置
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	Mode           string `yaml:"mode"` // debug / release，同时决定 gin 与日志模式
	MaxConnections int    `yaml:"max_connections"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig 游戏配置
type GameConfig struct {
	DefaultChips    int    `yaml:"default_chips"`    // 重建房间时未知余额的默认筹码
	RoomTimeout     int    `yaml:"room_timeout"`     // 房间空闲超时（分钟）
	SnapshotTTL     int    `yaml:"snapshot_ttl"`     // Redis 快照过期时间（分钟）
	ShutdownTimeout int    `yaml:"shutdown_timeout"` // 优雅关闭最长等待（分钟）
	SweepSpec       string `yaml:"sweep_spec"`       // 空闲房间清理的 cron 表达式
	StatsSpec       string `yaml:"stats_spec"`       // 统计日志的 cron 表达式
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	AllowedOrigins []string           `yaml:"allowed_origins"`
	AllowedIPs     []string           `yaml:"allowed_ips"` // 为空时不启用白名单
	BlockedIPs     []string           `yaml:"blocked_ips"`
	RateLimit      RateLimitConfig    `yaml:"rate_limit"`
	MessageLimit   MessageLimitConfig `yaml:"message_limit"`
}

// RateLimitConfig 连接速率限制
type RateLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
	MaxPerMinute int `yaml:"max_per_minute"`
	BanDuration  int `yaml:"ban_duration"` // 秒
}

// MessageLimitConfig 单连接消息速率限制
type MessageLimitConfig struct {
	MaxPerSecond int `yaml:"max_per_second"`
}

// LogConfig 日志配置
type LogConfig struct {
	File string `yaml:"file"`
}

// RoomTimeoutDuration 返回房间空闲超时时长
func (c *GameConfig) RoomTimeoutDuration() time.Duration {
	return time.Duration(c.RoomTimeout) * time.Minute
}

// SnapshotTTLDuration 返回快照过期时长
func (c *GameConfig) SnapshotTTLDuration() time.Duration {
	return time.Duration(c.SnapshotTTL) * time.Minute
}

// ShutdownTimeoutDuration 返回优雅关闭超时时长
func (c *GameConfig) ShutdownTimeoutDuration() time.Duration {
	return time.Duration(c.ShutdownTimeout) * time.Minute
}

// BanDurationTime 返回封禁时长
func (c *RateLimitConfig) BanDurationTime() time.Duration {
	return time.Duration(c.BanDuration) * time.Second
}

// Load 加载配置文件，环境变量优先于文件
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// Default 返回默认配置
func Default() *Config {
	var cfg Config
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	setDefault(&c.Server.Host, defaultHost)
	setDefault(&c.Server.Port, defaultPort)
	setDefault(&c.Server.Mode, defaultMode)
	setDefault(&c.Server.MaxConnections, defaultMaxConnections)
	setDefault(&c.Redis.Addr, defaultRedisAddr)
	setDefault(&c.Game.DefaultChips, defaultChips)
	setDefault(&c.Game.RoomTimeout, defaultRoomTimeout)
	setDefault(&c.Game.SnapshotTTL, defaultSnapshotTTL)
	setDefault(&c.Game.ShutdownTimeout, defaultShutdownTimeout)
	setDefault(&c.Game.SweepSpec, defaultSweepSpec)
	setDefault(&c.Game.StatsSpec, defaultStatsSpec)
	setDefault(&c.Security.RateLimit.MaxPerSecond, defaultRatePerSecond)
	setDefault(&c.Security.RateLimit.MaxPerMinute, defaultRatePerMinute)
	setDefault(&c.Security.RateLimit.BanDuration, defaultBanDuration)
	setDefault(&c.Security.MessageLimit.MaxPerSecond, defaultMessagePerSec)
	if len(c.Security.AllowedOrigins) == 0 {
		c.Security.AllowedOrigins = []string{"*"}
	}
}

func (c *Config) applyEnv() {
	envString(&c.Server.Host, "SERVER_HOST")
	envInt(&c.Server.Port, "SERVER_PORT")
	envString(&c.Server.Mode, "SERVER_MODE")
	envString(&c.Redis.Addr, "REDIS_ADDR")
	envString(&c.Redis.Password, "REDIS_PASSWORD")
	envInt(&c.Game.DefaultChips, "GAME_DEFAULT_CHIPS")
	envString(&c.Log.File, "LOG_FILE")
	if v := os.Getenv("SECURITY_ALLOWED_ORIGINS"); v != "" {
		c.Security.AllowedOrigins = strings.Split(v, ",")
	}
}

func setDefault[T comparable](dst *T, def T) {
	var zero T
	if *dst == zero {
		*dst = def
	}
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		*dst = v
	}
}
