package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/palemoky/mystery-pairs/internal/logger"
)

// RateLimiter 按 IP 限制新连接速率，超限后封禁一段时间
type RateLimiter struct {
	requests map[string]*clientRate
	mu       sync.Mutex

	maxPerSecond int
	maxPerMinute int
	banDuration  time.Duration
	now          func() time.Time
}

type clientRate struct {
	secondCount int
	minuteCount int
	lastSecond  time.Time
	lastMinute  time.Time
	bannedUntil time.Time
}

// NewRateLimiter 创建速率限制器
func NewRateLimiter(maxPerSecond, maxPerMinute int, banDuration time.Duration) *RateLimiter {
	return &RateLimiter{
		requests:     make(map[string]*clientRate),
		maxPerSecond: maxPerSecond,
		maxPerMinute: maxPerMinute,
		banDuration:  banDuration,
		now:          time.Now,
	}
}

// Allow 检查是否允许来自 ip 的连接
func (rl *RateLimiter) Allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	rate, exists := rl.requests[ip]
	if !exists {
		rl.requests[ip] = &clientRate{secondCount: 1, minuteCount: 1, lastSecond: now, lastMinute: now}
		return true
	}

	if now.Before(rate.bannedUntil) {
		return false
	}
	if now.Sub(rate.lastSecond) >= time.Second {
		rate.secondCount = 0
		rate.lastSecond = now
	}
	if now.Sub(rate.lastMinute) >= time.Minute {
		rate.minuteCount = 0
		rate.lastMinute = now
	}

	rate.secondCount++
	rate.minuteCount++
	if rate.secondCount > rl.maxPerSecond || rate.minuteCount > rl.maxPerMinute {
		rate.bannedUntil = now.Add(rl.banDuration)
		logger.L().Warn("⚠️ IP 请求过于频繁，暂时封禁", zap.String("ip", ip), zap.Duration("ban", rl.banDuration))
		return false
	}
	return true
}

// IsBanned 检查 IP 是否被封禁
func (rl *RateLimiter) IsBanned(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rate, exists := rl.requests[ip]
	return exists && rl.now().Before(rate.bannedUntil)
}

// Cleanup 清理 10 分钟无请求且未封禁的记录，由定时任务调用
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	removed := 0
	for ip, rate := range rl.requests {
		if now.Sub(rate.lastMinute) > 10*time.Minute && now.After(rate.bannedUntil) {
			delete(rl.requests, ip)
			removed++
		}
	}
	return removed
}

// --- 来源验证 ---

// OriginChecker 来源验证器
type OriginChecker struct {
	allowedOrigins map[string]bool
	allowAll       bool
}

// NewOriginChecker 创建来源验证器，"*" 表示允许所有来源
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{allowedOrigins: make(map[string]bool)}
	for _, origin := range origins {
		if origin == "*" {
			oc.allowAll = true
			return oc
		}
		oc.allowedOrigins[strings.ToLower(strings.TrimSpace(origin))] = true
	}
	return oc
}

// Check 检查来源是否允许；没有 Origin 头视为本地客户端
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return oc.allowedOrigins[strings.ToLower(origin)]
}

// --- IP 过滤 ---

// IPFilter IP 黑白名单
type IPFilter struct {
	whitelist map[string]bool
	blacklist map[string]bool
	mu        sync.RWMutex
}

// NewIPFilter 创建 IP 过滤器
func NewIPFilter(allowed, blocked []string) *IPFilter {
	f := &IPFilter{whitelist: make(map[string]bool), blacklist: make(map[string]bool)}
	for _, ip := range allowed {
		f.whitelist[ip] = true
	}
	for _, ip := range blocked {
		f.blacklist[ip] = true
	}
	return f
}

// Block 加入黑名单
func (f *IPFilter) Block(ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blacklist[ip] = true
}

// Unblock 移出黑名单
func (f *IPFilter) Unblock(ip string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blacklist, ip)
}

// IsAllowed 有白名单时只允许名单内 IP，黑名单始终拒绝
func (f *IPFilter) IsAllowed(ip string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if len(f.whitelist) > 0 && !f.whitelist[ip] {
		return false
	}
	return !f.blacklist[ip]
}

// GetClientIP 获取客户端真实 IP
func GetClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		return strings.TrimSpace(first)
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// --- 消息速率限制 ---

// MessageRateLimiter 已连接客户端的消息速率限制
type MessageRateLimiter struct {
	limits map[string]*messageRate
	mu     sync.Mutex

	maxPerSecond     int
	warningThreshold int
	now              func() time.Time
}

type messageRate struct {
	count     int
	lastReset time.Time
	warnings  int
}

// NewMessageRateLimiter 创建消息速率限制器，超过一半额度时开始警告
func NewMessageRateLimiter(maxPerSecond int) *MessageRateLimiter {
	return &MessageRateLimiter{
		limits:           make(map[string]*messageRate),
		maxPerSecond:     maxPerSecond,
		warningThreshold: maxPerSecond / 2,
		now:              time.Now,
	}
}

// AllowMessage 检查是否允许处理该消息
func (ml *MessageRateLimiter) AllowMessage(clientID string) (allowed bool, warning bool) {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	now := ml.now()
	rate, exists := ml.limits[clientID]
	if !exists {
		ml.limits[clientID] = &messageRate{count: 1, lastReset: now}
		return true, false
	}
	if now.Sub(rate.lastReset) >= time.Second {
		rate.count = 1
		rate.lastReset = now
		return true, false
	}

	rate.count++
	if rate.count > ml.maxPerSecond {
		rate.warnings++
		return false, true
	}
	return true, rate.count > ml.warningThreshold
}

// GetWarningCount 获取超限次数
func (ml *MessageRateLimiter) GetWarningCount(clientID string) int {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if rate, ok := ml.limits[clientID]; ok {
		return rate.warnings
	}
	return 0
}

// RemoveClient 移除客户端记录
func (ml *MessageRateLimiter) RemoveClient(clientID string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	delete(ml.limits, clientID)
}
