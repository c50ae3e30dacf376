package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 日志文件超过该大小时在启动时轮转
const maxLogSize = 10 * 1024 * 1024

var (
	mu      sync.RWMutex
	log     = zap.NewNop()
	logPath string
)

// Init 初始化全局日志
// mode 为 release 时使用生产配置（JSON），否则使用开发配置（彩色控制台）
// file 非空时额外写入文件
func Init(mode, file string) error {
	var cfg zap.Config
	if mode == "release" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	if file != "" {
		if err := prepareFile(file); err != nil {
			return err
		}
		cfg.OutputPaths = append(cfg.OutputPaths, file)
	}

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	log = l
	logPath = file
	mu.Unlock()
	zap.ReplaceGlobals(l)

	l.Info("📝 日志已初始化", zap.String("mode", mode), zap.String("file", file))
	return nil
}

func prepareFile(file string) error {
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	if info, err := os.Stat(file); err == nil && info.Size() > maxLogSize {
		backup := fmt.Sprintf("%s.%d", file, time.Now().Unix())
		if err := os.Rename(file, backup); err != nil {
			return fmt.Errorf("failed to rotate log file: %w", err)
		}
	}
	return nil
}

// L 返回全局 logger，未初始化时为 no-op
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Set 替换全局 logger（测试中用 zaptest/observer 注入）
func Set(l *zap.Logger) {
	mu.Lock()
	log = l
	mu.Unlock()
}

// Close 刷新缓冲
func Close() {
	_ = L().Sync()
}

// Panic 记录 recover 到的 panic 及调用栈
func Panic(r any) {
	L().Error("💥 panic recovered",
		zap.Any("panic", r),
		zap.ByteString("stack", debug.Stack()),
	)
}

// GetLogPath 返回当前日志文件路径
func GetLogPath() string {
	mu.RLock()
	defer mu.RUnlock()
	return logPath
}
