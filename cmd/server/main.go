package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/palemoky/mystery-pairs/internal/config"
	"github.com/palemoky/mystery-pairs/internal/logger"
	"github.com/palemoky/mystery-pairs/internal/server"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置文件失败，使用默认配置: %v\n", err)
		cfg = config.Default()
	}

	if err := logger.Init(cfg.Server.Mode, cfg.Log.File); err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()
	log := logger.L()
	if path := logger.GetLogPath(); path != "" {
		log.Info("📝 日志写入文件", zap.String("path", path))
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatal("创建服务器失败", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		log.Info("正在关闭服务器...")
		srv.GracefulShutdown(cfg.Game.ShutdownTimeoutDuration())
		return nil
	})

	log.Info("🎮 Mystery Pairs 服务器启动中...")
	if err := g.Wait(); err != nil {
		log.Error("服务器异常退出", zap.Error(err))
		logger.Close()
		os.Exit(1)
	}
}
