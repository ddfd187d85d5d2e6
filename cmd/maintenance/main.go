package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/d60-Lab/timeline-sync/config"
	"github.com/d60-Lab/timeline-sync/internal/service"
	"github.com/d60-Lab/timeline-sync/pkg/database"
	"github.com/d60-Lab/timeline-sync/pkg/logger"
)

// 一次性过期清理入口，供外部调度器（cron / serverless 定时触发）调用。
// 常驻进程模式下 cmd/server 自带每日清理循环，二者操作幂等可并存。
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := logger.Init(cfg.Log.Level, cfg.Server.Mode); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	db, err := database.InitDB(cfg)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}

	n, err := service.NewSweeper(db).SweepOnce(context.Background())
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	logger.Info("maintenance sweep done", zap.Int("swept", n))
	return nil
}
