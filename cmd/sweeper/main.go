// sweeper 一次性执行学生不活跃扫描，供 cron 调度
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"wil-portal/config"
	"wil-portal/internal/notify"
	"wil-portal/internal/repository"
	"wil-portal/internal/service"
	"wil-portal/pkg/database"
	applogger "wil-portal/pkg/logger"
)

func main() {
	os.Exit(run())
}

// run 返回进程退出码：0 成功，1 出错，2 部分失败或被中断
// 退出码在 defer 清理完成后才交给 os.Exit
func run() int {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		return 1
	}
	defer logger.Sync()

	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Error("数据库连接失败", zap.Error(err))
		return 1
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Error("获取底层 sql.DB 失败", zap.Error(err))
		return 1
	}
	defer sqlDB.Close()

	// 扫描只做 active → inactive，不发送通知
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo := repository.NewRepository(db)
	students := service.NewStudentService(cfg, repo, notify.NewLogDispatcher(logger), logger)

	result, err := students.SweepInactive(ctx)
	if err != nil {
		logger.Error("不活跃扫描失败", zap.Error(err))
		return 1
	}
	if len(result.Failed) > 0 || result.Interrupted {
		logger.Warn("不活跃扫描未全部完成",
			zap.Int("failed", len(result.Failed)),
			zap.Bool("interrupted", result.Interrupted),
		)
		return 2
	}
	return 0
}
