// mailer 消费 Redis 通知队列并通过 SMTP 投递
// notify.driver=redis 时与 server 配合部署
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
	applogger "wil-portal/pkg/logger"
	"wil-portal/pkg/redis"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Fatal("Redis 连接失败", zap.Error(err))
	}
	defer rdb.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	consumer := notify.NewConsumer(rdb, cfg.Notify.QueueKey, notify.NewSMTPDispatcher(&cfg.Mail, logger), logger)
	logger.Info("通知消费者已启动",
		zap.String("queue", cfg.Notify.QueueKey),
		zap.String("smtp", cfg.Mail.Addr()),
	)
	if err := consumer.Run(ctx); err != nil {
		logger.Error("通知消费者异常退出", zap.Error(err))
		return
	}
	logger.Info("通知消费者已停止")
}
