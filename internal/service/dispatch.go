package service

import (
	"context"

	"go.uber.org/zap"

	"wil-portal/internal/metrics"
	"wil-portal/internal/notify"
)

// notificationWarning 通知失败时随响应返回的提示
const notificationWarning = "state saved, but the notification email could not be sent"

// dispatchAfterCommit 事务提交后发送通知
// 失败只记 WARN 日志并返回提示文本，不回滚、不改变 HTTP 状态
func dispatchAfterCommit(ctx context.Context, d notify.Dispatcher, logger *zap.Logger, n notify.Notification) string {
	if d == nil {
		return ""
	}
	if err := d.Send(ctx, n); err != nil {
		metrics.NotificationsTotal.WithLabelValues(n.Template, "error").Inc()
		logger.Warn("通知发送失败",
			zap.String("template", n.Template),
			zap.String("recipient", n.Recipient),
			zap.Error(err),
		)
		return notificationWarning
	}
	metrics.NotificationsTotal.WithLabelValues(n.Template, "ok").Inc()
	return ""
}
