// Package notify 通知分发：模板渲染与 SMTP / Redis 队列 / 日志三种投递方式。
// 所有调用都发生在事务提交之后，失败只记录日志，不影响已提交的状态。
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wil-portal/config"
)

// 通知模板
const (
	TemplateSignupCode          = "signup_code"
	TemplateApplicationRejected = "application_rejected"
	TemplateStaffCode           = "staff_code"
	TemplateStudentSuspended    = "student_suspended"
	TemplateStudentUnenrolled   = "student_unenrolled"
	TemplateStudentEnrolled     = "student_enrolled"
	TemplateStudentReactivated  = "student_reactivated"
)

// ErrUnknownTemplate 未注册的模板
var ErrUnknownTemplate = errors.New("unknown notification template")

// Notification 一条待发送的通知
type Notification struct {
	Template  string            `json:"template"`
	Recipient string            `json:"recipient"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Dispatcher 通知分发接口
type Dispatcher interface {
	Send(ctx context.Context, n Notification) error
}

// Queue 可靠列表队列（pkg/redis.Client 实现）
// Reserve 取出的消息在 Ack 之前保留在 processing 列表中
type Queue interface {
	Enqueue(ctx context.Context, key string, payload []byte) error
	Reserve(ctx context.Context, key, processing string, timeout time.Duration) ([]byte, error)
	Ack(ctx context.Context, processing string, payload []byte) error
	Restore(ctx context.Context, processing, key string) (int, error)
}

// New 按 notify.driver 选择分发实现
func New(cfg *config.Config, q Queue, logger *zap.Logger) (Dispatcher, error) {
	switch cfg.Notify.Driver {
	case "smtp":
		return NewSMTPDispatcher(&cfg.Mail, logger), nil
	case "redis":
		if q == nil {
			return nil, fmt.Errorf("notify.driver=redis 需要可用的 Redis 连接")
		}
		return NewQueueDispatcher(q, cfg.Notify.QueueKey), nil
	case "log", "":
		return NewLogDispatcher(logger), nil
	default:
		return nil, fmt.Errorf("未知的 notify.driver: %s", cfg.Notify.Driver)
	}
}

// LogDispatcher 仅记录日志，开发环境默认
type LogDispatcher struct {
	logger *zap.Logger
}

// NewLogDispatcher 创建日志分发器
func NewLogDispatcher(logger *zap.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

// Send 渲染后写日志
func (d *LogDispatcher) Send(_ context.Context, n Notification) error {
	subject, body, err := Render(n)
	if err != nil {
		return err
	}
	d.logger.Info("通知（仅日志）",
		zap.String("template", n.Template),
		zap.String("recipient", n.Recipient),
		zap.String("subject", subject),
		zap.String("body", body),
	)
	return nil
}
