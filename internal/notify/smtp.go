package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"wil-portal/config"
)

const defaultSMTPTimeout = 10 * time.Second

// ErrInvalidAddress 发件人或收件人地址无法解析，重试无意义
var ErrInvalidAddress = errors.New("invalid mail address")

// deliverFunc 投递一封已构造好的邮件，测试时替换
type deliverFunc func(ctx context.Context, m *mail.Msg) error

// SMTPDispatcher 直接通过 SMTP 发送
// 每次发送建立独立连接，建连和读写都受 mail.timeout 与 ctx 约束
type SMTPDispatcher struct {
	cfg     *config.MailConfig
	deliver deliverFunc
	logger  *zap.Logger
}

// NewSMTPDispatcher 创建 SMTP 分发器
func NewSMTPDispatcher(cfg *config.MailConfig, logger *zap.Logger) *SMTPDispatcher {
	d := &SMTPDispatcher{cfg: cfg, logger: logger}
	d.deliver = d.dialAndSend
	return d
}

// Send 渲染并发送邮件
func (d *SMTPDispatcher) Send(ctx context.Context, n Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	subject, body, err := Render(n)
	if err != nil {
		return err
	}

	m, err := d.buildMessage(n.Recipient, subject, body)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout())
	defer cancel()
	if err := d.deliver(ctx, m); err != nil {
		return fmt.Errorf("SMTP 发送失败: %w", err)
	}

	d.logger.Debug("邮件已发送",
		zap.String("template", n.Template),
		zap.String("recipient", n.Recipient),
	)
	return nil
}

func (d *SMTPDispatcher) buildMessage(to, subject, body string) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(d.cfg.From); err != nil {
		return nil, fmt.Errorf("%w: 发件人 %q: %v", ErrInvalidAddress, d.cfg.From, err)
	}
	if err := m.To(to); err != nil {
		return nil, fmt.Errorf("%w: 收件人 %q: %v", ErrInvalidAddress, to, err)
	}
	m.Subject(subject)
	m.SetDate()
	m.SetBodyString(mail.TypeTextPlain, body)
	return m, nil
}

func (d *SMTPDispatcher) dialAndSend(ctx context.Context, m *mail.Msg) error {
	opts := []mail.Option{
		mail.WithPort(d.cfg.SMTPPort),
		mail.WithTimeout(d.timeout()),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if d.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(d.cfg.Username),
			mail.WithPassword(d.cfg.Password),
		)
	}

	client, err := mail.NewClient(d.cfg.SMTPHost, opts...)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, m)
}

func (d *SMTPDispatcher) timeout() time.Duration {
	if d.cfg.Timeout > 0 {
		return d.cfg.Timeout
	}
	return defaultSMTPTimeout
}
