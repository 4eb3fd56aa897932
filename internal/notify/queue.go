package notify

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"wil-portal/pkg/redis"
)

// QueueDispatcher 将通知 LPUSH 到 Redis 列表，由 cmd/mailer 消费
type QueueDispatcher struct {
	q   Queue
	key string
}

// NewQueueDispatcher 创建队列分发器
func NewQueueDispatcher(q Queue, key string) *QueueDispatcher {
	if key == "" {
		key = "wil:notifications"
	}
	return &QueueDispatcher{q: q, key: key}
}

// Send 校验模板后入队
func (d *QueueDispatcher) Send(ctx context.Context, n Notification) error {
	if _, _, err := Render(n); err != nil {
		return err
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return d.q.Enqueue(ctx, d.key, payload)
}

// Consumer 队列消费者：BLMOVE 取出后交给下游分发器（通常是 SMTP）
// 投递成功才 Ack；下游临时失败时重新入队，消息不会丢失
type Consumer struct {
	q          Queue
	key        string
	processing string
	next       Dispatcher
	timeout    time.Duration
	logger     *zap.Logger
}

// NewConsumer 创建消费者
func NewConsumer(q Queue, key string, next Dispatcher, logger *zap.Logger) *Consumer {
	if key == "" {
		key = "wil:notifications"
	}
	return &Consumer{
		q:          q,
		key:        key,
		processing: key + ":processing",
		next:       next,
		timeout:    5 * time.Second,
		logger:     logger,
	}
}

// Run 阻塞消费直到 ctx 取消；单条失败只记录日志
func (c *Consumer) Run(ctx context.Context) error {
	// 上次进程退出时未确认的消息先放回队列
	if n, err := c.q.Restore(ctx, c.processing, c.key); err != nil {
		c.logger.Warn("恢复未确认通知失败", zap.Error(err))
	} else if n > 0 {
		c.logger.Info("已恢复未确认通知", zap.Int("count", n))
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		if _, err := c.ProcessOne(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Warn("处理通知失败", zap.Error(err))
			if !isPermanent(err) {
				// 队列或下游不可用，稍后重试
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(time.Second):
				}
			}
		}
	}
}

// ProcessOne 处理一条消息；队列为空时返回 (false, nil)
func (c *Consumer) ProcessOne(ctx context.Context) (bool, error) {
	payload, err := c.q.Reserve(ctx, c.key, c.processing, c.timeout)
	if err != nil {
		if errors.Is(err, redis.ErrQueueEmpty) {
			return false, nil
		}
		return false, err
	}

	// 关闭信号到来时也要完成确认或回滚
	settleCtx := context.WithoutCancel(ctx)

	var n Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		c.ack(settleCtx, payload)
		return true, &decodeError{err: err}
	}

	if err := c.next.Send(ctx, n); err != nil {
		if isPermanent(err) {
			// 重试也无法成功，直接丢弃
			c.ack(settleCtx, payload)
			return true, err
		}
		if qerr := c.q.Enqueue(settleCtx, c.key, payload); qerr != nil {
			// 留在 processing 中，下次启动时由 Restore 放回
			return true, errors.Join(err, qerr)
		}
		c.ack(settleCtx, payload)
		return true, err
	}

	c.ack(settleCtx, payload)
	c.logger.Info("通知已投递",
		zap.String("template", n.Template),
		zap.String("recipient", n.Recipient),
	)
	return true, nil
}

func (c *Consumer) ack(ctx context.Context, payload []byte) {
	if err := c.q.Ack(ctx, c.processing, payload); err != nil {
		c.logger.Warn("确认通知失败", zap.Error(err))
	}
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return "decode notification: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func isDecodeError(err error) bool {
	var de *decodeError
	return errors.As(err, &de)
}

// isPermanent 消息本身有问题，重新入队也不会成功
func isPermanent(err error) bool {
	return isDecodeError(err) || errors.Is(err, ErrUnknownTemplate) || errors.Is(err, ErrInvalidAddress)
}
