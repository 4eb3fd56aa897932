package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"wil-portal/config"
)

// ErrQueueEmpty 阻塞出队超时，队列中无消息
var ErrQueueEmpty = errors.New("queue empty")

// Client Redis 客户端封装
// 用于通知队列、接口限流与 Token 黑名单
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))
	return &Client{rdb: rdb, logger: logger}, nil
}

// ── Token 黑名单 ──

const blacklistPrefix = "token:blacklist:"

// BlacklistToken 将 JWT ID 加入黑名单，TTL 与 Token 剩余有效期一致
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // Token 已过期，无需加入黑名单
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted 检查 JWT ID 是否在黑名单中
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ── 滑动窗口限流 ──

// CheckRateLimit 基于有序集合的滑动窗口计数，返回本次请求是否放行
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	now := time.Now().UnixNano()
	windowStart := now - window.Nanoseconds()

	var card *goredis.IntCmd
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "0", strconv.FormatInt(windowStart, 10))
		pipe.ZAdd(ctx, key, goredis.Z{Score: float64(now), Member: now})
		card = pipe.ZCard(ctx, key)
		pipe.Expire(ctx, key, window)
		return nil
	})
	if err != nil {
		return false, err
	}
	return card.Val() <= int64(limit), nil
}

// ── 可靠列表队列（LPUSH / BLMOVE + processing 列表） ──

// Enqueue 将消息压入队列头部
func (c *Client) Enqueue(ctx context.Context, key string, payload []byte) error {
	return c.rdb.LPush(ctx, key, payload).Err()
}

// Reserve 阻塞取出队尾消息并原子移入 processing 列表，超时返回 ErrQueueEmpty
// 消息在 Ack 前始终留在 processing 中，消费者崩溃后可由 Restore 找回
func (c *Client) Reserve(ctx context.Context, key, processing string, timeout time.Duration) ([]byte, error) {
	res, err := c.rdb.BLMove(ctx, key, processing, "RIGHT", "LEFT", timeout).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ErrQueueEmpty
		}
		return nil, err
	}
	return []byte(res), nil
}

// Ack 从 processing 列表删除一条已处理的消息
func (c *Client) Ack(ctx context.Context, processing string, payload []byte) error {
	return c.rdb.LRem(ctx, processing, 1, payload).Err()
}

// Restore 将 processing 中残留的消息移回队尾，返回移动条数
func (c *Client) Restore(ctx context.Context, processing, key string) (int, error) {
	n := 0
	for {
		err := c.rdb.LMove(ctx, processing, key, "RIGHT", "RIGHT").Err()
		if errors.Is(err, goredis.Nil) {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
