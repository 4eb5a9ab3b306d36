package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"disaster-response-go/internal/config"
	"disaster-response-go/pkg/log"

	"github.com/go-redis/redis/v8"
)

// NewRedis 创建 Redis 客户端并测试连接。
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("Redis client connected successfully")
	return rdb, nil
}

// PredictionCache 把单条查询的预测标签以 "0110..." 形式的字符串存入 Redis。
type PredictionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPredictionCache 创建一个 PredictionCache，ttl 为 0 表示不过期。
func NewPredictionCache(rdb *redis.Client, ttl time.Duration) *PredictionCache {
	return &PredictionCache{rdb: rdb, ttl: ttl}
}

// Get 读取缓存的标签，未命中时第二个返回值为 false。
func (c *PredictionCache) Get(ctx context.Context, key string) ([]uint8, bool, error) {
	v, err := c.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	labels, err := decodeLabels(v)
	if err != nil {
		// 内容损坏视为未命中，下次写入时覆盖
		log.Warnf("[PredictionCache] 缓存内容无法解析, key: %s, error: %v", key, err)
		return nil, false, nil
	}
	return labels, true, nil
}

// Set 写入标签。
func (c *PredictionCache) Set(ctx context.Context, key string, labels []uint8) error {
	return c.rdb.Set(ctx, key, encodeLabels(labels), c.ttl).Err()
}

func encodeLabels(labels []uint8) string {
	var b strings.Builder
	b.Grow(len(labels))
	for _, l := range labels {
		b.WriteByte('0' + l)
	}
	return b.String()
}

func decodeLabels(s string) ([]uint8, error) {
	labels := make([]uint8, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '0', '1':
			labels[i] = s[i] - '0'
		default:
			return nil, fmt.Errorf("unexpected byte %q at %d", s[i], i)
		}
	}
	return labels, nil
}

// AttemptCounter 使用 Redis 计数消息的处理失败次数。
type AttemptCounter struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAttemptCounter 创建一个 AttemptCounter，计数在 ttl 后过期。
func NewAttemptCounter(rdb *redis.Client, ttl time.Duration) *AttemptCounter {
	return &AttemptCounter{rdb: rdb, ttl: ttl}
}

// Incr 把 key 的失败次数加一并返回新值。
func (a *AttemptCounter) Incr(ctx context.Context, key string) (int64, error) {
	n, err := a.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	_ = a.rdb.Expire(ctx, key, a.ttl).Err()
	return n, nil
}

// Reset 清除 key 的失败次数。
func (a *AttemptCounter) Reset(ctx context.Context, key string) error {
	return a.rdb.Del(ctx, key).Err()
}
