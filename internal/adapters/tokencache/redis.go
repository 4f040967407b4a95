package tokencache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ogurasousui/employee-sync-adapter/internal/platform/config"
	"github.com/redis/go-redis/v9"
)

// Redis は複数インスタンスでトークンを共有するための Redis バックエンドです。
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis は Redis を生成します。
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// NewRedisFromConfig は設定から Redis クライアントを構築します。
func NewRedisFromConfig(cfg config.RedisConfig) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedis(client, cfg.Prefix)
}

func (r *Redis) redisKey(key string) string {
	if r.prefix == "" {
		return "token:" + key
	}
	return fmt.Sprintf("%s:token:%s", r.prefix, key)
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("tokencache: redis get: %w", err)
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return r.Delete(ctx, key)
	}
	if err := r.client.Set(ctx, r.redisKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("tokencache: redis set: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("tokencache: redis delete: %w", err)
	}
	return nil
}

// Close は Redis への接続を閉じます。
func (r *Redis) Close() error {
	return r.client.Close()
}
