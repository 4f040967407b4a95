package tokencache

import (
	"context"
	"fmt"
	"time"

	"github.com/ogurasousui/employee-sync-adapter/internal/platform/config"
)

// Store はアクセストークンを TTL 付きで保持するキャッシュです。
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// New は設定されたドライバーに対応する Store を生成します。
func New(cfg config.TokenCacheConfig) (Store, error) {
	switch cfg.Driver {
	case config.TokenCacheMemory, "":
		return NewMemory(), nil
	case config.TokenCacheRedis:
		return NewRedisFromConfig(cfg.Redis), nil
	default:
		return nil, fmt.Errorf("tokencache: unsupported driver %q", cfg.Driver)
	}
}
