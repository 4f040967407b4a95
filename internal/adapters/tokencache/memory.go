package tokencache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

// Memory は ttlcache を利用したプロセス内のトークンキャッシュです。
type Memory struct {
	cache *ttlcache.Cache[string, string]
}

// NewMemory は期限切れエントリの掃除を開始した Memory を生成します。Close で停止してください。
func NewMemory() *Memory {
	cache := ttlcache.New(
		ttlcache.WithDisableTouchOnHit[string, string](),
	)

	go cache.Start()

	return &Memory{cache: cache}
}

// Get はキーに対応する値を返します。期限切れや未登録の場合は false を返します。
func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	item := m.cache.Get(key)
	if item == nil || item.IsExpired() {
		return "", false, nil
	}
	return item.Value(), true, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		m.cache.Delete(key)
		return nil
	}
	m.cache.Set(key, value, ttl)
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.cache.Delete(key)
	return nil
}

// Close は掃除用のゴルーチンを停止します。
func (m *Memory) Close() error {
	m.cache.Stop()
	return nil
}
